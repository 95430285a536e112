package executor

import (
	"context"

	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// Executor runs one operation document against a schema through a Runtime.
// It holds no per-request state; every field it exposes is safe to call
// concurrently for independent requests.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

// NewExecutor builds an Executor bound to a schema and a host Runtime.
func NewExecutor(runtime Runtime, sch *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: sch}
}

// Execute runs document (selecting operationName when the document defines
// more than one operation) against rootValue with the given variables. It
// returns either *ExecutionResult, when the operation needs no incremental
// delivery, or *IncrementalResult when a @defer/@stream payload is still
// outstanding after the initial response.
func (e *Executor) Execute(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) any {
	resp, _ := e.execute(ctx, document, operationName, variableValues, rootValue)
	return resp
}

// execute is Execute's implementation, additionally reporting whether any
// field resolution in the main selection was ever asynchronous (the Value it
// produced was pending, not ready, the instant it was constructed) or the
// operation scheduled @defer/@stream work — the sync-guarantee check
// ExecuteSync needs and Execute's callers don't.
func (e *Executor) execute(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) (any, bool) {
	ec, errs := newExecutionContext(ctx, e.runtime, e.schema, document, operationName, variableValues, rootValue)
	if ec == nil {
		return &ExecutionResult{Errors: errs}, false
	}

	rootType, err := ec.rootType()
	if err != nil {
		ec.addError(err.Error(), nil)
		return &ExecutionResult{Data: nil, Errors: ec.errorsSnapshot()}, false
	}

	group, deferred := collectFields(ec, rootType, ec.operation.SelectionSet)

	var rootValueResult Value
	if ec.operation.Operation == language.Mutation {
		rootValueResult = executeFieldsSerial(ec, ec, rootType, rootValue, group, Path{})
	} else {
		rootValueResult = executeFields(ec, ec, rootType, rootValue, group, Path{})
	}

	// Must be read before Await forces the Value to settle: the ready/pending
	// tag it carries the instant it's constructed is the only record of
	// whether any field resolver in the tree ever went through the async
	// path, per spec.md §6/§8's sync-guarantee.
	asyncOccurred := rootValueResult.IsPending() || len(deferred) > 0 || ec.dispatcher.hasPending()

	for _, df := range deferred {
		patchErrs := &patchErrorList{}
		var patchValue Value
		if ec.operation.Operation == language.Mutation {
			patchValue = executeFieldsSerial(ec, patchErrs, rootType, rootValue, df.Fields, Path{})
		} else {
			patchValue = executeFields(ec, patchErrs, rootType, rootValue, df.Fields, Path{})
		}
		ec.dispatcher.addFields(Path{}, df.Label, patchValue, patchErrs)
	}

	data, rerr := rootValueResult.Await()
	if rerr != nil && rerr != errNullBubble {
		ec.addError(rerr.Error(), nil)
	}

	return buildResponse(ec, data), asyncOccurred
}

// ExecuteSync runs an operation that must complete without ever touching the
// async path: if any field resolver in the tree returned a pending Value, or
// the operation carries @defer/@stream work, it fails with the host error
// spec.md §6 mandates ("GraphQL execution failed to complete synchronously.")
// instead of silently returning a partial result. An incremental result's
// Subsequent channel is still drained in the background so the Dispatcher's
// goroutines don't leak.
func (e *Executor) ExecuteSync(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) *ExecutionResult {
	resp, asyncOccurred := e.execute(ctx, document, operationName, variableValues, rootValue)
	if asyncOccurred {
		if r, ok := resp.(*IncrementalResult); ok {
			go func() {
				for range r.Subsequent {
				}
			}()
		}
		return &ExecutionResult{Errors: []GraphQLError{{Message: "GraphQL execution failed to complete synchronously."}}}
	}
	switch r := resp.(type) {
	case *ExecutionResult:
		return r
	case *IncrementalResult:
		// Unreachable: deferred work always sets asyncOccurred.
		go func() {
			for range r.Subsequent {
			}
		}()
		return r.Initial
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: "executor: unexpected response shape"}}}
	}
}

// executeFieldsSerial runs a Mutation's root field group strictly serially:
// field N's full subtree (resolution, completion, and any nested
// defer/stream registration) settles before field N+1 is even dispatched to
// the Runtime. Errors and dispatcher registrations from earlier fields are
// visible to later ones only through ec/sink's shared state, never through
// data dependencies — this is ordering for side-effect sequencing, not data
// flow.
func executeFieldsSerial(ec *ExecutionContext, sink errorSink, objectType *schema.Type, source any, group *collectedFieldMap, path Path) Value {
	fields := group.orderedFields()
	out := make(map[string]any, len(fields))
	var result any = out
	var resultErr error
	anyPending := false
	for _, fg := range fields {
		fieldPath := path.With(fg.ResponseName)
		v := executeField(ec, sink, objectType, source, fg, fieldPath)
		anyPending = anyPending || v.IsPending()
		ec.runtime.Dispatch(ec.ctx)
		val, err := v.Await()
		if err != nil {
			result, resultErr = nil, err
			break
		}
		out[fg.ResponseName] = val
	}
	// A field that went through the async path leaves the whole group
	// pending, so execute's sync-guarantee check sees it.
	if anyPending {
		return Async(func() (any, error) { return result, resultErr })
	}
	return Ready(result, resultErr)
}
