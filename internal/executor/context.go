package executor

import (
	"context"
	"fmt"
	"sync"

	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// ExecutionContext is the per-request state shared by every goroutine
// resolving a field of one operation: the coerced inputs, the schema and
// document being executed against, the field-collection memo table, the
// dispatcher collecting deferred/streamed patches, and the accumulated error
// list. Every method on it is safe for concurrent use.
type ExecutionContext struct {
	ctx            context.Context
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	operation      *language.OperationDefinition
	variableValues map[string]any
	rootValue      any

	memo       *fieldMemo
	dispatcher *dispatcher

	errorsMu sync.Mutex
	errors   []GraphQLError
}

// newExecutionContext resolves the requested operation, coerces its variable
// values, and assembles the per-request ExecutionContext. Returns an error
// list directly (no partial ExecutionContext) when the request cannot be
// executed at all: an ambiguous or missing operation, or variables that fail
// to coerce.
func newExecutionContext(
	ctx context.Context,
	runtime Runtime,
	sch *schema.Schema,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) (*ExecutionContext, []GraphQLError) {
	operation, err := getOperation(document, operationName)
	if err != nil {
		return nil, []GraphQLError{{Message: err.Error()}}
	}

	coerced, errs := coerceVariableValues(sch, operation, variableValues)
	if errs != nil {
		out := make([]GraphQLError, len(errs))
		for i, err := range errs {
			out[i] = GraphQLError{Message: err.Error()}
		}
		return nil, out
	}

	ec := &ExecutionContext{
		ctx:            ctx,
		runtime:        runtime,
		schema:         sch,
		document:       document,
		operation:      operation,
		variableValues: coerced,
		rootValue:      rootValue,
		memo:           newFieldMemo(),
	}
	ec.dispatcher = newDispatcher(ec)
	return ec, nil
}

// rootType returns the root object type for the operation being executed,
// and an error if the schema has no type configured for that operation kind.
func (ec *ExecutionContext) rootType() (*schema.Type, error) {
	var t *schema.Type
	switch ec.operation.Operation {
	case language.Query:
		t = ec.schema.GetQueryType()
	case language.Mutation:
		t = ec.schema.GetMutationType()
	case language.Subscription:
		t = ec.schema.GetSubscriptionType()
	default:
		return nil, fmt.Errorf("unsupported operation type: %s", ec.operation.Operation)
	}
	if t == nil {
		return nil, fmt.Errorf("schema defines no root type for %s operations", ec.operation.Operation)
	}
	return t, nil
}

// addError records a located error. Safe for concurrent use across the
// goroutines resolving sibling fields.
func (ec *ExecutionContext) addError(message string, path Path) {
	ec.errorsMu.Lock()
	defer ec.errorsMu.Unlock()
	ec.errors = append(ec.errors, GraphQLError{Message: message, Path: path})
}

// errorsSnapshot returns a copy of the errors accumulated so far, safe to
// hand to a response that's about to be serialized.
func (ec *ExecutionContext) errorsSnapshot() []GraphQLError {
	ec.errorsMu.Lock()
	defer ec.errorsMu.Unlock()
	out := make([]GraphQLError, len(ec.errors))
	copy(out, ec.errors)
	return out
}

// getOperation selects the operation to execute: the named one if
// operationName is non-empty, or the sole operation in the document
// otherwise. It is an error for the document to define zero operations, for
// a name to be required but omitted (multiple operations, no name given), or
// for a requested name to not exist.
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if len(document.Operations) == 0 {
		return nil, fmt.Errorf("no operations found in document")
	}
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0], nil
		}
		return nil, fmt.Errorf("an operation name is required when the document defines more than one operation")
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("unknown operation %q", operationName)
}

func getFieldDefinitionFor(objectType *schema.Type, fieldName string) *schema.Field {
	return getFieldDefinition(objectType, fieldName)
}
