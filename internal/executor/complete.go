package executor

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	eventbus "github.com/ionrelay/gqlruntime/internal/eventbus"
	events "github.com/ionrelay/gqlruntime/internal/events"
	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// errNullBubble is the sentinel error a completion Value carries when a
// Non-Null violation (a null result, or an error, under a non-null type)
// must propagate to the nearest nullable ancestor. It is never surfaced to a
// caller outside this package: handleFieldError and the NonNull branch of
// completeValue produce it, completeValue turns it back into null at the
// nearest nullable type, and a root or patch selection set that receives it
// reports null data.
var errNullBubble = errors.New("executor: null bubbled to nearest nullable ancestor")

// errorSink records a located error against whichever error list owns the
// subtree currently executing: the request's main list for ordinary
// selections, or a patch-scoped list for a @defer fragment's own execution.
type errorSink interface {
	recordError(message string, path Path)
}

func (ec *ExecutionContext) recordError(message string, path Path) { ec.addError(message, path) }

// patchErrorList is the errorSink for one @defer patch: its errors are
// reported alongside that patch, never merged into the main response.
type patchErrorList struct {
	mu   sync.Mutex
	errs []GraphQLError
}

func (p *patchErrorList) recordError(message string, path Path) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, GraphQLError{Message: message, Path: path})
}

func (p *patchErrorList) snapshot() []GraphQLError {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]GraphQLError, len(p.errs))
	copy(out, p.errs)
	return out
}

// executeFields executes every field in group against source concurrently —
// sibling fields are all dispatched to the Runtime before any of them is
// awaited, then Runtime.Dispatch is called once, giving a batching Runtime a
// chance to flush before the Completer blocks on any one field. The returned
// Value carries a map[string]any on success, or errNullBubble when one of
// the fields requires the whole object to bubble to null.
func executeFields(ec *ExecutionContext, sink errorSink, objectType *schema.Type, source any, group *collectedFieldMap, path Path) Value {
	fields := group.orderedFields()
	kvs := make([]keyedValue, 0, len(fields))
	for _, fg := range fields {
		fieldPath := path.With(fg.ResponseName)
		kvs = append(kvs, keyedValue{key: fg.ResponseName, value: executeField(ec, sink, objectType, source, fg, fieldPath)})
	}
	ec.runtime.Dispatch(ec.ctx)

	combined := MapObjectValues(kvs)
	return MapValue(combined, func(val any, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		return val.(*objectResult).Values, nil
	})
}

// executeField resolves and completes a single field group (one response
// name, one or more aliased field nodes), returning a Value of its
// completed, response-ready result.
func executeField(ec *ExecutionContext, sink errorSink, objectType *schema.Type, source any, fg fieldGroup, path Path) Value {
	fieldNode := fg.Fields[0]
	if fieldNode.Name == "__typename" {
		return Ready(objectType.Name, nil)
	}

	fieldDef := getFieldDefinition(objectType, fieldNode.Name)
	if fieldDef == nil {
		sink.recordError(fmt.Sprintf("Cannot query field %q on type %q", fieldNode.Name, objectType.Name), path)
		return Ready(nil, nil)
	}

	args := coerceArgumentValues(ec, fieldDef, fieldNode.Arguments, path)

	eventbus.Publish(ec.ctx, events.FieldResolveStart{
		ObjectType: objectType.Name,
		FieldName:  fieldNode.Name,
		Path:       path.String(),
	})
	resolveStart := time.Now()

	raw := ec.runtime.ResolveField(ec.ctx, source, FieldResolveInfo{
		ObjectType:   objectType.Name,
		FieldName:    fieldNode.Name,
		FieldNodes:   fg.Fields,
		ReturnType:   fieldDef.Type,
		ParentType:   objectType,
		Path:         path,
		Args:         args,
		Schema:       ec.schema,
		RootValue:    ec.rootValue,
		VariableVals: ec.variableValues,
	})

	return BindValue(raw, func(val any, err error) Value {
		eventbus.Publish(ec.ctx, events.FieldResolveFinish{
			ObjectType: objectType.Name,
			FieldName:  fieldNode.Name,
			Path:       path.String(),
			Err:        err,
			Duration:   time.Since(resolveStart),
		})
		if err != nil {
			r, rerr := handleFieldError(sink, fieldDef.Type, path, err)
			return Ready(r, rerr)
		}
		return completeValue(ec, sink, fieldDef.Type, fg.Fields, path, val)
	})
}

// handleFieldError is the single chokepoint translating a resolver error
// into either a recorded error with a null result (nullable field) or a
// recorded error with errNullBubble (non-null field, propagating to the
// nearest nullable ancestor).
func handleFieldError(sink errorSink, fieldType *schema.TypeRef, path Path, err error) (any, error) {
	sink.recordError(err.Error(), path)
	if schema.IsNonNull(fieldType) {
		return nil, errNullBubble
	}
	return nil, nil
}

// completeValue implements type-directed value completion: Non-Null, List,
// Leaf (Scalar/Enum), Abstract (Interface/Union), and Object.
func completeValue(ec *ExecutionContext, sink errorSink, fieldType *schema.TypeRef, fieldNodes []*language.Field, path Path, result any) (completed Value) {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			sink.recordError(fmt.Sprintf("Cannot return null for non-nullable field %s", path.String()), path)
			return Ready(nil, errNullBubble)
		}
		inner := schema.Unwrap(fieldType)
		innerValue := completeValue(ec, sink, inner, fieldNodes, path, result)
		return MapValue(innerValue, func(val any, err error) (any, error) {
			if err != nil {
				return nil, err
			}
			if isNullish(val) {
				return nil, errNullBubble
			}
			return val, nil
		})
	}

	// A nullable type is where a Non-Null violation from below stops: the
	// bubble is absorbed and this position completes to null.
	defer func() {
		completed = MapValue(completed, func(val any, err error) (any, error) {
			if err == errNullBubble {
				return nil, nil
			}
			return val, err
		})
	}()

	if isNullish(result) {
		return Ready(nil, nil)
	}

	if schema.IsList(fieldType) {
		return completeListValue(ec, sink, fieldType, fieldNodes, path, result)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := ec.schema.Types[namedType]
	if typeObj == nil {
		sink.recordError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return Ready(nil, nil)
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		return completeLeafValue(ec, sink, namedType, path, result)
	case schema.TypeKindObject:
		return completeObjectValue(ec, sink, typeObj, fieldNodes, path, result)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(ec, sink, namedType, fieldNodes, path, result)
	default:
		sink.recordError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return Ready(nil, nil)
	}
}

func completeLeafValue(ec *ExecutionContext, sink errorSink, namedType string, path Path, result any) Value {
	serialized, err := ec.runtime.SerializeLeafValue(ec.ctx, namedType, result)
	if err != nil {
		sink.recordError(err.Error(), path)
		return Ready(nil, nil)
	}
	if serialized == nil {
		sink.recordError(fmt.Sprintf("SerializeLeafValue for %s produced no value for a non-null result", namedType), path)
		return Ready(nil, nil)
	}
	return Ready(serialized, nil)
}

// completeListValue implements list completion, including @stream slicing
// (spec §4.7.1): indices below initialCount are completed inline; indices at
// or above it are handed to the Dispatcher as individual patches instead of
// blocking the in-hand list.
func completeListValue(ec *ExecutionContext, sink errorSink, listType *schema.TypeRef, fieldNodes []*language.Field, path Path, result any) Value {
	innerType := schema.Unwrap(listType)
	firstNode := fieldNodes[0]

	if seq, ok := result.(AsyncSequence); ok {
		return completeAsyncSequenceValue(ec, sink, innerType, fieldNodes, path, seq)
	}

	items, err := toSlice(result)
	if err != nil {
		sink.recordError(err.Error(), path)
		return Ready(nil, nil)
	}

	initialCount, streaming := coerceStreamInitialCount(ec, firstNode.Directives)
	if !streaming || initialCount > len(items) {
		initialCount = len(items)
	}

	inlineValues := make([]Value, initialCount)
	for i := 0; i < initialCount; i++ {
		itemPath := path.With(i)
		inlineValues[i] = completeValue(ec, sink, innerType, fieldNodes, itemPath, items[i])
	}

	if streaming && initialCount < len(items) {
		label := streamLabel(ec, firstNode.Directives)
		for i := initialCount; i < len(items); i++ {
			itemPath := path.With(i)
			item := items[i]
			ec.dispatcher.addValue(itemPath, label, Ready(item, nil), innerType, fieldNodes)
		}
	}

	return AllValues(inlineValues)
}

// completeAsyncSequenceValue pulls an async-sequence list value
// element-by-element (spec §4.7.2): while @stream is inactive (or an index
// is still below initialCount) elements complete inline; once streaming
// kicks in, remaining elements are handed to the dispatcher to keep pulling,
// and the in-hand list resolves with what was gathered so far. A failing
// inline element terminates the in-hand portion at that element.
func completeAsyncSequenceValue(ec *ExecutionContext, sink errorSink, innerType *schema.TypeRef, fieldNodes []*language.Field, path Path, seq AsyncSequence) Value {
	firstNode := fieldNodes[0]
	initialCount, streaming := coerceStreamInitialCount(ec, firstNode.Directives)
	label := streamLabel(ec, firstNode.Directives)

	var inline []any
	idx := 0
	for {
		if streaming && idx >= initialCount {
			ec.dispatcher.addAsyncSequenceValue(idx, label, seq, innerType, fieldNodes, path)
			break
		}
		val, done, err := seq.Next(ec.ctx)
		if done {
			break
		}
		if err != nil {
			sink.recordError(err.Error(), path.With(idx))
			break
		}
		inline = append(inline, val)
		idx++
	}

	completedValues := make([]Value, len(inline))
	for i, v := range inline {
		completedValues[i] = completeValue(ec, sink, innerType, fieldNodes, path.With(i), v)
	}
	return AllValues(completedValues)
}

func toSlice(result any) ([]any, error) {
	if direct, ok := result.([]any); ok {
		return direct, nil
	}
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected list value, got %T", result)
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// completeObjectValue completes an Object-typed result: runs the type's
// isTypeOf predicate if it has one (spec §4.7 step 7), failing the field
// before any subfield is collected if the value doesn't satisfy it; then
// collects subfields (memoized per spec §4.11), hands any @defer'd fragments
// to the Dispatcher, and executes the remaining group in parallel.
func completeObjectValue(ec *ExecutionContext, sink errorSink, objectType *schema.Type, fieldNodes []*language.Field, path Path, result any) Value {
	if objectType.HasIsTypeOf {
		if checker, implemented := ec.runtime.(TypeOfChecker); implemented {
			val, err := checker.IsTypeOf(ec.ctx, objectType.Name, result).Await()
			if err != nil {
				sink.recordError(err.Error(), path)
				return Ready(nil, nil)
			}
			if satisfied, _ := val.(bool); !satisfied {
				sink.recordError(fmt.Sprintf("Value is not of type %q", objectType.Name), path)
				return Ready(nil, nil)
			}
		}
	}

	merged := mergeSelectionSets(fieldNodes)
	group, deferred := collectFields(ec, objectType, merged)

	for _, df := range deferred {
		patchErrs := &patchErrorList{}
		patchValue := executeFields(ec, patchErrs, objectType, result, df.Fields, path)
		ec.dispatcher.addFields(path, df.Label, patchValue, patchErrs)
	}

	return executeFields(ec, sink, objectType, result, group, path)
}

// completeAbstractValue resolves the concrete object type for an
// Interface/Union-typed result via Runtime.ResolveType, then completes it as
// an Object.
func completeAbstractValue(ec *ExecutionContext, sink errorSink, abstractTypeName string, fieldNodes []*language.Field, path Path, result any) Value {
	typeNameValue := ec.runtime.ResolveType(ec.ctx, abstractTypeName, result)
	return BindValue(typeNameValue, func(val any, err error) Value {
		if err != nil {
			r, rerr := handleFieldError(sink, nil, path, err)
			return Ready(r, rerr)
		}
		typeName, _ := val.(string)
		objectType := ec.schema.Types[typeName]
		if objectType == nil || objectType.Kind != schema.TypeKindObject {
			sink.recordError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime, got %q", abstractTypeName, typeName), path)
			return Ready(nil, nil)
		}
		if !ec.schema.IsSubType(abstractTypeName, typeName) {
			sink.recordError(fmt.Sprintf("Runtime type %q is not a possible type of %q", typeName, abstractTypeName), path)
			return Ready(nil, nil)
		}
		return completeObjectValue(ec, sink, objectType, fieldNodes, path, result)
	})
}

// mergeSelectionSets merges the selection sets of every aliased field node
// in a field group into one selection set for subfield collection.
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr,
// interface, func, chan).
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
