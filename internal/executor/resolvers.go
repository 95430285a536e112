package executor

import (
	"context"
	"reflect"

	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// DefaultResolveField implements the default field resolver (spec §4.8): if
// source is object-like (a map or a struct, by value or pointer) look up
// info.FieldName on it; if the looked-up property is itself a function,
// invoke it with the 3-arg convention (args, ctx, info) — not the 4-arg
// convention some other runtimes use. A source that is neither object-like
// nor callable resolves to nil, which completes to GraphQL null for a
// nullable field.
//
// Runtime implementations that have no field-specific resolver configured
// for a given (ObjectType, FieldName) pair can fall back to this.
func DefaultResolveField(ctx context.Context, source any, info FieldResolveInfo) (any, error) {
	if source == nil {
		return nil, nil
	}

	if m, ok := source.(map[string]any); ok {
		v, ok := m[info.FieldName]
		if !ok {
			return nil, nil
		}
		return invokeIfFunc(v, info, ctx)
	}

	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, nil
	}

	fieldName := exportedFieldName(info.FieldName)
	fv := rv.FieldByName(fieldName)
	if !fv.IsValid() {
		if !rv.CanAddr() {
			// Method sets on an unaddressable value copy still expose
			// value-receiver methods; a pointer-receiver method on a
			// by-value source has no fallback.
			method := rv.MethodByName(fieldName)
			if !method.IsValid() {
				return nil, nil
			}
			return invokeIfFunc(method.Interface(), info, ctx)
		}
		method := rv.Addr().MethodByName(fieldName)
		if !method.IsValid() {
			return nil, nil
		}
		return invokeIfFunc(method.Interface(), info, ctx)
	}
	return invokeIfFunc(fv.Interface(), info, ctx)
}

// invokeIfFunc calls v with the (args, ctx, info) convention if it is a
// function, otherwise returns it unchanged.
func invokeIfFunc(v any, info FieldResolveInfo, ctx context.Context) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return v, nil
	}
	in := []reflect.Value{
		reflect.ValueOf(info.Args),
		reflect.ValueOf(ctx),
		reflect.ValueOf(info),
	}
	out := rv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		var err error
		if e, ok := out[1].Interface().(error); ok {
			err = e
		}
		return out[0].Interface(), err
	}
}

// exportedFieldName upper-cases the first rune of a GraphQL field name so it
// matches Go's exported-field naming convention (e.g. "id" -> "Id").
func exportedFieldName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

// DefaultResolveType implements the default abstract-type resolver (spec
// §4.7.3): prefer an explicit "__typename" string on a map value, then fall
// back to the Go type name of the value (pointers dereferenced); either name
// is accepted only if the schema lists it as a possible type of
// abstractTypeName. No type's IsTypeOf predicate is consulted; a value that
// matches neither rule is reported as unresolved.
func DefaultResolveType(sch *schema.Schema, abstractTypeName string, value any) (string, bool) {
	if m, ok := value.(map[string]any); ok {
		if tn, ok := m["__typename"].(string); ok && sch.IsSubType(abstractTypeName, tn) {
			return tn, true
		}
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.IsValid() {
		typeName := rv.Type().Name()
		if sch.IsSubType(abstractTypeName, typeName) {
			return typeName, true
		}
	}
	return "", false
}
