package executor

import (
	"fmt"
	"strconv"
	"strings"

	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// maxVariableCoercionErrors bounds how many variable-coercion errors a single
// request reports: a request with hundreds of malformed variables shouldn't
// produce a response whose error list dwarfs everything else.
const maxVariableCoercionErrors = 50

// coerceVariableValues coerces variable values according to their types,
// collecting up to maxVariableCoercionErrors errors across all variables
// rather than stopping at the first one, so a caller with many malformed
// variables sees the whole set in one round trip.
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, []error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	var errs []error
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if v2, ok2 := variableValues[strings.TrimPrefix(name, "$")]; ok2 {
				val = v2
				ok = true
			}
		}
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				if len(errs) < maxVariableCoercionErrors {
					errs = append(errs, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String()))
				}
				continue
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			if len(errs) < maxVariableCoercionErrors {
				errs = append(errs, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String()))
			}
			continue
		}
		cv, err := coerceValue(val, typeRefFromAST(t))
		if err == nil && sch != nil {
			if inputType := sch.Types[t.Name()]; inputType != nil && inputType.Kind == schema.TypeKindInputObject {
				if fields, isMap := cv.(map[string]any); isMap {
					for _, f := range inputType.InputFields {
						if _, present := fields[f.Name]; !present && f.DefaultValue == nil && schema.IsNonNull(f.Type) {
							err = fmt.Errorf("required field '%s' was not provided", f.Name)
							break
						}
					}
				}
			}
		}
		if err != nil {
			if len(errs) < maxVariableCoercionErrors {
				errs = append(errs, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err))
			}
			continue
		}
		coerced[name] = cv
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return coerced, nil
}

// coerceArgumentValues coerces argument values for a field, recording errors
// on ec at the field's path rather than returning them.
func coerceArgumentValues(
	ec *ExecutionContext,
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	path Path,
) map[string]any {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		var argDef *schema.InputValue
		for _, a := range fieldDef.Arguments {
			if a.Name == arg.Name {
				argDef = a
				break
			}
		}
		if argDef == nil {
			continue
		}
		val := valueFromASTWithVars(arg.Value, ec.variableValues)
		cv, err := coerceValue(val, argDef.Type)
		if err != nil {
			ec.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err), path)
			continue
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		if _, ok := coerced[name]; !ok {
			if argDef.DefaultValue != nil {
				coerced[name] = argDef.DefaultValue
			} else if schema.IsNonNull(argDef.Type) {
				ec.addError(fmt.Sprintf("argument '%s' of required type was not provided", name), path)
			}
		}
	}
	return coerced
}

// coerceStreamInitialCount resolves the @stream directive's initialCount
// argument, defaulting to 0 (no inline prefix) when absent.
func coerceStreamInitialCount(ec *ExecutionContext, directives language.DirectiveList) (initialCount int, present bool) {
	d := directives.ForName("stream")
	if d == nil {
		return 0, false
	}
	if skip, _, ok := deferArguments(ec, language.DirectiveList{d}); ok && skip {
		return 0, false
	}
	for _, arg := range d.Arguments {
		if arg.Name == "initialCount" {
			v := valueFromAST(ec, arg.Value)
			n, err := coerceToInt(v)
			if err == nil {
				if iv, ok := n.(int); ok {
					initialCount = iv
				}
			}
		}
	}
	return initialCount, true
}

// streamLabel returns the @stream directive's label argument, if any.
func streamLabel(ec *ExecutionContext, directives language.DirectiveList) string {
	d := directives.ForName("stream")
	if d == nil {
		return ""
	}
	for _, arg := range d.Arguments {
		if arg.Name == "label" {
			if s, ok := valueFromAST(ec, arg.Value).(string); ok {
				return s
			}
		}
	}
	return ""
}

// valueFromASTWithVars converts an AST value to a runtime value with variable substitution.
func valueFromASTWithVars(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		name := value.Raw
		if v, ok := variableValues[name]; ok {
			return v
		}
		if v, ok := variableValues[strings.TrimPrefix(name, "$")]; ok {
			return v
		}
		return nil
	default:
		return astValueToGo(value)
	}
}

// astValueToGo converts an AST value to a Go value.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces a value to the specified GraphQL type.
func coerceValue(value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(value, schema.Unwrap(targetType))
	}

	if value == nil {
		return nil, nil
	}

	if schema.IsList(targetType) {
		return coerceListValue(value, targetType)
	}

	namedType := schema.GetNamedType(targetType)

	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	default:
		return value, nil
	}
}

// coerceListValue coerces a value to a list.
func coerceListValue(value any, listType *schema.TypeRef) (any, error) {
	if slice, ok := value.([]any); ok {
		innerType := schema.Unwrap(listType)
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(item, innerType)
			if err != nil {
				return nil, err
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	innerType := schema.Unwrap(listType)
	coercedItem, err := coerceValue(value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if floatVal, err := strconv.ParseFloat(v, 64); err == nil {
			return floatVal, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return fmt.Sprintf("%v", value), nil
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
