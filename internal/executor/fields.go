package executor

import (
	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// fieldGroup is every field node in a selection set that resolves to the same
// response name, order-preserved in first-appearance order.
type fieldGroup struct {
	ResponseName string
	Fields       []*language.Field
}

// collectedFieldMap preserves field order from the original query.
type collectedFieldMap struct {
	fields []fieldGroup
	index  map[string]int
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, fieldGroup{ResponseName: responseName, Fields: []*language.Field{field}})
}

func (cfm *collectedFieldMap) orderedFields() []fieldGroup { return cfm.fields }

// deferredFragment is a fragment spread or inline fragment marked @defer: its
// field group is collected eagerly (so collection errors surface up front)
// but is not merged into the enclosing selection set's group. The Completer
// hands it to the Dispatcher as a separate patch once the enclosing object's
// source value is known.
type deferredFragment struct {
	Label  string
	Fields *collectedFieldMap
}

// collectFields implements field collection (spec.md §4.3): it flattens
// fragment spreads and inline fragments into a single ordered field group per
// response name, applying @skip/@include, type-condition narrowing against
// the schema's interface/union possible-type sets, and splitting out
// @defer'd fragments as separate deferredFragments instead of merging them.
//
// Results are memoized by (objectType, selectionSet identity): the same AST
// selection set is recollected once per list element sharing a parent field,
// and those elements share the identical *language.Field slice, not just an
// equal one.
func collectFields(ec *ExecutionContext, objectType *schema.Type, selectionSet language.SelectionSet) (*collectedFieldMap, []deferredFragment) {
	if cached, ok := ec.memo.lookup(objectType.Name, selectionSet); ok {
		return cached.group, cached.deferred
	}

	group := newCollectedFieldMap()
	var deferred []deferredFragment
	visited := make(map[string]bool)
	collectFieldsImpl(ec, objectType, selectionSet, group, &deferred, visited, true)

	ec.memo.store(objectType.Name, selectionSet, group, deferred)
	return group, deferred
}

func collectFieldsImpl(ec *ExecutionContext, objectType *schema.Type, selectionSet language.SelectionSet, group *collectedFieldMap, deferred *[]deferredFragment, visited map[string]bool, allowDefer bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(ec, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			group.add(responseName, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(ec, sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && !typeConditionMatches(ec, sel.TypeCondition, objectType.Name) {
				continue
			}
			if skip, label, ok := deferArguments(ec, sel.Directives); ok && allowDefer && !skip {
				*deferred = append(*deferred, collectDeferredFragment(ec, objectType, sel.SelectionSet, label))
				continue
			}
			collectFieldsImpl(ec, objectType, sel.SelectionSet, group, deferred, visited, allowDefer)

		case *language.FragmentSpread:
			if !shouldIncludeNode(ec, sel.Directives) {
				continue
			}
			fragmentDef := getFragmentDefinition(ec.document, sel.Name)
			if fragmentDef == nil {
				continue
			}
			if fragmentDef.TypeCondition != "" && !typeConditionMatches(ec, fragmentDef.TypeCondition, objectType.Name) {
				continue
			}
			if !shouldIncludeNode(ec, fragmentDef.Directives) {
				continue
			}
			if skip, label, ok := deferArguments(ec, sel.Directives); ok && allowDefer && !skip {
				if label == "" {
					label = sel.Name
				}
				if visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				*deferred = append(*deferred, collectDeferredFragment(ec, objectType, fragmentDef.SelectionSet, label))
				continue
			}
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			collectFieldsImpl(ec, objectType, fragmentDef.SelectionSet, group, deferred, visited, allowDefer)
		}
	}
}

// collectDeferredFragment flattens a deferred fragment's own selection set
// into its own field group, with further nested @defer disabled: a patch's
// contents are delivered as one unit, not split into sub-patches.
func collectDeferredFragment(ec *ExecutionContext, objectType *schema.Type, selectionSet language.SelectionSet, label string) deferredFragment {
	group := newCollectedFieldMap()
	var nested []deferredFragment
	visited := make(map[string]bool)
	collectFieldsImpl(ec, objectType, selectionSet, group, &nested, visited, false)
	return deferredFragment{Label: label, Fields: group}
}

// typeConditionMatches reports whether a fragment's type condition admits
// objectTypeName, using the schema's possible-types sets for abstract
// conditions instead of requiring a literal name match.
func typeConditionMatches(ec *ExecutionContext, typeCondition, objectTypeName string) bool {
	if typeCondition == objectTypeName {
		return true
	}
	return ec.schema.IsSubType(typeCondition, objectTypeName)
}

// shouldIncludeNode applies @skip/@include; @skip takes precedence when both
// are present, matching the GraphQL spec's tie-break.
func shouldIncludeNode(ec *ExecutionContext, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveBoolArg(ec, skip, "if"); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveBoolArg(ec, include, "if"); ok && !v {
			return false
		}
	}
	return true
}

// deferArguments reports whether a @defer directive is present, and if so
// whether it evaluates to skip=true (if:false) and its label.
func deferArguments(ec *ExecutionContext, directives language.DirectiveList) (skip bool, label string, present bool) {
	d := directives.ForName("defer")
	if d == nil {
		return false, "", false
	}
	skip = false
	if v, ok := directiveBoolArg(ec, d, "if"); ok && !v {
		skip = true
	}
	for _, arg := range d.Arguments {
		if arg.Name == "label" {
			if s, ok := valueFromAST(ec, arg.Value).(string); ok {
				label = s
			}
		}
	}
	return skip, label, true
}

func directiveBoolArg(ec *ExecutionContext, directive *language.Directive, name string) (bool, bool) {
	for _, arg := range directive.Arguments {
		if arg.Name == name {
			v, ok := valueFromAST(ec, arg.Value).(bool)
			return v, ok
		}
	}
	return false, false
}

// valueFromAST resolves an AST value to a runtime Go value, substituting
// variables from the execution context.
func valueFromAST(ec *ExecutionContext, value *language.Value) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return ec.variableValues[value.Raw]
	}
	return astValueToGo(value)
}

func getFragmentDefinition(document *language.QueryDocument, name string) *language.FragmentDefinition {
	if fd := document.Fragments.ForName(name); fd != nil {
		return fd
	}
	for _, f := range document.Fragments {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	for _, field := range objectType.Fields {
		if field.Name == fieldName {
			return field
		}
	}
	return nil
}
