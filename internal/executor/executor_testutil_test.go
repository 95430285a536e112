package executor

import (
	"context"
	"testing"

	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// newTestExecutionContext builds an ExecutionContext directly from its
// fields, bypassing operation/variable resolution, for tests that exercise
// one executor component (field collection, value coercion, completion) in
// isolation rather than a full Execute call.
func newTestExecutionContext(sch *schema.Schema, doc *language.QueryDocument, runtime Runtime, variableValues map[string]any) *ExecutionContext {
	if variableValues == nil {
		variableValues = map[string]any{}
	}
	ec := &ExecutionContext{
		ctx:            context.Background(),
		runtime:        runtime,
		schema:         sch,
		document:       doc,
		variableValues: variableValues,
		memo:           newFieldMemo(),
	}
	if len(doc.Operations) > 0 {
		ec.operation = doc.Operations[0]
	}
	ec.dispatcher = newDispatcher(ec)
	return ec
}

func collectFieldsForTest(ec *ExecutionContext, objectType *schema.Type, sel language.SelectionSet) []fieldGroup {
	group, _ := collectFields(ec, objectType, sel)
	return group.orderedFields()
}
