package grpcrt

import (
	"context"

	"github.com/ionrelay/gqlruntime/internal/executor"
)

// asyncResolveTask and asyncResolveResult mirror the field-resolution request/response
// shape the tests in this package exercise, expressed against the ResolveField+Dispatch
// contract instead of a single batched call.
type asyncResolveTask struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

type asyncResolveResult struct {
	Value any
	Error error
}

// resolveSync drives a single physical-field projection through ResolveField and
// awaits it inline; used by tests that exercise the no-I/O path.
func resolveSync(rt executor.Runtime, ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	v := rt.ResolveField(ctx, source, executor.FieldResolveInfo{ObjectType: objectType, FieldName: field, Args: args})
	return v.Await()
}

// batchResolveAsync buffers every task via ResolveField, flushes them with a single
// Dispatch, then awaits each result in input order — the test-harness equivalent of the
// old single-call batch API.
func batchResolveAsync(rt executor.Runtime, ctx context.Context, tasks []asyncResolveTask) []asyncResolveResult {
	values := make([]executor.Value, len(tasks))
	for i, t := range tasks {
		values[i] = rt.ResolveField(ctx, t.Source, executor.FieldResolveInfo{ObjectType: t.ObjectType, FieldName: t.Field, Args: t.Args})
	}
	rt.Dispatch(ctx)
	out := make([]asyncResolveResult, len(tasks))
	for i, v := range values {
		val, err := v.Await()
		out[i] = asyncResolveResult{Value: val, Error: err}
	}
	return out
}
