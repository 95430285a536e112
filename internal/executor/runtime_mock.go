package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockResolver resolves a single item; MockRuntime adapts it to either the
// synchronous or the buffered-batch path depending on how it was
// registered.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// Call kinds recorded in MockRuntime's call log.
const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

// NewMockValueResolver returns a MockResolver that always returns val.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always fails with err.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// Call is one recorded ResolveField invocation. Async calls made in the same
// Dispatch share a BatchID; sync calls always carry BatchID 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	BatchID    int
}

type mockTask struct {
	key    string
	source any
	args   map[string]any
	ch     chan settled
}

// MockRuntime is a test Runtime: resolvers are registered per "Type.Field"
// key and either answer immediately (SetResolver) or buffer until the
// Executor calls Dispatch (SetAsyncResolver), exercising the batching
// contract the same way a real backend Runtime would.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	asyncKeys map[string]bool
	pending   []mockTask
	calls     []Call
	batchSeq  int

	typeResolver func(value any) (string, error)
	serializer   func(scalarOrEnumTypeName string, value any) (any, error)
	isTypeOf     func(objectTypeName string, value any) (bool, error)
}

// NewMockRuntime creates a MockRuntime with the given synchronous resolvers,
// keyed "ObjectType.Field".
func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers: make(map[string]MockResolver),
		asyncKeys: make(map[string]bool),
		typeResolver: func(value any) (string, error) {
			if mv, ok := value.(map[string]any); ok {
				if typename, ok := mv["__typename"].(string); ok {
					return typename, nil
				}
			}
			return "", fmt.Errorf("cannot resolve type")
		},
		serializer: func(scalarOrEnumTypeName string, value any) (any, error) {
			return value, nil
		},
	}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// SetResolver registers (or replaces) a synchronous resolver.
func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = resolver
	delete(m.asyncKeys, objectType+"."+field)
}

// SetAsyncResolver registers a resolver whose calls are buffered until the
// Executor's next Dispatch, so tests can assert on batching behavior.
func (m *MockRuntime) SetAsyncResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := objectType + "." + field
	m.resolvers[key] = resolver
	m.asyncKeys[key] = true
}

// SetTypeResolver overrides the abstract-type resolution function.
func SetTypeResolver(r Runtime, f func(value any) (string, error)) {
	if mr, ok := r.(*MockRuntime); ok {
		mr.mu.Lock()
		mr.typeResolver = f
		mr.mu.Unlock()
	}
}

// SetSerializer overrides leaf-value serialization.
func SetSerializer(r Runtime, f func(scalarOrEnumTypeName string, value any) (any, error)) {
	if mr, ok := r.(*MockRuntime); ok {
		mr.mu.Lock()
		mr.serializer = f
		mr.mu.Unlock()
	}
}

// SetIsTypeOf configures the isTypeOf predicate MockRuntime.IsTypeOf checks,
// exercising the TypeOfChecker optional Runtime capability. Only consulted by
// the Completer for schema.Type entries with HasIsTypeOf set.
func SetIsTypeOf(r Runtime, f func(objectTypeName string, value any) (bool, error)) {
	if mr, ok := r.(*MockRuntime); ok {
		mr.mu.Lock()
		mr.isTypeOf = f
		mr.mu.Unlock()
	}
}

// IsTypeOf implements TypeOfChecker.
func (m *MockRuntime) IsTypeOf(ctx context.Context, objectTypeName string, value any) Value {
	m.mu.Lock()
	check := m.isTypeOf
	m.mu.Unlock()
	if check == nil {
		return Ready(true, nil)
	}
	ok, err := check(objectTypeName, value)
	return Ready(ok, err)
}

// ResolveField implements Runtime.
func (m *MockRuntime) ResolveField(ctx context.Context, source any, info FieldResolveInfo) Value {
	key := info.ObjectType + "." + info.FieldName

	m.mu.Lock()
	isAsync := m.asyncKeys[key]
	resolver := m.resolvers[key]
	m.mu.Unlock()

	if !isAsync {
		var val any
		var err error
		if resolver != nil {
			val, err = resolver(ctx, source, info.Args)
		} else {
			val, err = DefaultResolveField(ctx, source, info)
		}
		m.logCall(Call{Kind: CallKindSync, ObjectType: info.ObjectType, Field: info.FieldName, Source: source, Args: info.Args})
		return Ready(val, err)
	}

	ch := make(chan settled, 1)
	m.mu.Lock()
	m.pending = append(m.pending, mockTask{key: key, source: source, args: info.Args, ch: ch})
	m.mu.Unlock()
	return pendingValue(ch)
}

// Dispatch implements Runtime: it flushes every buffered async task in the
// order it was buffered, logging each call under one shared, fresh BatchID,
// and settles each task's Value.
func (m *MockRuntime) Dispatch(ctx context.Context) {
	m.mu.Lock()
	tasks := m.pending
	m.pending = nil
	if len(tasks) == 0 {
		m.mu.Unlock()
		return
	}
	m.batchSeq++
	batchID := m.batchSeq
	resolvers := m.resolvers
	m.mu.Unlock()

	for _, t := range tasks {
		r := resolvers[t.key]
		obj, fld := splitKey(t.key)
		var val any
		var err error
		if r != nil {
			val, err = r(ctx, t.source, t.args)
		} else {
			val, err = DefaultResolveField(ctx, t.source, FieldResolveInfo{ObjectType: obj, FieldName: fld, Args: t.args})
		}
		m.logCall(Call{Kind: CallKindAsync, ObjectType: obj, Field: fld, Source: t.source, Args: t.args, BatchID: batchID})
		t.ch <- settled{value: val, err: err}
	}
}

// ResolveType implements Runtime.
func (m *MockRuntime) ResolveType(ctx context.Context, abstractType string, value any) Value {
	m.mu.Lock()
	resolve := m.typeResolver
	m.mu.Unlock()
	if resolve == nil {
		return Ready(nil, fmt.Errorf("type resolver not configured"))
	}
	name, err := resolve(value)
	return Ready(name, err)
}

// SerializeLeafValue implements Runtime.
func (m *MockRuntime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	m.mu.Lock()
	serialize := m.serializer
	m.mu.Unlock()
	if serialize == nil {
		return value, nil
	}
	return serialize(scalarOrEnumTypeName, value)
}

func (m *MockRuntime) logCall(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

// GetCalls returns a copy of the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls and counters; registered resolvers remain.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batchSeq = 0
}

func splitKey(key string) (string, string) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return key, ""
}
