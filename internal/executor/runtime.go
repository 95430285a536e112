package executor

import (
	"context"

	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// FieldResolveInfo carries everything a Runtime needs to resolve one field
// instance, mirroring the `info` argument of spec.md §6's resolver contract.
type FieldResolveInfo struct {
	ObjectType   string
	FieldName    string
	FieldNodes   []*language.Field
	ReturnType   *schema.TypeRef
	ParentType   *schema.Type
	Path         Path
	Args         map[string]any
	Schema       *schema.Schema
	RootValue    any
	VariableVals map[string]any
}

// Runtime is the host integration surface. The Executor calls ResolveField
// once per field instance, possibly many in flight at once (siblings in a
// selection set are all dispatched before any of them is awaited); a Runtime
// that wants to batch backend calls buffers its pending work and flushes it
// when Dispatch is called — the Executor calls Dispatch exactly once after
// dispatching every field in a sibling group, and before awaiting any of
// their Values. A Runtime with nothing to batch can ignore Dispatch.
//
// Implementations must not mutate source or args. They should be safe for
// concurrent use: the Executor calls ResolveField concurrently for sibling
// fields under Query/Subscription selection sets.
type Runtime interface {
	// ResolveField resolves source.fieldName, returning a ready Value for a
	// synchronous (e.g. plain projection) field or a pending Value for one
	// that requires I/O. Returning (nil, nil) from the settled Value produces
	// GraphQL null for a nullable field.
	ResolveField(ctx context.Context, source any, info FieldResolveInfo) Value

	// Dispatch flushes any field resolutions buffered by ResolveField calls
	// since the last Dispatch (or request start). The Executor calls this
	// once per sibling field group before awaiting their Values.
	Dispatch(ctx context.Context)

	// ResolveType determines the concrete object type name for a value of an
	// interface or union type. May return a pending Value (string, error).
	ResolveType(ctx context.Context, abstractType string, value any) Value

	// SerializeLeafValue serializes a scalar or enum raw value into a
	// JSON-safe Go value. Must be total for every non-null input: returning
	// (nil, nil) for a non-null raw value is treated as a serialization
	// failure by the Completer.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// TypeOfChecker is an optional Runtime capability. A Runtime that tracks a
// per-type isTypeOf predicate implements it so the Completer can enforce
// spec.md §4.7 step 7: before trusting a resolved value as one particular
// Object type and collecting its subfields, run the predicate (possibly
// async) and fail the field if it returns false. Only schema.Type entries
// with HasIsTypeOf set are checked; a Runtime with no predicates configured
// for a type, or that doesn't implement this interface at all, skips the
// check entirely.
type TypeOfChecker interface {
	IsTypeOf(ctx context.Context, objectTypeName string, value any) Value
}

// AsyncSequence is pulled element-by-element by the Completer when a list
// field's raw value implements it (spec.md §4.7.2), instead of being treated
// as a finite in-memory iterable.
type AsyncSequence interface {
	// Next returns the next element, or done=true when exhausted.
	Next(ctx context.Context) (value any, done bool, err error)
}
