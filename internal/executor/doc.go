// Package executor implements the query execution core: it walks a validated
// schema and a parsed operation document, resolves fields through an injected
// Runtime, completes values according to their declared output type, and
// assembles a response tree — including incremental @defer/@stream payloads
// delivered as an asynchronous sequence.
//
// # Execution model
//
// Query and Subscription root fields are all started, one after another on
// the calling goroutine, before any of them is awaited; their results are
// combined with MapObjectValues. Mutation root
// fields run strictly serially: field N starts only once field N-1 (and its
// whole subtree) has settled.
//
// The executor never pays for concurrency it doesn't need. Value (value.go)
// is a tagged union of "ready" and "pending": every combinator inspects the
// tag first, and if every input is already ready, the combinator computes and
// returns a ready Value synchronously, with no goroutine or channel involved.
// This is the sync fast path (spec §9): a request whose Runtime never hands
// back a pending Value never spawns a goroutine, and ExecuteSync succeeds.
//
// # Field classification
//
// Runtime.ResolveField decides, per field, whether to answer immediately
// (Ready) or to register the field with its own internal batching and answer
// later (Pending). Because sibling fields in an object are all dispatched
// before any of them is awaited, a Runtime can batch same-tick field
// resolutions (e.g. grpcrt groups by backend RPC) by buffering registrations
// until the Executor calls Runtime.Dispatch once per sibling group — the
// explicit substitute for the "collect this depth's async work, then run it
// once" strategy a batching backend needs.
//
// # Value completion
//
// completeValue (complete.go) implements GraphQL value completion:
//   - NonNull: unwrap and complete the inner type; a null result is a
//     violation that bubbles to the nearest nullable ancestor.
//   - Null: a nil raw value completes to GraphQL null.
//   - List: complete each element at an index-suffixed path; @stream splits
//     the list into an inlined prefix and a streamed suffix delivered as
//     incremental patches.
//   - Leaf (Scalar/Enum): Runtime.SerializeLeafValue must be total for
//     non-null input.
//   - Abstract (Interface/Union): Runtime.ResolveType picks the concrete
//     object type, validated against the schema, then completed as Object.
//   - Object: subfields are collected (memoized) and executed in parallel.
//
// # Incremental delivery
//
// @defer fragments and @stream list tails are handed to the Dispatcher
// (dispatcher.go), which races their completion and exposes a pull channel of
// ExecutionPatchResult. ResponseBuilder (response.go) returns a bare
// ExecutionResult when the Dispatcher has no pending work, or an
// IncrementalResult wrapping that channel otherwise.
//
// # Errors and partial success
//
// Errors are accumulated as located GraphQLErrors (message + path). A field
// under a Non-Null type that errors or resolves to null propagates null to
// its nearest nullable ancestor (handleFieldError in complete.go is the single
// chokepoint for this rule); a deferred patch's errors are scoped to that
// patch, never the main response.
package executor
