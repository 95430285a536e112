package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// FieldResolveStart is emitted before a field's Runtime.ResolveField call,
// whether or not it ends up pending.
type FieldResolveStart struct {
	ObjectType string
	FieldName  string
	Path       string
}

// FieldResolveFinish is emitted once a field's Value has settled, after any
// Dispatch-triggered wait.
type FieldResolveFinish struct {
	ObjectType string
	FieldName  string
	Path       string
	Err        error
	Duration   time.Duration
}

// IncrementalPatch is emitted each time the Dispatcher delivers a deferred or
// streamed payload to the response.
type IncrementalPatch struct {
	Label   string
	Path    string
	HasNext bool
	Errors  []error
}
