package executor

// buildResponse assembles the initial payload (spec §4.10): {data} when the
// main execution recorded no errors, {errors, data} otherwise. If the
// dispatcher has no pending @defer/@stream work, that payload is the whole
// response; otherwise it is wrapped as IncrementalResult.Initial and paired
// with the dispatcher's pull channel.
func buildResponse(ec *ExecutionContext, data any) any {
	result := &ExecutionResult{Data: data, Errors: ec.errorsSnapshot()}
	if !ec.dispatcher.hasPending() {
		return result
	}
	return &IncrementalResult{Initial: result, Subsequent: ec.dispatcher.subsequent()}
}
