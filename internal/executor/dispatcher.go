package executor

import (
	"sync"

	eventbus "github.com/ionrelay/gqlruntime/internal/eventbus"
	events "github.com/ionrelay/gqlruntime/internal/events"
	language "github.com/ionrelay/gqlruntime/internal/language"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
)

// dispatcher is the incremental-payload queue (spec §4.9): an ordered
// multiset of outstanding patch futures exposed as a pull channel of
// ExecutionPatchResult. Each scheduled unit of work runs in its own
// goroutine and sends its one result to out when it settles; out is never
// closed directly — a WaitGroup tracks outstanding work (including work a
// patch schedules on itself, e.g. a @stream inside a @defer'd fragment) and
// a single closer goroutine closes out once it reaches zero. This is the
// Go-idiomatic substitute for racing a set of futures by identity: the
// channel itself is the race, and delivery order is whichever goroutine
// sends first — completion order, not submission order, exactly as spec'd.
type dispatcher struct {
	ec *ExecutionContext

	wg  sync.WaitGroup
	out chan ExecutionPatchResult

	mu        sync.Mutex
	scheduled bool
}

func newDispatcher(ec *ExecutionContext) *dispatcher {
	return &dispatcher{ec: ec, out: make(chan ExecutionPatchResult)}
}

// hasPending reports whether any patch has been scheduled for this request.
func (d *dispatcher) hasPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scheduled
}

func (d *dispatcher) markScheduled() {
	d.mu.Lock()
	d.scheduled = true
	d.mu.Unlock()
}

// schedule runs fn in its own goroutine and sends its result to out,
// registering the work with the WaitGroup the closer goroutine waits on.
func (d *dispatcher) schedule(fn func() ExecutionPatchResult) {
	d.markScheduled()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.out <- fn()
	}()
}

// addFields schedules a patch wrapping an already-dispatched object Value
// (the @defer fragment's own field group, executed in parallel by the
// caller) plus the fresh, patch-scoped error list that group recorded into.
func (d *dispatcher) addFields(path Path, label string, v Value, errs *patchErrorList) {
	d.schedule(func() ExecutionPatchResult {
		data, err := v.Await()
		patchErrs := errs.snapshot()
		if err != nil && err != errNullBubble {
			patchErrs = append(patchErrs, GraphQLError{Message: err.Error(), Path: path})
		}
		return ExecutionPatchResult{Data: data, Path: path, Label: label, Errors: patchErrs, HasNext: true}
	})
}

// addValue schedules a patch that completes one raw list element at path —
// used for the tail of a @stream'd in-memory list.
func (d *dispatcher) addValue(path Path, label string, v Value, itemType *schema.TypeRef, fieldNodes []*language.Field) {
	d.schedule(func() ExecutionPatchResult {
		errs := &patchErrorList{}
		raw, err := v.Await()
		if err != nil {
			errs.recordError(err.Error(), path)
			return ExecutionPatchResult{Path: path, Label: label, Errors: errs.snapshot(), HasNext: true}
		}
		completed, cerr := completeValue(d.ec, errs, itemType, fieldNodes, path, raw).Await()
		if cerr != nil && cerr != errNullBubble {
			errs.recordError(cerr.Error(), path)
		}
		return ExecutionPatchResult{Data: completed, Path: path, Label: label, Errors: errs.snapshot(), HasNext: true}
	})
}

// addAsyncSequenceValue schedules pulls of seq.next() starting at
// startIndex: each successful pull eagerly schedules the completion of that
// element as its own patch (so completion work doesn't block the next pull)
// and continues pulling until the sequence reports done or errors.
func (d *dispatcher) addAsyncSequenceValue(startIndex int, label string, seq AsyncSequence, itemType *schema.TypeRef, fieldNodes []*language.Field, path Path) {
	d.markScheduled()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		idx := startIndex
		for {
			val, done, err := seq.Next(d.ec.ctx)
			if done {
				return
			}
			itemPath := path.With(idx)
			if err != nil {
				d.wg.Add(1)
				go func(p Path) {
					defer d.wg.Done()
					d.out <- ExecutionPatchResult{Path: p, Label: label, Errors: []GraphQLError{{Message: err.Error(), Path: p}}, HasNext: true}
				}(itemPath)
				return
			}
			d.wg.Add(1)
			go func(p Path, v any) {
				defer d.wg.Done()
				errs := &patchErrorList{}
				completed, cerr := completeValue(d.ec, errs, itemType, fieldNodes, p, v).Await()
				if cerr != nil && cerr != errNullBubble {
					errs.recordError(cerr.Error(), p)
				}
				d.out <- ExecutionPatchResult{Data: completed, Path: p, Label: label, Errors: errs.snapshot(), HasNext: true}
			}(itemPath, val)
			idx++
		}
	}()
}

// subsequent returns the channel response.go exposes as IncrementalResult's
// Subsequent field: every scheduled patch, in completion order, followed by
// exactly one terminal {hasNext:false}.
func (d *dispatcher) subsequent() <-chan ExecutionPatchResult {
	final := make(chan ExecutionPatchResult)
	go func() {
		d.wg.Wait()
		close(d.out)
	}()
	go func() {
		defer close(final)
		for pr := range d.out {
			d.publishPatch(pr)
			final <- pr
		}
		term := ExecutionPatchResult{HasNext: false}
		d.publishPatch(term)
		final <- term
	}()
	return final
}

// publishPatch emits an IncrementalPatch event for one delivered payload, so
// tracing sees a span per defer/stream patch alongside the operation span.
func (d *dispatcher) publishPatch(pr ExecutionPatchResult) {
	errs := make([]error, len(pr.Errors))
	for i := range pr.Errors {
		errs[i] = pr.Errors[i]
	}
	eventbus.Publish(d.ec.ctx, events.IncrementalPatch{
		Label:   pr.Label,
		Path:    pr.Path.String(),
		HasNext: pr.HasNext,
		Errors:  errs,
	})
}
