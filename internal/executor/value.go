package executor

// Value is either a ready result or a pending future of one. Every combinator
// below inspects the tag before doing anything else: if no input Value is
// pending, the combinator never allocates a goroutine or a channel. This is
// the sync fast path the spec requires — preserving it is the entire point of
// this type existing instead of always wrapping results in a channel.
type Value struct {
	ready   bool
	value   any
	err     error
	pending <-chan settled
}

// settled is what a pending Value's channel carries exactly once.
type settled struct {
	value any
	err   error
}

// Ready constructs an already-resolved Value.
func Ready(v any, err error) Value {
	return Value{ready: true, value: v, err: err}
}

// pendingValue constructs a Value backed by a single-send channel.
func pendingValue(ch <-chan settled) Value {
	return Value{ready: false, pending: ch}
}

// Async runs fn in a new goroutine and returns a Value that settles with its
// result. Use this at the one place a Runtime (or the executor itself) needs
// to turn genuine concurrent work into a Value.
func Async(fn func() (any, error)) Value {
	ch := make(chan settled, 1)
	go func() {
		v, err := fn()
		ch <- settled{value: v, err: err}
	}()
	return pendingValue(ch)
}

// IsPending reports whether v has not yet settled.
func (v Value) IsPending() bool { return !v.ready }

// Await blocks until v settles and returns its value/error. Calling Await on
// an already-ready Value returns immediately without touching a channel.
func (v Value) Await() (any, error) {
	if v.ready {
		return v.value, v.err
	}
	s := <-v.pending
	return s.value, s.err
}

// MapValue applies f to v's eventual result. If v is ready, f runs inline and
// MapValue returns a ready Value with no scheduling at all.
func MapValue(v Value, f func(any, error) (any, error)) Value {
	if v.ready {
		rv, rerr := f(v.value, v.err)
		return Ready(rv, rerr)
	}
	ch := make(chan settled, 1)
	go func() {
		s := <-v.pending
		rv, rerr := f(s.value, s.err)
		ch <- settled{value: rv, err: rerr}
	}()
	return pendingValue(ch)
}

// BindValue chains v through f, which itself returns a Value — the
// GraphQL-completion equivalent of a monadic bind. Unlike MapValue, f's
// result is returned as-is rather than awaited, so a ready v whose f
// produces a pending Value never blocks the caller: the pending Value is
// simply handed back. The combination is only pending if v is pending, or if
// v is ready but f's result is pending; it is never more blocking than that.
func BindValue(v Value, f func(any, error) Value) Value {
	if v.ready {
		return f(v.value, v.err)
	}
	ch := make(chan settled, 1)
	go func() {
		s := <-v.pending
		inner := f(s.value, s.err)
		iv, ierr := inner.Await()
		ch <- settled{value: iv, err: ierr}
	}()
	return pendingValue(ch)
}

// AllValues combines an ordered slice of Values into a Value of []any,
// preserving index order regardless of settle order. If every input is
// already ready, the combination happens synchronously with no goroutine.
func AllValues(vs []Value) Value {
	anyPending := false
	for _, v := range vs {
		if v.IsPending() {
			anyPending = true
			break
		}
	}
	if !anyPending {
		out := make([]any, len(vs))
		for i, v := range vs {
			if v.err != nil {
				return Ready(nil, v.err)
			}
			out[i] = v.value
		}
		return Ready(out, nil)
	}

	ch := make(chan settled, 1)
	go func() {
		out := make([]any, len(vs))
		for i, v := range vs {
			val, err := v.Await()
			if err != nil {
				ch <- settled{err: err}
				return
			}
			out[i] = val
		}
		ch <- settled{value: out}
	}()
	return pendingValue(ch)
}

// keyedValue pairs a response name with its Value, preserving the collection
// (first-appearance) order MapObjectValues must respect in its output.
type keyedValue struct {
	key   string
	value Value
}

// objectResult is the ready payload of MapObjectValues: field values keyed by
// response name, with Order recording first-appearance order for callers that
// need to render keys in that order (e.g. JSON encoding via a library that
// respects map iteration would not; ordered consumers should use Order).
type objectResult struct {
	Values map[string]any
	Order  []string
}

// MapObjectValues combines keyed Values into a Value of *objectResult. Order
// is the response-key order the caller provided in kvs, independent of settle
// order. Purely-ready input short-circuits to a synchronous Ready Value.
func MapObjectValues(kvs []keyedValue) Value {
	anyPending := false
	for _, kv := range kvs {
		if kv.value.IsPending() {
			anyPending = true
			break
		}
	}

	order := make([]string, len(kvs))
	for i, kv := range kvs {
		order[i] = kv.key
	}

	if !anyPending {
		out := make(map[string]any, len(kvs))
		for _, kv := range kvs {
			if kv.value.err != nil {
				return Ready(nil, kv.value.err)
			}
			out[kv.key] = kv.value.value
		}
		return Ready(&objectResult{Values: out, Order: order}, nil)
	}

	ch := make(chan settled, 1)
	go func() {
		out := make(map[string]any, len(kvs))
		for _, kv := range kvs {
			val, err := kv.value.Await()
			if err != nil {
				ch <- settled{err: err}
				return
			}
			out[kv.key] = val
		}
		ch <- settled{value: &objectResult{Values: out, Order: order}}
	}()
	return pendingValue(ch)
}
