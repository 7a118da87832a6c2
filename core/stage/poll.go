package stage

// Poll is the outcome of one poll of a [Future]: either pending, or resolved
// with a value or an error.
type Poll[T any] struct {
	value T
	err   error
	ready bool
}

// Pending returns a poll result signalling that the future is still waiting.
func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

// Ready returns a poll result resolved with v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{value: v, ready: true}
}

// Failed returns a poll result resolved with err.
func Failed[T any](err error) Poll[T] {
	return Poll[T]{err: err, ready: true}
}

// Resolve returns Ready(v) when err is nil and Failed(err) otherwise.
func Resolve[T any](v T, err error) Poll[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ready(v)
}

// IsPending reports whether the future has not resolved yet.
func (p Poll[T]) IsPending() bool {
	return !p.ready
}

// Result returns the resolved value and error. For a pending poll both are
// zero.
func (p Poll[T]) Result() (T, error) {
	return p.value, p.err
}
