package stage

import "sync/atomic"

// Future is a single-resolution asynchronous computation driven by polling.
//
// Poll must not block. When it returns a pending result it must have arranged
// for w to be woken; when it returns a resolved result it must not be polled
// again.
type Future[T any] interface {
	Poll(w *Waker) Poll[T]
}

// FutureFunc adapts a poll function to the [Future] interface.
type FutureFunc[T any] func(w *Waker) Poll[T]

// Poll calls f(w).
func (f FutureFunc[T]) Poll(w *Waker) Poll[T] {
	return f(w)
}

// Done returns a future that resolves with v and err on its first poll.
func Done[T any](v T, err error) Future[T] {
	return &lazy[T]{fn: func() (T, error) { return v, err }}
}

// Lazy returns a future that runs fn synchronously on its first poll and
// resolves with its result. fn must not block.
func Lazy[T any](fn func() (T, error)) Future[T] {
	return &lazy[T]{fn: fn}
}

type lazy[T any] struct {
	fn func() (T, error)
}

func (l *lazy[T]) Poll(*Waker) Poll[T] {
	if l.fn == nil {
		return Failed[T](ErrPolledAfterCompletion)
	}
	fn := l.fn
	l.fn = nil
	v, err := fn()
	return Resolve(v, err)
}

// Spawn returns a future that runs fn on its own goroutine, starting on the
// first poll, and resolves with its result. Use it for blocking work such as
// file or network I/O.
//
// Abandoning the future after it started does not stop fn; its result is
// discarded. Abandoning it before the first poll means fn never runs.
func Spawn[T any](fn func() (T, error)) Future[T] {
	return &spawned[T]{fn: fn}
}

type spawnResult[T any] struct {
	value T
	err   error
}

type spawned[T any] struct {
	fn     func() (T, error)
	result chan spawnResult[T]
	waker  atomic.Pointer[Waker]
	done   bool
}

func (s *spawned[T]) Poll(w *Waker) Poll[T] {
	if s.done {
		return Failed[T](ErrPolledAfterCompletion)
	}

	// The latest waker wins; the goroutine loads it only after publishing its
	// result, so either this poll observes the result or the goroutine wakes w.
	s.waker.Store(w)

	if s.result == nil {
		s.result = make(chan spawnResult[T], 1)
		fn := s.fn
		s.fn = nil
		go func() {
			v, err := fn()
			s.result <- spawnResult[T]{value: v, err: err}
			s.waker.Load().Wake()
		}()
	}

	select {
	case r := <-s.result:
		s.done = true
		return Resolve(r.value, r.err)
	default:
		return Pending[T]()
	}
}
