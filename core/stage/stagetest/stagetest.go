// Package stagetest provides test doubles for code built on package stage:
// a recording inner service and futures that suspend a fixed number of times
// before resolving.
package stagetest

import (
	"sync"
	"sync/atomic"

	"github.com/leofalp/stagekit/core/stage"
)

// Yield returns a future that is pending for the first n polls, waking its
// waker each time, and then resolves with v and err.
func Yield[T any](n int, v T, err error) stage.Future[T] {
	remaining := n
	done := false
	return stage.FutureFunc[T](func(w *stage.Waker) stage.Poll[T] {
		if done {
			return stage.Failed[T](stage.ErrPolledAfterCompletion)
		}
		if remaining > 0 {
			remaining--
			w.Wake()
			return stage.Pending[T]()
		}
		done = true
		return stage.Resolve(v, err)
	})
}

// Handler computes the response for one call to a [Service].
type Handler[Req, Resp any] func(req Req) (Resp, error)

// Service is a recording inner service. Clones share the recorded calls, so a
// test can hold the original while the stage under test works on clones.
type Service[Req, Resp any] struct {
	handler Handler[Req, Resp]
	shared  *shared[Req]

	// Delay is the number of pending polls each call future yields before
	// resolving.
	Delay int
	// ReadyErr, when set, makes PollReady fail with it.
	ReadyErr error
}

type shared[Req any] struct {
	mu       sync.Mutex
	requests []Req
	calls    atomic.Int64
	clones   atomic.Int64
}

// NewService returns a Service that answers every call with handler.
func NewService[Req, Resp any](handler Handler[Req, Resp]) *Service[Req, Resp] {
	return &Service[Req, Resp]{handler: handler, shared: &shared[Req]{}}
}

// PollReady resolves ready, or fails with ReadyErr when set.
func (s *Service[Req, Resp]) PollReady(*stage.Waker) stage.Poll[struct{}] {
	return stage.Resolve(struct{}{}, s.ReadyErr)
}

// Call records req and returns a future that yields Delay times before
// resolving with the handler's result. The handler runs when the future
// resolves, not at call time.
func (s *Service[Req, Resp]) Call(req Req) stage.Future[Resp] {
	s.shared.calls.Add(1)
	s.shared.mu.Lock()
	s.shared.requests = append(s.shared.requests, req)
	s.shared.mu.Unlock()

	remaining := s.Delay
	var fut stage.Future[Resp]
	return stage.FutureFunc[Resp](func(w *stage.Waker) stage.Poll[Resp] {
		if remaining > 0 {
			remaining--
			w.Wake()
			return stage.Pending[Resp]()
		}
		if fut == nil {
			resp, err := s.handler(req)
			fut = stage.Done(resp, err)
		}
		return fut.Poll(w)
	})
}

// Clone returns a copy sharing the recorded calls.
func (s *Service[Req, Resp]) Clone() stage.Service[Req, Resp] {
	s.shared.clones.Add(1)
	c := *s
	return &c
}

// Calls reports how many times Call ran across all clones.
func (s *Service[Req, Resp]) Calls() int {
	return int(s.shared.calls.Load())
}

// Clones reports how many times Clone ran across all clones.
func (s *Service[Req, Resp]) Clones() int {
	return int(s.shared.clones.Load())
}

// Requests returns the requests received so far, in call order.
func (s *Service[Req, Resp]) Requests() []Req {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	return append([]Req(nil), s.shared.requests...)
}
