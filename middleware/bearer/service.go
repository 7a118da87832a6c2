package bearer

import (
	"net/http"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
)

// Service is the bearer stage wrapping an inner service.
type Service[B, Resp any] struct {
	inner stage.Service[message.Request[B], Resp]
	layer Layer
}

// Wrap returns the bearer stage configured by layer around inner.
func Wrap[B, Resp any](layer Layer, inner stage.Service[message.Request[B], Resp]) *Service[B, Resp] {
	return &Service[B, Resp]{inner: inner, layer: layer}
}

// Stage returns layer as a [stage.Layer] for composition.
func Stage[B, Resp any](layer Layer) stage.LayerFunc[message.Request[B], Resp, message.Request[B], Resp] {
	return func(inner stage.Service[message.Request[B], Resp]) stage.Service[message.Request[B], Resp] {
		return Wrap(layer, inner)
	}
}

// PollReady reports the inner service's readiness. Inner failures are
// wrapped as [KindService].
func (s *Service[B, Resp]) PollReady(w *stage.Waker) stage.Poll[struct{}] {
	p := s.inner.PollReady(w)
	if _, err := p.Result(); err != nil {
		return stage.Failed[struct{}](&Error{Kind: KindService, Err: err})
	}
	return p
}

// Call starts fetching the token for req. The ready inner instance moves into
// the returned future and a fresh clone takes its place, so s stays usable
// while the fetch is in flight.
func (s *Service[B, Resp]) Call(req message.Request[B]) stage.Future[Resp] {
	inner := s.inner
	s.inner = inner.Clone()
	return &future[B, Resp]{
		state:   stateFetchingCredential,
		fetch:   s.layer.fetch(),
		inner:   inner,
		request: &req,
	}
}

// Clone returns an independent copy with its own inner clone.
func (s *Service[B, Resp]) Clone() stage.Service[message.Request[B], Resp] {
	return &Service[B, Resp]{inner: s.inner.Clone(), layer: s.layer}
}

type state uint8

const (
	stateFetchingCredential state = iota
	stateForwarding
	stateDone
)

type future[B, Resp any] struct {
	state state

	// stateFetchingCredential
	fetch   stage.Future[string]
	inner   stage.Service[message.Request[B], Resp]
	request *message.Request[B]

	// stateForwarding
	call stage.Future[Resp]
}

func (f *future[B, Resp]) Poll(w *stage.Waker) stage.Poll[Resp] {
	for {
		switch f.state {
		case stateFetchingCredential:
			p := f.fetch.Poll(w)
			if p.IsPending() {
				return stage.Pending[Resp]()
			}
			value, err := p.Result()
			if err != nil {
				f.finish()
				return stage.Failed[Resp](err)
			}

			req, inner := f.request, f.inner
			f.request, f.inner, f.fetch = nil, nil, nil
			// The caller may still hold the header map; decorate a copy.
			header := req.Header.Clone()
			if header == nil {
				header = make(http.Header)
			}
			header.Set("Authorization", value)
			req.Header = header

			f.call = inner.Call(*req)
			f.state = stateForwarding

		case stateForwarding:
			p := f.call.Poll(w)
			if p.IsPending() {
				return stage.Pending[Resp]()
			}
			f.finish()
			resp, err := p.Result()
			if err != nil {
				return stage.Failed[Resp](&Error{Kind: KindService, Err: err})
			}
			return stage.Ready(resp)

		default:
			return stage.Failed[Resp](stage.ErrPolledAfterCompletion)
		}
	}
}

func (f *future[B, Resp]) finish() {
	f.state = stateDone
	f.fetch, f.inner, f.request, f.call = nil, nil, nil, nil
}
