// Package collect provides a stage that forwards requests unchanged and
// replaces the streamed body of each response with one contiguous buffer,
// keeping the status and headers as they were.
package collect

import (
	"errors"
	"fmt"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
)

// Kind tells where a collect stage failure originated.
type Kind int

const (
	// KindService means the inner service failed.
	KindService Kind = iota
	// KindBody means draining the response body failed.
	KindBody
)

// Sentinels matched by errors.Is against an [*Error] of the same kind.
var (
	ErrService = errors.New("collect: inner service failed")
	ErrBody    = errors.New("collect: body drain failed")
)

// Error is the error returned by the collect stage.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	if e.Kind == KindBody {
		return ErrBody
	}
	return ErrService
}

// Layer configures the collect stage.
type Layer struct {
	limit int64
}

// Option configures a [Layer].
type Option func(*Layer)

// WithLimit caps the aggregated body at n bytes. Larger bodies fail with a
// [KindBody] error wrapping [message.ErrBodyTooLarge]. Zero means no limit.
func WithLimit(n int64) Option {
	return func(l *Layer) {
		l.limit = n
	}
}

// NewLayer returns a collect layer.
func NewLayer(opts ...Option) Layer {
	var l Layer
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// Service is the collect stage wrapping an inner service.
type Service[Req any] struct {
	inner stage.Service[Req, message.Response[message.Body]]
	limit int64
}

// Wrap returns the collect stage configured by layer around inner.
func Wrap[Req any](layer Layer, inner stage.Service[Req, message.Response[message.Body]]) *Service[Req] {
	return &Service[Req]{inner: inner, limit: layer.limit}
}

// Stage returns layer as a [stage.Layer] for composition.
func Stage[Req any](layer Layer) stage.LayerFunc[Req, message.Response[message.Body], Req, message.Response[[]byte]] {
	return func(inner stage.Service[Req, message.Response[message.Body]]) stage.Service[Req, message.Response[[]byte]] {
		return Wrap(layer, inner)
	}
}

// PollReady reports the inner service's readiness.
func (s *Service[Req]) PollReady(w *stage.Waker) stage.Poll[struct{}] {
	p := s.inner.PollReady(w)
	if _, err := p.Result(); err != nil {
		return stage.Failed[struct{}](&Error{Kind: KindService, Err: err})
	}
	return p
}

// Call forwards req to the inner service.
func (s *Service[Req]) Call(req Req) stage.Future[message.Response[[]byte]] {
	return &Future{
		state:    stateAwaitingResponse,
		response: s.inner.Call(req),
		limit:    s.limit,
	}
}

// Clone returns an independent copy with its own inner clone.
func (s *Service[Req]) Clone() stage.Service[Req, message.Response[[]byte]] {
	return &Service[Req]{inner: s.inner.Clone(), limit: s.limit}
}

type state uint8

const (
	stateAwaitingResponse state = iota
	stateAwaitingBody
	stateDone
)

// Future is the per-call state machine of the collect stage. It first awaits
// the inner response, then drains its body.
type Future struct {
	state state
	limit int64

	// stateAwaitingResponse
	response stage.Future[message.Response[message.Body]]

	// stateAwaitingBody
	body  stage.Future[[]byte]
	parts message.ResponseParts
}

// Poll advances the call.
func (f *Future) Poll(w *stage.Waker) stage.Poll[message.Response[[]byte]] {
	for {
		switch f.state {
		case stateAwaitingResponse:
			p := f.response.Poll(w)
			if p.IsPending() {
				return stage.Pending[message.Response[[]byte]]()
			}
			resp, err := p.Result()
			f.response = nil
			if err != nil {
				f.state = stateDone
				return stage.Failed[message.Response[[]byte]](&Error{Kind: KindService, Err: err})
			}

			parts, body := resp.IntoParts()
			if body == nil {
				body = message.Empty()
			}
			f.parts = parts
			f.body = message.Collect(body, f.limit)
			f.state = stateAwaitingBody

		case stateAwaitingBody:
			p := f.body.Poll(w)
			if p.IsPending() {
				return stage.Pending[message.Response[[]byte]]()
			}
			f.state = stateDone
			f.body = nil
			buf, err := p.Result()
			if err != nil {
				return stage.Failed[message.Response[[]byte]](&Error{Kind: KindBody, Err: err})
			}
			parts := f.parts
			f.parts = message.ResponseParts{}
			return stage.Ready(message.ResponseFromParts(parts, buf))

		default:
			return stage.Failed[message.Response[[]byte]](stage.ErrPolledAfterCompletion)
		}
	}
}
