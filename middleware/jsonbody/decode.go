package jsonbody

import (
	"encoding/json"
	"errors"

	"github.com/kaptinlin/jsonrepair"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/middleware/collect"
)

// Layer configures a decoding stage whose responses carry a T.
type Layer[T any] struct {
	collect collect.Layer
	repair  bool
}

// Option configures a [Layer].
type Option func(*options)

type options struct {
	collect []collect.Option
	repair  bool
}

// WithLimit caps the aggregated body at n bytes; see [collect.WithLimit].
func WithLimit(n int64) Option {
	return func(o *options) {
		o.collect = append(o.collect, collect.WithLimit(n))
	}
}

// WithRepair lets the decoder retry a syntactically broken document once
// after running it through jsonrepair (unquoted keys, single quotes, trailing
// commas, truncated input). Documents that are valid JSON but do not match T
// still fail.
func WithRepair() Option {
	return func(o *options) {
		o.repair = true
	}
}

// NewLayer returns a decoding layer for T.
func NewLayer[T any](opts ...Option) Layer[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return Layer[T]{collect: collect.NewLayer(o.collect...), repair: o.repair}
}

// Service is the decoding stage. Its inner service is a collect stage, so
// the value it parses is always a complete buffer.
type Service[Req, T any] struct {
	inner  stage.Service[Req, message.Response[[]byte]]
	repair bool
}

// Wrap returns the decoding stage configured by layer around inner. The
// collect stage in between is built from the layer's collect configuration.
func Wrap[Req, T any](layer Layer[T], inner stage.Service[Req, message.Response[message.Body]]) *Service[Req, T] {
	return &Service[Req, T]{
		inner:  collect.Stage[Req](layer.collect).Layer(inner),
		repair: layer.repair,
	}
}

// Stage returns layer as a [stage.Layer] for composition.
func Stage[Req, T any](layer Layer[T]) stage.LayerFunc[Req, message.Response[message.Body], Req, message.Response[T]] {
	return func(inner stage.Service[Req, message.Response[message.Body]]) stage.Service[Req, message.Response[T]] {
		return Wrap(layer, inner)
	}
}

// PollReady reports the inner service's readiness.
func (s *Service[Req, T]) PollReady(w *stage.Waker) stage.Poll[struct{}] {
	p := s.inner.PollReady(w)
	if _, err := p.Result(); err != nil {
		return stage.Failed[struct{}](fromCollect(err))
	}
	return p
}

// Call forwards req through the collect stage.
func (s *Service[Req, T]) Call(req Req) stage.Future[message.Response[T]] {
	return &future[T]{
		state:     stateCollecting,
		collected: s.inner.Call(req),
		repair:    s.repair,
	}
}

// Clone returns an independent copy with its own inner clone.
func (s *Service[Req, T]) Clone() stage.Service[Req, message.Response[T]] {
	return &Service[Req, T]{inner: s.inner.Clone(), repair: s.repair}
}

type state uint8

const (
	stateCollecting state = iota
	stateDone
)

type future[T any] struct {
	state     state
	collected stage.Future[message.Response[[]byte]]
	repair    bool
}

func (f *future[T]) Poll(w *stage.Waker) stage.Poll[message.Response[T]] {
	if f.state != stateCollecting {
		return stage.Failed[message.Response[T]](stage.ErrPolledAfterCompletion)
	}

	p := f.collected.Poll(w)
	if p.IsPending() {
		return stage.Pending[message.Response[T]]()
	}
	f.state = stateDone
	f.collected = nil

	resp, err := p.Result()
	if err != nil {
		return stage.Failed[message.Response[T]](fromCollect(err))
	}

	parts, buf := resp.IntoParts()
	value, err := decode[T](buf, f.repair)
	if err != nil {
		return stage.Failed[message.Response[T]](&Error{Kind: KindMalformedDocument, Err: err})
	}
	return stage.Ready(message.ResponseFromParts(parts, value))
}

// decode parses buf as a T. With repair enabled, a syntax error triggers one
// retry on the repaired document; the original diagnostic is reported if the
// retry fails too.
func decode[T any](buf []byte, repair bool) (T, error) {
	var value T
	err := json.Unmarshal(buf, &value)
	if err == nil || !repair {
		return value, err
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return value, err
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(buf))
	if repairErr != nil {
		return value, err
	}
	var retried T
	if json.Unmarshal([]byte(repaired), &retried) != nil {
		return value, err
	}
	return retried, nil
}

// fromCollect retags a collect stage error with the matching jsonbody kind,
// keeping the original cause.
func fromCollect(err error) error {
	var collectErr *collect.Error
	if !errors.As(err, &collectErr) {
		return &Error{Kind: KindService, Err: err}
	}
	if collectErr.Kind == collect.KindBody {
		return &Error{Kind: KindBody, Err: collectErr.Err}
	}
	return &Error{Kind: KindService, Err: collectErr.Err}
}
