// Package logging provides a stage that emits structured slog entries before
// and after every call, with three verbosity levels. It never alters the
// request, the response or the error.
package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/internal/utils"
)

// Level controls how much detail is logged per call.
type Level int

const (
	// LevelMinimal logs the stage name, the duration and any error.
	LevelMinimal Level = iota

	// LevelStandard adds the request and response summaries (method, URL
	// without query, status). This is the recommended default.
	LevelStandard

	// LevelVerbose adds request and response headers, with credentials
	// redacted.
	//
	// WARNING: headers can still carry sensitive data such as session ids in
	// custom headers. Intended for local debugging.
	LevelVerbose
)

// headerCarrier is implemented by message.Request and message.Response.
type headerCarrier interface {
	Headers() http.Header
}

// Layer configures the logging stage.
type Layer struct {
	logger *slog.Logger
	level  Level
	name   string
}

// NewLayer returns a logging layer. name identifies the stage in log entries;
// a nil logger means slog.Default().
func NewLayer(logger *slog.Logger, level Level, name string) Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return Layer{logger: logger, level: level, name: name}
}

// Service is the logging stage wrapping an inner service.
type Service[Req, Resp any] struct {
	inner stage.Service[Req, Resp]
	layer Layer
}

// Wrap returns the logging stage configured by layer around inner.
func Wrap[Req, Resp any](layer Layer, inner stage.Service[Req, Resp]) *Service[Req, Resp] {
	return &Service[Req, Resp]{inner: inner, layer: layer}
}

// Stage returns layer as a [stage.Layer] for composition.
func Stage[Req, Resp any](layer Layer) stage.LayerFunc[Req, Resp, Req, Resp] {
	return func(inner stage.Service[Req, Resp]) stage.Service[Req, Resp] {
		return Wrap(layer, inner)
	}
}

// PollReady reports the inner service's readiness unchanged.
func (s *Service[Req, Resp]) PollReady(w *stage.Waker) stage.Poll[struct{}] {
	return s.inner.PollReady(w)
}

// Call logs the outgoing request and returns a future that logs the outcome.
func (s *Service[Req, Resp]) Call(req Req) stage.Future[Resp] {
	ctx := contextOf(req)
	s.layer.logger.InfoContext(ctx, "stage call", s.layer.requestAttrs(req)...)

	return &future[Resp]{
		layer:     s.layer,
		ctx:       ctx,
		call:      s.inner.Call(req),
		stopwatch: utils.StartStopwatch(),
	}
}

// Clone returns an independent copy with its own inner clone.
func (s *Service[Req, Resp]) Clone() stage.Service[Req, Resp] {
	return &Service[Req, Resp]{inner: s.inner.Clone(), layer: s.layer}
}

type future[Resp any] struct {
	layer     Layer
	ctx       context.Context
	call      stage.Future[Resp]
	stopwatch *utils.Stopwatch
}

func (f *future[Resp]) Poll(w *stage.Waker) stage.Poll[Resp] {
	if f.call == nil {
		return stage.Failed[Resp](stage.ErrPolledAfterCompletion)
	}

	p := f.call.Poll(w)
	if p.IsPending() {
		return p
	}
	f.call = nil
	elapsed := f.stopwatch.Stop()

	resp, err := p.Result()
	if err != nil {
		f.layer.logger.ErrorContext(f.ctx, "stage call failed",
			slog.String("stage", f.layer.name),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return p
	}

	f.layer.logger.InfoContext(f.ctx, "stage call completed", f.layer.responseAttrs(resp, elapsed)...)
	return p
}

func (l Layer) requestAttrs(req any) []any {
	attrs := []any{slog.String("stage", l.name)}
	if l.level >= LevelStandard {
		if valuer, ok := req.(slog.LogValuer); ok {
			attrs = append(attrs, slog.Any("request", valuer))
		}
	}
	if l.level >= LevelVerbose {
		if carrier, ok := req.(headerCarrier); ok {
			attrs = append(attrs, slog.Any("request_header", utils.RedactHeader(carrier.Headers())))
		}
	}
	return attrs
}

func (l Layer) responseAttrs(resp any, elapsed time.Duration) []any {
	attrs := []any{
		slog.String("stage", l.name),
		slog.Duration("duration", elapsed),
	}
	if l.level >= LevelStandard {
		if valuer, ok := resp.(slog.LogValuer); ok {
			attrs = append(attrs, slog.Any("response", valuer))
		}
	}
	if l.level >= LevelVerbose {
		if carrier, ok := resp.(headerCarrier); ok {
			attrs = append(attrs, slog.Any("response_header", utils.RedactHeader(carrier.Headers())))
		}
	}
	return attrs
}

// contextOf returns the request's context when it carries one.
func contextOf(req any) context.Context {
	if carrier, ok := req.(interface{ Context() context.Context }); ok {
		return carrier.Context()
	}
	return context.Background()
}
