// Package httptransport adapts an [http.RoundTripper] to the stage service
// contract, making it the innermost service of a stagekit pipeline.
//
// Each call performs one round trip on its own goroutine, started on the
// future's first poll and bound to the request's context. The response body
// is handed on as a streaming [message.Body] that reads on demand.
package httptransport

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
)

// Request and Response are the shapes the transport accepts and produces.
type (
	Request  = message.Request[[]byte]
	Response = message.Response[message.Body]
)

// Transport is the stage service backed by a round tripper. It is always
// ready; a Transport value may be cloned freely since the round tripper is
// shared and safe for concurrent use.
type Transport struct {
	rt     http.RoundTripper
	logger *slog.Logger
}

// Option configures a [Transport].
type Option func(*Transport)

// WithTracing wraps the round tripper with OpenTelemetry HTTP client
// instrumentation, using the global tracer and meter providers.
func WithTracing(opts ...otelhttp.Option) Option {
	return func(t *Transport) {
		t.rt = otelhttp.NewTransport(t.rt, opts...)
	}
}

// WithLogger sets the logger used for transport diagnostics. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New returns a transport using rt, or http.DefaultTransport when rt is nil.
func New(rt http.RoundTripper, opts ...Option) *Transport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	t := &Transport{rt: rt, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PollReady always resolves ready; connection limits are the round tripper's
// concern.
func (t *Transport) PollReady(*stage.Waker) stage.Poll[struct{}] {
	return stage.Ready(struct{}{})
}

// Call returns a future performing the round trip for req.
func (t *Transport) Call(req Request) stage.Future[Response] {
	rt, logger := t.rt, t.logger
	return stage.Spawn(func() (Response, error) {
		return roundTrip(rt, logger, req)
	})
}

// Clone returns a copy sharing the round tripper.
func (t *Transport) Clone() stage.Service[Request, Response] {
	c := *t
	return &c
}

func roundTrip(rt http.RoundTripper, logger *slog.Logger, req Request) (Response, error) {
	httpReq, err := toHTTP(req)
	if err != nil {
		return Response{}, err
	}

	res, err := rt.RoundTrip(httpReq)
	if err != nil {
		logger.DebugContext(httpReq.Context(), "round trip failed",
			slog.String("method", httpReq.Method),
			slog.String("error", err.Error()),
		)
		return Response{}, fmt.Errorf("error sending request: %w", err)
	}

	return message.ResponseFromParts(
		message.ResponseParts{StatusCode: res.StatusCode, Header: res.Header},
		message.FromReader(res.Body),
	), nil
}

func toHTTP(req Request) (*http.Request, error) {
	if req.URL == nil {
		return nil, fmt.Errorf("error creating request: missing URL")
	}

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}
	// net/http takes the length from the request, not from the header map.
	httpReq.Header.Del("Content-Length")

	return httpReq, nil
}
