package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/stagekit/core/message"
	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/middleware/bearer"
	"github.com/leofalp/stagekit/middleware/jsonbody"
	"github.com/leofalp/stagekit/middleware/logging"
	"github.com/leofalp/stagekit/middleware/metrics"
	"github.com/leofalp/stagekit/transport/httptransport"
)

type (
	wireRequest  = message.Request[[]byte]
	wireResponse = message.Response[message.Body]
)

// Client sends JSON requests and decodes JSON responses of type Resp. It is
// safe for concurrent use: every call runs on its own clone of the pipeline.
type Client[Resp any] struct {
	mu  sync.Mutex
	svc stage.Service[wireRequest, message.Response[Resp]]
}

// Option configures a [Client].
type Option func(*config)

type config struct {
	credential *bearer.Layer
	logger     *slog.Logger
	logLevel   logging.Level
	registerer prometheus.Registerer
	transport  []httptransport.Option
	decode     []jsonbody.Option
}

// WithCredential attaches a bearer token from layer to every request.
func WithCredential(layer bearer.Layer) Option {
	return func(c *config) {
		c.credential = &layer
	}
}

// WithLogger enables the logging stage with logger at level.
func WithLogger(logger *slog.Logger, level logging.Level) Option {
	return func(c *config) {
		c.logger = logger
		c.logLevel = level
	}
}

// WithMetrics enables the metrics stage, registering its collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithRepair lets the decoder repair syntactically broken documents; see
// [jsonbody.WithRepair].
func WithRepair() Option {
	return func(c *config) {
		c.decode = append(c.decode, jsonbody.WithRepair())
	}
}

// WithLimit caps response bodies at n bytes; see [jsonbody.WithLimit].
func WithLimit(n int64) Option {
	return func(c *config) {
		c.decode = append(c.decode, jsonbody.WithLimit(n))
	}
}

// WithTransportOptions passes opts to the HTTP transport, for example
// [httptransport.WithTracing].
func WithTransportOptions(opts ...httptransport.Option) Option {
	return func(c *config) {
		c.transport = append(c.transport, opts...)
	}
}

// New assembles a client over rt, or http.DefaultTransport when rt is nil.
func New[Resp any](rt http.RoundTripper, opts ...Option) (*Client[Resp], error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var svc stage.Service[wireRequest, wireResponse] = httptransport.New(rt, cfg.transport...)

	if cfg.credential != nil {
		svc = bearer.Wrap[[]byte, wireResponse](*cfg.credential, svc)
	}
	if cfg.logger != nil {
		svc = logging.Wrap(logging.NewLayer(cfg.logger, cfg.logLevel, "http"), svc)
	}
	if cfg.registerer != nil {
		layer, err := metrics.NewLayer(cfg.registerer, "client")
		if err != nil {
			return nil, fmt.Errorf("error creating client: %w", err)
		}
		svc = metrics.Wrap(layer, svc)
	}

	return &Client[Resp]{
		svc: jsonbody.Wrap[wireRequest, Resp](jsonbody.NewLayer[Resp](cfg.decode...), svc),
	}, nil
}

// Do sends req and decodes the response body into Resp. A non-nil body is
// encoded as JSON; a nil body sends no content. The response is decoded
// whatever its status code, so callers check StatusCode themselves.
//
// Errors from the stages are returned unwrapped, so callers can match them
// with errors.Is against the sentinels of packages bearer and jsonbody.
// Collection failures surface as jsonbody.ErrBody or jsonbody.ErrService with
// the underlying cause, such as message.ErrBodyTooLarge, kept in the chain.
func (c *Client[Resp]) Do(ctx context.Context, req message.Request[any]) (message.Response[Resp], error) {
	encoded, err := encode(req)
	if err != nil {
		return message.Response[Resp]{}, err
	}
	encoded = encoded.WithContext(ctx)

	c.mu.Lock()
	svc := c.svc.Clone()
	c.mu.Unlock()

	return stage.Oneshot(ctx, svc, encoded)
}

func encode(req message.Request[any]) (wireRequest, error) {
	if req.Body == nil {
		parts, _ := req.IntoParts()
		return message.RequestFromParts[[]byte](parts, nil), nil
	}
	encoded, err := jsonbody.ToRequest(req)
	if err != nil {
		return wireRequest{}, fmt.Errorf("error encoding request: %w", err)
	}
	return encoded, nil
}
