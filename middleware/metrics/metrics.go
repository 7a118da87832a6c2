// Package metrics provides a stage that records Prometheus metrics for every
// call: a counter of calls by outcome and a histogram of call durations. It
// never alters the request, the response or the error.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/stagekit/core/stage"
	"github.com/leofalp/stagekit/internal/utils"
)

// DefaultNamespace prefixes every metric name unless [WithNamespace] is used.
const DefaultNamespace = "stagekit"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Option configures a [Layer].
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithBuckets sets the duration histogram buckets, in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// Layer configures the metrics stage. Layers for different stage names that
// share a registerer and namespace share the same collectors.
type Layer struct {
	name     string
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewLayer registers the stage collectors on reg and returns a layer that
// labels its samples with name. A nil reg means prometheus.DefaultRegisterer.
// Collectors already registered with the same description are reused.
func NewLayer(reg prometheus.Registerer, name string, opts ...Option) (Layer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := options{namespace: DefaultNamespace, buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Subsystem: "stage",
		Name:      "calls_total",
		Help:      "The number of completed stage calls, by outcome.",
	}, []string{"stage", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Subsystem: "stage",
		Name:      "call_duration_seconds",
		Help:      "The number of seconds from call to resolution.",
		Buckets:   o.buckets,
	}, []string{"stage"})

	var err error
	if calls, err = register(reg, calls); err != nil {
		return Layer{}, err
	}
	if duration, err = register(reg, duration); err != nil {
		return Layer{}, err
	}
	return Layer{name: name, calls: calls, duration: duration}, nil
}

// register registers c on reg, returning the existing collector when an
// identical one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("error registering stage metrics: %w", err)
	}
	return c, nil
}

func (l Layer) observe(seconds float64, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	l.calls.WithLabelValues(l.name, outcome).Inc()
	l.duration.WithLabelValues(l.name).Observe(seconds)
}

// Service is the metrics stage wrapping an inner service.
type Service[Req, Resp any] struct {
	inner stage.Service[Req, Resp]
	layer Layer
}

// Wrap returns the metrics stage configured by layer around inner.
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

// Call forwards req and returns a future that records the outcome.
func (s *Service[Req, Resp]) Call(req Req) stage.Future[Resp] {
	return &future[Resp]{
		layer:     s.layer,
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

	_, err := p.Result()
	f.layer.observe(f.stopwatch.Stop().Seconds(), err)
	return p
}
