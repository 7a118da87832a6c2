package message

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// RequestParts is the metadata section of a request.
type RequestParts struct {
	Method string
	URL    *url.URL
	Header http.Header

	ctx context.Context
}

// Context returns the request's context, or context.Background when none was
// set.
func (p RequestParts) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// Headers returns the request header.
func (p RequestParts) Headers() http.Header {
	return p.Header
}

// LogValue implements slog.LogValuer. The URL is logged without user
// information or query string.
func (p RequestParts) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("method", p.Method)}
	if p.URL != nil {
		u := *p.URL
		u.User = nil
		u.RawQuery = ""
		attrs = append(attrs, slog.String("url", u.String()))
	}
	return slog.GroupValue(attrs...)
}

// Request is a request whose body has type B.
type Request[B any] struct {
	RequestParts
	Body B
}

// NewRequest builds a request with an empty header. An empty method means GET.
func NewRequest[B any](ctx context.Context, method, rawURL string, body B) (Request[B], error) {
	if method == "" {
		method = http.MethodGet
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Request[B]{}, fmt.Errorf("error parsing request URL: %w", err)
	}
	return Request[B]{
		RequestParts: RequestParts{Method: method, URL: u, Header: make(http.Header), ctx: ctx},
		Body:         body,
	}, nil
}

// WithContext returns a shallow copy of r carrying ctx.
func (r Request[B]) WithContext(ctx context.Context) Request[B] {
	r.ctx = ctx
	return r
}

// IntoParts splits r into its metadata and body.
func (r Request[B]) IntoParts() (RequestParts, B) {
	return r.RequestParts, r.Body
}

// RequestFromParts joins metadata and a body into a request.
func RequestFromParts[B any](parts RequestParts, body B) Request[B] {
	return Request[B]{RequestParts: parts, Body: body}
}
