package message

import (
	"log/slog"
	"net/http"
)

// ResponseParts is the metadata section of a response.
type ResponseParts struct {
	StatusCode int
	Header     http.Header
}

// Headers returns the response header.
func (p ResponseParts) Headers() http.Header {
	return p.Header
}

// LogValue implements slog.LogValuer.
func (p ResponseParts) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("status", p.StatusCode))
}

// Response is a response whose body has type B.
type Response[B any] struct {
	ResponseParts
	Body B
}

// IntoParts splits r into its metadata and body.
func (r Response[B]) IntoParts() (ResponseParts, B) {
	return r.ResponseParts, r.Body
}

// ResponseFromParts joins metadata and a body into a response.
func ResponseFromParts[B any](parts ResponseParts, body B) Response[B] {
	return Response[B]{ResponseParts: parts, Body: body}
}
