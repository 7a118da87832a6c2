package jsonbody

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leofalp/stagekit/core/message"
)

// ContentType is the media type set by [ToRequest].
const ContentType = "application/json"

// ToRequest serializes the body of req as JSON. Content-Length and
// Content-Type are set only when req does not carry them already. The
// caller's header map is not modified.
func ToRequest[T any](req message.Request[T]) (message.Request[[]byte], error) {
	parts, body := req.IntoParts()

	data, err := json.Marshal(body)
	if err != nil {
		return message.Request[[]byte]{}, &Error{Kind: KindSerialize, Err: err}
	}

	header := parts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if len(header.Values("Content-Length")) == 0 {
		header.Set("Content-Length", strconv.Itoa(len(data)))
	}
	if len(header.Values("Content-Type")) == 0 {
		header.Set("Content-Type", ContentType)
	}
	parts.Header = header

	return message.RequestFromParts(parts, data), nil
}
