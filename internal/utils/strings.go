package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultMaxStringLength is the preview length used when a caller passes a
// non-positive limit to [TruncateString].
const DefaultMaxStringLength = 500

// redacted replaces the value of sensitive headers in log output.
const redacted = "[REDACTED]"

// sensitiveHeaders are masked by [RedactHeader] in addition to any names the
// caller passes.
var sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie"}

// TruncateString shortens s to at most maxLen bytes, appending a suffix that
// records the original total length so readers know data was omitted. A
// non-positive maxLen means [DefaultMaxStringLength].
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// JSONToString serializes v as JSON, indented with two spaces when indent is
// true. On failure it returns a JSON-formatted error string rather than an
// error, so the result is always safe to print.
func JSONToString(v any, indent bool) string {
	var encoded []byte
	var err error
	if indent {
		encoded, err = json.MarshalIndent(v, "", "  ")
	} else {
		encoded, err = json.Marshal(v)
	}
	if err != nil {
		return "{\"error\": \"failed to marshal to JSON: " + err.Error() + "\"}"
	}
	return string(encoded)
}

// RedactHeader returns a copy of h with credential-bearing headers, and any
// extra names given, replaced by a fixed placeholder.
func RedactHeader(h http.Header, extra ...string) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}
	for _, names := range [][]string{sensitiveHeaders, extra} {
		for _, name := range names {
			if _, ok := out[http.CanonicalHeaderKey(name)]; ok {
				out.Set(name, redacted)
			}
		}
	}
	return out
}
