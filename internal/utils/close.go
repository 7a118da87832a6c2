package utils

import (
	"io"
	"log/slog"
)

// CloseWithLog closes c and logs a warning if closing fails. It is meant for
// deferred cleanup of response bodies, where a close error must not override
// the error the caller is already returning.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close body", "error", err.Error())
	}
}
