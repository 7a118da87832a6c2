package logsetup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// compactHandler writes one line per record: time, level, message and the
// attributes as a JSON object. Groups become nested objects.
type compactHandler struct {
	level  slog.Leveler
	mu     *sync.Mutex
	output io.Writer
	attrs  []slog.Attr
	groups []string
}

func newCompactHandler(output io.Writer, level slog.Leveler) *compactHandler {
	return &compactHandler{level: level, mu: &sync.Mutex{}, output: output}
}

func (h *compactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *compactHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, fmt.Sprintf(" %5s ", r.Level.String())...)
	buf = append(buf, r.Message...)

	attrs := make(map[string]any)
	for _, attr := range h.attrs {
		addAttr(attrs, attr)
	}
	record := attrs
	for _, group := range h.groups {
		nested, ok := record[group].(map[string]any)
		if !ok {
			nested = make(map[string]any)
			record[group] = nested
		}
		record = nested
	}
	r.Attrs(func(attr slog.Attr) bool {
		addAttr(record, attr)
		return true
	})

	if len(attrs) > 0 {
		encoded, err := json.Marshal(attrs)
		if err != nil {
			encoded = []byte("[json-error]")
		}
		buf = append(buf, " -> "...)
		buf = append(buf, encoded...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.output.Write(buf)
	return err
}

func (h *compactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(h.groups) > 0 {
		// Attributes added inside a group are nested under it.
		group := slog.Group(h.groups[len(h.groups)-1], attrsToAny(attrs)...)
		parent := *h
		parent.groups = h.groups[:len(h.groups)-1]
		nested := parent.WithAttrs([]slog.Attr{group}).(*compactHandler)
		nested.groups = h.groups
		return nested
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *compactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// addAttr stores attr in m, resolving LogValuers and nesting groups.
func addAttr(m map[string]any, attr slog.Attr) {
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		if attr.Key == "" {
			return
		}
		switch value.Kind() {
		case slog.KindDuration:
			m[attr.Key] = value.Duration().String()
		case slog.KindAny:
			if err, ok := value.Any().(error); ok {
				m[attr.Key] = err.Error()
				return
			}
			m[attr.Key] = value.Any()
		default:
			m[attr.Key] = value.Any()
		}
		return
	}

	target := m
	if attr.Key != "" {
		nested, ok := m[attr.Key].(map[string]any)
		if !ok {
			nested = make(map[string]any)
			m[attr.Key] = nested
		}
		target = nested
	}
	for _, member := range value.Group() {
		addAttr(target, member)
	}
}

func attrsToAny(attrs []slog.Attr) []any {
	out := make([]any, len(attrs))
	for i, attr := range attrs {
		out[i] = attr
	}
	return out
}
