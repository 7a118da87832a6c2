package logsetup

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// attrsOf decodes the JSON attribute object of a compact line.
func attrsOf(t *testing.T, line string) map[string]any {
	t.Helper()
	_, encoded, ok := strings.Cut(strings.TrimSpace(line), " -> ")
	if !ok {
		t.Fatalf("expected attributes in %q", line)
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(encoded), &attrs); err != nil {
		t.Fatalf("attributes are not JSON: %v (%q)", err, encoded)
	}
	return attrs
}

type point struct{ x, y int }

func (p point) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("x", p.x), slog.Int("y", p.y))
}

func TestCompact_Line(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithFormat(FormatCompact), WithLevel(slog.LevelDebug), WithOutput(&buf))

	logger.Info("stage call", "stage", "bearer", "n", 2, "took", 1500*time.Millisecond, "error", errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, " INFO stage call -> ") {
		t.Errorf("unexpected line layout: %q", out)
	}
	attrs := attrsOf(t, out)
	if attrs["stage"] != "bearer" || attrs["n"] != float64(2) || attrs["took"] != "1.5s" || attrs["error"] != "boom" {
		t.Errorf("unexpected attributes: %v", attrs)
	}
}

func TestCompact_GroupsAndValuers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithFormat(FormatCompact), WithOutput(&buf)).
		With("app", "stagefetch").
		WithGroup("req").
		With("id", 7)

	logger.Info("msg", "at", point{1, 2})

	attrs := attrsOf(t, buf.String())
	if attrs["app"] != "stagefetch" {
		t.Errorf("expected top-level app, got %v", attrs)
	}
	req, ok := attrs["req"].(map[string]any)
	if !ok {
		t.Fatalf("expected req group, got %v", attrs)
	}
	if req["id"] != float64(7) {
		t.Errorf("expected req.id=7, got %v", req)
	}
	at, ok := req["at"].(map[string]any)
	if !ok || at["x"] != float64(1) || at["y"] != float64(2) {
		t.Errorf("expected resolved valuer, got %v", req)
	}
}

func TestCompact_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithFormat(FormatCompact), WithLevel(slog.LevelWarn), WithOutput(&buf))

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("level filter not applied: %q", out)
	}
}

func TestNew_JSONAndText(t *testing.T) {
	var buf bytes.Buffer
	New(WithFormat(FormatJSON), WithOutput(&buf)).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	New(WithFormat(FormatText), WithOutput(&buf)).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello k=v") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	testCases := map[string]Format{
		"json":    FormatJSON,
		" TEXT ":  FormatText,
		"compact": FormatCompact,
		"":        FormatCompact,
		"fancy":   FormatCompact,
	}
	for input, want := range testCases {
		if got := ParseFormat(input); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, testCase := range testCases {
		got, ok := ParseLevel(testCase.input)
		if got != testCase.want || ok != testCase.ok {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", testCase.input, got, ok, testCase.want, testCase.ok)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("STAGEKIT_LOG_FORMAT", "")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("STAGEKIT_LOG_LEVEL", "debug")
	t.Setenv("LOG_LEVEL", "error")

	if got := FormatFromEnv(); got != FormatJSON {
		t.Errorf("FormatFromEnv() = %q, want json", got)
	}
	if got := LevelFromEnv(); got != slog.LevelDebug {
		t.Errorf("LevelFromEnv() = %v, want DEBUG", got)
	}
}
