package utils

import (
	"net/http"
	"strings"
	"testing"
)

// TestTruncateString covers strings shorter than, equal to and longer than the
// limit, plus the non-positive limit fallback.
func TestTruncateString(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		maxLen        int
		wantTruncated bool
	}{
		{name: "shorter than maxLen", input: "hello", maxLen: 10},
		{name: "exactly maxLen", input: "hello", maxLen: 5},
		{name: "longer than maxLen", input: "hello world", maxLen: 5, wantTruncated: true},
		{name: "zero maxLen keeps short input", input: "short", maxLen: 0},
		{
			name:          "negative maxLen uses default",
			input:         strings.Repeat("b", DefaultMaxStringLength+1),
			maxLen:        -1,
			wantTruncated: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := TruncateString(testCase.input, testCase.maxLen)

			hasSuffix := strings.Contains(got, "... (truncated, total:")
			if hasSuffix != testCase.wantTruncated {
				t.Errorf("TruncateString(%q, %d) truncated=%v, want %v; got %q",
					testCase.input, testCase.maxLen, hasSuffix, testCase.wantTruncated, got)
			}
		})
	}
}

// TestJSONToString verifies compact and indented output and the error string
// for values that cannot be marshaled.
func TestJSONToString(t *testing.T) {
	if got := JSONToString(map[string]int{"a": 1}, false); got != `{"a":1}` {
		t.Errorf("compact = %q", got)
	}
	if got := JSONToString(map[string]int{"a": 1}, true); !strings.Contains(got, "\n  \"a\"") {
		t.Errorf("indented = %q", got)
	}
	if got := JSONToString(make(chan int), false); !strings.HasPrefix(got, `{"error":`) {
		t.Errorf("unmarshalable = %q", got)
	}
}

// TestRedactHeader verifies that credentials are masked in the copy while the
// original header is left untouched.
func TestRedactHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("X-Api-Key", "k")
	h.Set("Accept", "application/json")

	got := RedactHeader(h, "x-api-key")

	if got.Get("Authorization") != redacted {
		t.Errorf("Authorization = %q, want redacted", got.Get("Authorization"))
	}
	if got.Get("X-Api-Key") != redacted {
		t.Errorf("X-Api-Key = %q, want redacted", got.Get("X-Api-Key"))
	}
	if got.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q, want unchanged", got.Get("Accept"))
	}
	if h.Get("Authorization") != "Bearer secret" {
		t.Errorf("original header was modified: %q", h.Get("Authorization"))
	}
	if _, ok := got["Cookie"]; ok {
		t.Error("absent headers must not be added")
	}
}

// TestRedactHeader_Nil verifies a nil header yields an empty, usable header.
func TestRedactHeader_Nil(t *testing.T) {
	if got := RedactHeader(nil); got == nil || len(got) != 0 {
		t.Errorf("RedactHeader(nil) = %v, want empty header", got)
	}
}
