package logsetup

import (
	"log/slog"
	"os"
	"strings"
)

// Format is the log output format.
type Format string

const (
	// FormatCompact is one line per record with JSON attributes:
	//
	//	2025-11-03 10:40:35  INFO stage call -> {"stage":"bearer"}
	FormatCompact Format = "compact"

	// FormatJSON is slog's JSON handler output, for log aggregation.
	FormatJSON Format = "json"

	// FormatText is slog's key=value text handler output.
	FormatText Format = "text"
)

// ParseFormat maps s to a Format, case-insensitively. Unknown values mean
// FormatCompact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON
	case FormatText:
		return FormatText
	default:
		return FormatCompact
	}
}

// ParseLevel maps s to a slog.Level, case-insensitively. It reports false for
// unknown values.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// FormatFromEnv reads STAGEKIT_LOG_FORMAT, then LOG_FORMAT.
func FormatFromEnv() Format {
	return ParseFormat(firstEnv("STAGEKIT_LOG_FORMAT", "LOG_FORMAT"))
}

// LevelFromEnv reads STAGEKIT_LOG_LEVEL, then LOG_LEVEL. Unset or unknown
// values mean INFO.
func LevelFromEnv() slog.Level {
	level, _ := ParseLevel(firstEnv("STAGEKIT_LOG_LEVEL", "LOG_LEVEL"))
	return level
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
