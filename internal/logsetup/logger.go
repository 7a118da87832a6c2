package logsetup

import (
	"io"
	"log/slog"
	"os"
)

// Option configures [New].
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets where records are written. Defaults to os.Stderr.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// New returns a logger configured from the environment and opts, in that
// order.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		format: FormatFromEnv(),
		level:  LevelFromEnv(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch cfg.format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(cfg.output, &slog.HandlerOptions{Level: cfg.level}))
	case FormatText:
		return slog.New(slog.NewTextHandler(cfg.output, &slog.HandlerOptions{Level: cfg.level}))
	default:
		return slog.New(newCompactHandler(cfg.output, cfg.level))
	}
}
