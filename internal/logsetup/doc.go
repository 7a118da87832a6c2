// Package logsetup builds the *slog.Logger used by stagekit commands. Format
// and level come from options or, by default, from the STAGEKIT_LOG_FORMAT and
// STAGEKIT_LOG_LEVEL environment variables (falling back to LOG_FORMAT and
// LOG_LEVEL).
package logsetup
