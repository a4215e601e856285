// Package logger builds the process-wide slog.Logger and provides attribute
// helpers so field names stay consistent across components.
package logger
