// Package logger provides structured logging for objhost.
//
// It wraps log/slog:
//
//   - logger.go: configuration, dynamic level, default logger
//   - context.go: context propagation of loggers and request IDs
//   - redact.go: masking of registration tokens and secret-looking keys
//
// Components that only need a *slog.Logger take Logger.Slog().
package logger
