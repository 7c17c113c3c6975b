// Package logger sets up the process-wide JSON slog logger and carries
// request-scoped loggers, annotated with trace and user IDs, through contexts.
package logger
