// Package logger provides a structured logging solution using the Zap logging library.
// It includes utilities for creating and managing loggers, setting log levels,
// and integrating logging with context for enhanced traceability.
// Loggers derived with WithKV travel in the context, so every message of a
// tools run carries the same run identifier.
package logger
