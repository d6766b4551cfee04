// Package logging assembles the structured slog loggers used across cinema.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so request handlers and ingest workers
// can tag log lines with a catalog domain and correlation ID. A no-op logger
// is provided for tests and for wiring code that has no logger yet.
package logging
