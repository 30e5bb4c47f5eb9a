// Package slogobs provides an observability.Provider implementation backed by
// Go's standard library log/slog package.
//
// Spans are logged on start and end with their accumulated attributes,
// counters and histograms are kept in memory and logged on every update, and
// the Logger methods map to slog levels (Trace sits below Debug). The main
// entry point is [New]; output format and level can be tuned with
// [WithFormat], [WithLevel], [WithOutput] and [WithLogger], or through the
// CHATWIDGET_LOG_FORMAT and CHATWIDGET_LOG_LEVEL environment variables.
package slogobs
