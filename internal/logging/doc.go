// Package logging provides opt-in file-based structured logging with
// rotation for the record layer. Logs are JSON-encoded via log/slog so
// index rebuild transitions and allIndexStatistics per-index skips are
// queryable. The KV layer's conflict retries are not logged.
package logging
