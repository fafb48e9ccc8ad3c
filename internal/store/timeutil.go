package store

import "time"

// Timestamps are stored as RFC3339 text so the same schema and queries work
// unmodified against SQLite (used by fast unit tests) and PostgreSQL.

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
