package store

import (
	"database/sql"
	"time"
)

// now is the clock used to stamp mutations. Tests replace it.
var now = time.Now

// Timestamps are stored as Unix milliseconds.

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

// touch is the SQL expression for a strictly increasing updated_at. The
// bound parameter is the current time in milliseconds.
const touch = `MAX(?, updated_at + 1)`
