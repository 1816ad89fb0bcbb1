package postgres

import "time"

type jobRunTableModel struct {
	ID         string    `db:"id"`
	Kind       string    `db:"kind"`
	RanAt      time.Time `db:"ran_at"`
	Status     string    `db:"status"`
	Message    string    `db:"message"`
	DurationMs int64     `db:"duration_ms"`
	Details    string    `db:"details"`
}
