package runlog

import "time"

type Kind string

const (
	KindGrade    Kind = "grade"
	KindAutolock Kind = "autolock"
)

func (k Kind) Valid() bool {
	return k == KindGrade || k == KindAutolock
}

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Record is one append-only row describing a grade or autolock execution.
type Record struct {
	ID         string
	Kind       Kind
	RanAt      time.Time
	Status     Status
	Message    string
	DurationMs int64
	Details    map[string]any
}
