package runlog

import (
	"context"
	"time"
)

type Repository interface {
	Append(ctx context.Context, record Record) error
	ListRecent(ctx context.Context, kind Kind, limit int) ([]Record, error)
	// LastOK returns the most recent ok run of kind.
	LastOK(ctx context.Context, kind Kind) (time.Time, bool, error)
}
