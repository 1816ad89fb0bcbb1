package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrLocked          = errors.New("picks are locked for this week")
	ErrNotMember       = errors.New("not a member of this pool")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidTeam     = errors.New("team is not scheduled this week")
	ErrTeamAlreadyUsed = errors.New("team already used")
	ErrUpstreamData    = errors.New("schedule data unavailable")
	ErrRunInProgress   = errors.New("run already in progress")
)

// UnitFailure is one pool or member that failed inside a batch run.
type UnitFailure struct {
	Unit    string `json:"unit"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// PartialBatchError collects unit failures of a batch. Batches report it in their
// result and run record; it is never returned as the operation error.
type PartialBatchError struct {
	Failures []UnitFailure
}

func (e *PartialBatchError) Error() string {
	if e == nil || len(e.Failures) == 0 {
		return "no failures"
	}
	first := e.Failures[0]
	if len(e.Failures) == 1 {
		return fmt.Sprintf("%s %s: %s", first.Unit, first.ID, first.Message)
	}
	return fmt.Sprintf("%d failures, first %s %s: %s", len(e.Failures), first.Unit, first.ID, first.Message)
}

func (e *PartialBatchError) Add(unit, id string, err error) {
	if err == nil {
		return
	}
	e.Failures = append(e.Failures, UnitFailure{Unit: unit, ID: id, Message: err.Error()})
}

func (e *PartialBatchError) Empty() bool {
	return e == nil || len(e.Failures) == 0
}
