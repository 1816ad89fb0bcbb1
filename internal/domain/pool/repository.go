package pool

import "context"

type Repository interface {
	GetByID(ctx context.Context, poolID string) (Pool, bool, error)
	List(ctx context.Context) ([]Pool, error)
	// UpdateSettings stores the new settings and recomputes eliminated for every member of the pool.
	UpdateSettings(ctx context.Context, poolID, name string, maxLosses int) (Pool, error)

	GetMember(ctx context.Context, poolID, userID string) (Member, bool, error)
	ListMembers(ctx context.Context, poolID string) ([]Member, error)
	ResetLosses(ctx context.Context, poolID, userID string) (bool, error)
	SetEliminated(ctx context.Context, poolID, userID string, eliminated bool) (bool, error)
	SetCommissioner(ctx context.Context, poolID, userID string, commissioner bool) (bool, error)
	RemoveMember(ctx context.Context, poolID, userID string) (bool, error)
}
