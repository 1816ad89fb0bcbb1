package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

type UpdateSettingsInput struct {
	ActorID   string
	PoolID    string
	Name      string
	MaxLosses int
}

type MemberActionInput struct {
	ActorID      string
	PoolID       string
	TargetUserID string
	Action       pool.MemberAction
	// Value is read by set_eliminated and set_commissioner.
	Value bool
}

type MemberActionResult struct {
	PoolID       string            `json:"pool_id"`
	TargetUserID string            `json:"target_user_id"`
	Action       pool.MemberAction `json:"action"`
	Applied      bool              `json:"applied"`
}

// PoolService serves standings and commissioner overrides of member state.
type PoolService struct {
	poolRepo pool.Repository
	logger   *logging.Logger
}

func NewPoolService(poolRepo pool.Repository, logger *logging.Logger) *PoolService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PoolService{poolRepo: poolRepo, logger: logger}
}

// ListStandings orders alive members first, then by fewest losses, then by name.
func (s *PoolService) ListStandings(ctx context.Context, actorID, poolID string) ([]pool.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ListStandings")
	defer span.End()

	if _, err := requirePool(ctx, s.poolRepo, poolID); err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.poolRepo, poolID, actorID); err != nil {
		return nil, err
	}

	members, err := s.poolRepo.ListMembers(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Eliminated != b.Eliminated {
			return !a.Eliminated
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
	})
	return members, nil
}

// UpdateSettings changes name and max_losses. Elimination is recomputed for every
// member in the same write so losses > max_losses keeps holding.
func (s *PoolService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (pool.Pool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.UpdateSettings")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool name is required", ErrInvalidInput)
	}
	if input.MaxLosses < pool.MinMaxLosses || input.MaxLosses > pool.MaxMaxLosses {
		return pool.Pool{}, fmt.Errorf("%w: max_losses must be between %d and %d", ErrInvalidInput, pool.MinMaxLosses, pool.MaxMaxLosses)
	}
	if _, err := requirePool(ctx, s.poolRepo, input.PoolID); err != nil {
		return pool.Pool{}, err
	}
	if _, err := requireCommissioner(ctx, s.poolRepo, input.PoolID, input.ActorID); err != nil {
		return pool.Pool{}, err
	}

	updated, err := s.poolRepo.UpdateSettings(ctx, input.PoolID, input.Name, input.MaxLosses)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("update pool settings: %w", err)
	}

	s.logger.InfoContext(ctx, "pool settings updated",
		"pool_id", input.PoolID,
		"actor_id", input.ActorID,
		"max_losses", updated.MaxLosses,
	)
	return updated, nil
}

// ApplyMemberAction runs one commissioner override. Commissioners may not kick
// themselves or drop their own commissioner flag.
func (s *PoolService) ApplyMemberAction(ctx context.Context, input MemberActionInput) (MemberActionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ApplyMemberAction")
	defer span.End()

	if !input.Action.Valid() {
		return MemberActionResult{}, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, input.Action)
	}
	if strings.TrimSpace(input.TargetUserID) == "" {
		return MemberActionResult{}, fmt.Errorf("%w: target user id is required", ErrInvalidInput)
	}
	if _, err := requirePool(ctx, s.poolRepo, input.PoolID); err != nil {
		return MemberActionResult{}, err
	}
	if _, err := requireCommissioner(ctx, s.poolRepo, input.PoolID, input.ActorID); err != nil {
		return MemberActionResult{}, err
	}

	self := input.TargetUserID == input.ActorID
	switch {
	case input.Action == pool.ActionKickMember && self:
		return MemberActionResult{}, fmt.Errorf("%w: cannot kick yourself", ErrInvalidInput)
	case input.Action == pool.ActionSetCommissioner && self && !input.Value:
		return MemberActionResult{}, fmt.Errorf("%w: cannot remove your own commissioner role", ErrInvalidInput)
	}

	if _, ok, err := s.poolRepo.GetMember(ctx, input.PoolID, input.TargetUserID); err != nil {
		return MemberActionResult{}, fmt.Errorf("get target member: %w", err)
	} else if !ok {
		return MemberActionResult{}, fmt.Errorf("%w: member=%s", ErrNotFound, input.TargetUserID)
	}

	var (
		applied bool
		err     error
	)
	switch input.Action {
	case pool.ActionResetLosses:
		applied, err = s.poolRepo.ResetLosses(ctx, input.PoolID, input.TargetUserID)
	case pool.ActionSetEliminated:
		applied, err = s.poolRepo.SetEliminated(ctx, input.PoolID, input.TargetUserID, input.Value)
	case pool.ActionSetCommissioner:
		applied, err = s.poolRepo.SetCommissioner(ctx, input.PoolID, input.TargetUserID, input.Value)
	case pool.ActionKickMember:
		applied, err = s.poolRepo.RemoveMember(ctx, input.PoolID, input.TargetUserID)
	}
	if err != nil {
		return MemberActionResult{}, fmt.Errorf("apply %s: %w", input.Action, err)
	}

	s.logger.InfoContext(ctx, "member action applied",
		"pool_id", input.PoolID,
		"actor_id", input.ActorID,
		"target_user_id", input.TargetUserID,
		"action", input.Action,
		"applied", applied,
	)
	return MemberActionResult{
		PoolID:       input.PoolID,
		TargetUserID: input.TargetUserID,
		Action:       input.Action,
		Applied:      applied,
	}, nil
}
