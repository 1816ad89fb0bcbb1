package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	"github.com/riskibarqy/survivor-pool/internal/platform/id"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

type SubmitPickInput struct {
	PoolID     string
	UserID     string
	SeasonYear int
	Phase      schedule.Phase
	WeekNumber int
	TeamCode   string
}

func (in SubmitPickInput) week() schedule.Week {
	return schedule.Week{SeasonYear: in.SeasonYear, Phase: in.Phase, Number: in.WeekNumber}
}

// PickService is the pick ledger. It only ever writes picks; results and losses
// belong to grading.
type PickService struct {
	poolRepo     pool.Repository
	pickRepo     pick.Repository
	scheduleRepo schedule.Repository
	ids          id.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewPickService(
	poolRepo pool.Repository,
	pickRepo pick.Repository,
	scheduleRepo schedule.Repository,
	ids id.Generator,
	logger *logging.Logger,
) *PickService {
	if ids == nil {
		ids = id.NewPrefixedGenerator("pick_")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &PickService{
		poolRepo:     poolRepo,
		pickRepo:     pickRepo,
		scheduleRepo: scheduleRepo,
		ids:          ids,
		logger:       logger,
		now:          time.Now,
	}
}

// SubmitPick checks lock, membership, team validity and reuse, in that order, then
// upserts the member's pick for the week.
func (s *PickService) SubmitPick(ctx context.Context, input SubmitPickInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SubmitPick")
	defer span.End()

	input.PoolID = strings.TrimSpace(input.PoolID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.TeamCode = survivor.NormalizeTeamCode(input.TeamCode)
	if input.PoolID == "" || input.UserID == "" {
		return pick.Pick{}, fmt.Errorf("%w: pool id and user id are required", ErrInvalidInput)
	}
	if input.TeamCode == "" {
		return pick.Pick{}, fmt.Errorf("%w: team code is required", ErrInvalidInput)
	}
	week := input.week()
	if err := validateWeek(week); err != nil {
		return pick.Pick{}, err
	}

	now := s.now()
	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return pick.Pick{}, err
	}
	if survivor.IsLocked(games, now) {
		return pick.Pick{}, fmt.Errorf("%w: week %s", ErrLocked, survivor.WeekLabel(week.Phase, week.Number))
	}

	if _, err := requireMember(ctx, s.poolRepo, input.PoolID, input.UserID); err != nil {
		return pick.Pick{}, err
	}

	if _, ok := survivor.GameForTeam(games, input.TeamCode); !ok {
		return pick.Pick{}, fmt.Errorf("%w: team=%s week=%s", ErrInvalidTeam, input.TeamCode, week.Key())
	}

	history, err := s.pickRepo.ListByMember(ctx, input.PoolID, input.UserID, week.SeasonYear)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list member picks: %w", err)
	}
	if err := checkReuse(history, week, input.TeamCode); err != nil {
		return pick.Pick{}, err
	}

	pickID, err := s.ids.NewID()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
	}
	saved, err := s.pickRepo.Upsert(ctx, pick.Pick{
		ID:          pickID,
		PoolID:      input.PoolID,
		UserID:      input.UserID,
		SeasonYear:  week.SeasonYear,
		Phase:       week.Phase,
		WeekNumber:  week.Number,
		TeamCode:    input.TeamCode,
		SubmittedAt: now.UTC(),
		WasAutopick: false,
		Result:      pick.ResultPending,
	})
	if err != nil {
		return pick.Pick{}, fmt.Errorf("upsert pick: %w", err)
	}

	s.logger.InfoContext(ctx, "pick submitted",
		"pool_id", saved.PoolID,
		"user_id", saved.UserID,
		"week", week.Key(),
		"team", saved.TeamCode,
	)
	return saved, nil
}

// ListMyPicks returns the member's picks for the pool's season, oldest week first.
func (s *PickService) ListMyPicks(ctx context.Context, poolID, userID string) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.ListMyPicks")
	defer span.End()

	item, err := requirePool(ctx, s.poolRepo, poolID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.poolRepo, poolID, userID); err != nil {
		return nil, err
	}

	picks, err := s.pickRepo.ListByMember(ctx, poolID, userID, item.SeasonYear)
	if err != nil {
		return nil, fmt.Errorf("list member picks: %w", err)
	}
	return picks, nil
}

// checkReuse rejects a team held by any other week's pick. Keeping the pick already
// held for week is always allowed.
func checkReuse(history []pick.Pick, week schedule.Week, team string) error {
	for _, p := range history {
		if p.SameWeek(week) && p.TeamCode == team {
			return nil
		}
	}
	if _, used := survivor.UsedTeams(history, week)[team]; used {
		return fmt.Errorf("%w: team=%s", ErrTeamAlreadyUsed, team)
	}
	return nil
}
