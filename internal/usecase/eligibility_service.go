package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
)

type EligibleTeamsInput struct {
	PoolID string
	UserID string
	// Week defaults to the resolved current week when nil.
	Week *schedule.Week
}

type EligibleTeamsView struct {
	Week        schedule.Week `json:"week"`
	Label       string        `json:"label"`
	Teams       []string      `json:"teams"`
	CurrentPick string        `json:"current_pick,omitempty"`
	LockAt      *time.Time    `json:"lock_at,omitempty"`
	IsLocked    bool          `json:"is_locked"`
}

type EligibilityService struct {
	poolRepo     pool.Repository
	pickRepo     pick.Repository
	scheduleRepo schedule.Repository
	weeks        *WeekService
	now          func() time.Time
}

func NewEligibilityService(
	poolRepo pool.Repository,
	pickRepo pick.Repository,
	scheduleRepo schedule.Repository,
	weeks *WeekService,
) *EligibilityService {
	return &EligibilityService{
		poolRepo:     poolRepo,
		pickRepo:     pickRepo,
		scheduleRepo: scheduleRepo,
		weeks:        weeks,
		now:          time.Now,
	}
}

// EligibleTeams returns the teams the member may pick for week. An empty result means
// no games were found for the week.
func (s *EligibilityService) EligibleTeams(ctx context.Context, poolID, userID string, week schedule.Week) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EligibilityService.EligibleTeams")
	defer span.End()

	if err := validateWeek(week); err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.poolRepo, poolID, userID); err != nil {
		return nil, err
	}

	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return nil, err
	}
	history, err := s.pickRepo.ListByMember(ctx, poolID, userID, week.SeasonYear)
	if err != nil {
		return nil, fmt.Errorf("list member picks: %w", err)
	}

	return survivor.EligibleTeams(games, history, week), nil
}

// View is the read projection behind the pick screen: eligible teams, the member's
// current pick and the lock state of the week.
func (s *EligibilityService) View(ctx context.Context, input EligibleTeamsInput) (EligibleTeamsView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EligibilityService.View")
	defer span.End()

	if _, err := requirePool(ctx, s.poolRepo, input.PoolID); err != nil {
		return EligibleTeamsView{}, err
	}

	var week schedule.Week
	if input.Week != nil {
		week = *input.Week
	} else {
		resolved, err := s.weeks.ResolveCurrentWeek(ctx)
		if err != nil {
			return EligibleTeamsView{}, err
		}
		week = resolved
	}

	teams, err := s.EligibleTeams(ctx, input.PoolID, input.UserID, week)
	if err != nil {
		return EligibleTeamsView{}, err
	}
	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return EligibleTeamsView{}, err
	}

	view := EligibleTeamsView{
		Week:     week,
		Label:    survivor.WeekLabel(week.Phase, week.Number),
		Teams:    teams,
		IsLocked: survivor.IsLocked(games, s.now()),
	}
	if lockAt, ok := survivor.LockAt(games); ok {
		lockAt = lockAt.UTC()
		view.LockAt = &lockAt
	}

	current, ok, err := s.pickRepo.GetForWeek(ctx, input.PoolID, input.UserID, week)
	if err != nil {
		return EligibleTeamsView{}, fmt.Errorf("get current pick: %w", err)
	}
	if ok {
		view.CurrentPick = current.TeamCode
	}
	if view.Teams == nil {
		view.Teams = []string{}
	}

	return view, nil
}
