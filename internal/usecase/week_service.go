package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
)

type WeekStatus struct {
	PoolID      string         `json:"pool_id"`
	SeasonYear  int            `json:"season_year"`
	Phase       schedule.Phase `json:"phase"`
	WeekNumber  int            `json:"week_number"`
	Label       string         `json:"label"`
	KickoffAt   time.Time      `json:"kickoff_at"`
	IsLocked    bool           `json:"is_locked"`
	MsUntilLock int64          `json:"ms_until_lock"`
	ServerNow   time.Time      `json:"server_now"`
}

// WeekService resolves the "current week" straight from the schedule on every call.
type WeekService struct {
	poolRepo     pool.Repository
	scheduleRepo schedule.Repository
	now          func() time.Time
}

func NewWeekService(poolRepo pool.Repository, scheduleRepo schedule.Repository) *WeekService {
	return &WeekService{
		poolRepo:     poolRepo,
		scheduleRepo: scheduleRepo,
		now:          time.Now,
	}
}

// ResolveCurrentWeek returns the week of the next game kicking off at or after now,
// falling back to the earliest game of the schedule.
func (s *WeekService) ResolveCurrentWeek(ctx context.Context) (schedule.Week, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeekService.ResolveCurrentWeek")
	defer span.End()

	game, ok, err := s.scheduleRepo.NextKickoff(ctx, s.now())
	if err != nil {
		return schedule.Week{}, upstreamErr("next kickoff", err)
	}
	if !ok {
		game, ok, err = s.scheduleRepo.EarliestKickoff(ctx)
		if err != nil {
			return schedule.Week{}, upstreamErr("earliest kickoff", err)
		}
	}
	if !ok {
		return schedule.Week{}, fmt.Errorf("%w: no games scheduled", ErrNotFound)
	}

	return game.Week(), nil
}

func (s *WeekService) WeekStatus(ctx context.Context, poolID string) (WeekStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeekService.WeekStatus")
	defer span.End()

	if _, err := requirePool(ctx, s.poolRepo, poolID); err != nil {
		return WeekStatus{}, err
	}

	week, err := s.ResolveCurrentWeek(ctx)
	if err != nil {
		return WeekStatus{}, err
	}
	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return WeekStatus{}, err
	}
	lockAt, ok := survivor.LockAt(games)
	if !ok {
		return WeekStatus{}, fmt.Errorf("%w: week %s has no kickoff times", ErrUpstreamData, week.Key())
	}

	now := s.now()
	msUntil := lockAt.Sub(now).Milliseconds()
	if msUntil < 0 {
		msUntil = 0
	}

	return WeekStatus{
		PoolID:      poolID,
		SeasonYear:  week.SeasonYear,
		Phase:       week.Phase,
		WeekNumber:  week.Number,
		Label:       survivor.WeekLabel(week.Phase, week.Number),
		KickoffAt:   lockAt.UTC(),
		IsLocked:    survivor.IsLocked(games, now),
		MsUntilLock: msUntil,
		ServerNow:   now.UTC(),
	}, nil
}

func loadWeekGames(ctx context.Context, repo schedule.Repository, week schedule.Week) ([]schedule.Game, error) {
	games, err := repo.ListByWeek(ctx, week)
	if err != nil {
		return nil, upstreamErr("list games for week "+week.Key(), err)
	}
	return games, nil
}

func requirePool(ctx context.Context, repo pool.Repository, poolID string) (pool.Pool, error) {
	if poolID == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}
	item, ok, err := repo.GetByID(ctx, poolID)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("get pool: %w", err)
	}
	if !ok {
		return pool.Pool{}, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	return item, nil
}

func requireMember(ctx context.Context, repo pool.Repository, poolID, userID string) (pool.Member, error) {
	member, ok, err := repo.GetMember(ctx, poolID, userID)
	if err != nil {
		return pool.Member{}, fmt.Errorf("get member: %w", err)
	}
	if !ok {
		return pool.Member{}, fmt.Errorf("%w: pool=%s user=%s", ErrNotMember, poolID, userID)
	}
	return member, nil
}

func requireCommissioner(ctx context.Context, repo pool.Repository, poolID, userID string) (pool.Member, error) {
	member, ok, err := repo.GetMember(ctx, poolID, userID)
	if err != nil {
		return pool.Member{}, fmt.Errorf("get member: %w", err)
	}
	if !ok || !member.IsCommissioner {
		return pool.Member{}, fmt.Errorf("%w: commissioner access required", ErrForbidden)
	}
	return member, nil
}

func upstreamErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamData, op, err)
}

func validateWeek(week schedule.Week) error {
	if week.SeasonYear <= 0 || week.Number <= 0 || !week.Phase.Valid() {
		return fmt.Errorf("%w: invalid week season=%d phase=%q week=%d", ErrInvalidInput, week.SeasonYear, week.Phase, week.Number)
	}
	return nil
}
