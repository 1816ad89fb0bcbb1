package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	"github.com/riskibarqy/survivor-pool/internal/platform/id"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/platform/resilience"
	concpool "github.com/sourcegraph/conc/pool"
)

var errNoEligibleTeams = errors.New("no eligible teams remain")

type AutopickConfig struct {
	Workers  int
	Profiler RunProfiler
}

type AutopickResult struct {
	PoolID            string         `json:"pool_id"`
	SeasonYear        int            `json:"season_year"`
	Phase             schedule.Phase `json:"phase"`
	WeekNumber        int            `json:"week_number"`
	AutopicksInserted int            `json:"autopicks_inserted"`
	Failures          []UnitFailure  `json:"failures,omitempty"`
}

type AutolockRunResult struct {
	Week              *schedule.Week   `json:"week,omitempty"`
	PoolsProcessed    int              `json:"pools_processed"`
	AutopicksInserted int              `json:"autopicks_inserted"`
	Pools             []AutopickResult `json:"pools"`
	Failures          []UnitFailure    `json:"failures,omitempty"`
	NextLock          *ScheduledLock   `json:"next_lock,omitempty"`
	DurationMs        int64            `json:"duration_ms"`
}

// AutopickService fills missing picks for alive members once a week locks.
type AutopickService struct {
	poolRepo     pool.Repository
	pickRepo     pick.Repository
	scheduleRepo schedule.Repository
	weeks        *WeekService
	runs         *RunLogService
	scheduler    *LockScheduler
	ids          id.Generator
	flight       resilience.SingleFlight[AutolockRunResult]
	cfg          AutopickConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewAutopickService(
	poolRepo pool.Repository,
	pickRepo pick.Repository,
	scheduleRepo schedule.Repository,
	weeks *WeekService,
	runs *RunLogService,
	scheduler *LockScheduler,
	ids id.Generator,
	cfg AutopickConfig,
	logger *logging.Logger,
) *AutopickService {
	if ids == nil {
		ids = id.NewPrefixedGenerator("pick_")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &AutopickService{
		poolRepo:     poolRepo,
		pickRepo:     pickRepo,
		scheduleRepo: scheduleRepo,
		weeks:        weeks,
		runs:         runs,
		scheduler:    scheduler,
		ids:          ids,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// ForceAutopick inserts an autopick for every alive member of the pool without a pick
// for week. Members that already hold a pick are left alone, so repeated runs only
// fill genuine gaps. Per-member failures are reported, never returned.
func (s *AutopickService) ForceAutopick(ctx context.Context, poolID string, week schedule.Week) (AutopickResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutopickService.ForceAutopick")
	defer span.End()

	if err := validateWeek(week); err != nil {
		return AutopickResult{}, err
	}
	if _, err := requirePool(ctx, s.poolRepo, poolID); err != nil {
		return AutopickResult{}, err
	}
	ctx = logging.ContextWith(ctx, "pool_id", poolID, "week", week.Key())

	result := AutopickResult{
		PoolID:     poolID,
		SeasonYear: week.SeasonYear,
		Phase:      week.Phase,
		WeekNumber: week.Number,
	}

	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return AutopickResult{}, err
	}
	if len(games) == 0 {
		return AutopickResult{}, fmt.Errorf("%w: no games for week %s", ErrNotFound, week.Key())
	}

	members, err := s.poolRepo.ListMembers(ctx, poolID)
	if err != nil {
		return AutopickResult{}, fmt.Errorf("list members: %w", err)
	}
	existing, err := s.pickRepo.ListByPoolWeek(ctx, poolID, week)
	if err != nil {
		return AutopickResult{}, fmt.Errorf("list week picks: %w", err)
	}
	picked := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		picked[p.UserID] = struct{}{}
	}

	var failures PartialBatchError
	for _, member := range members {
		if !member.Alive() {
			continue
		}
		if _, ok := picked[member.UserID]; ok {
			continue
		}

		inserted, err := s.autopickMember(ctx, member, games, week)
		if err != nil {
			failures.Add("member", member.UserID, err)
			s.logger.WarnContext(ctx, "autopick member failed", "user_id", member.UserID, "error", err)
			continue
		}
		if inserted {
			result.AutopicksInserted++
		}
	}
	result.Failures = failures.Failures

	s.logger.InfoContext(ctx, "autopick completed",
		"inserted", result.AutopicksInserted,
		"failures", len(result.Failures),
	)
	return result, nil
}

func (s *AutopickService) autopickMember(ctx context.Context, member pool.Member, games []schedule.Game, week schedule.Week) (bool, error) {
	history, err := s.pickRepo.ListByMember(ctx, member.PoolID, member.UserID, week.SeasonYear)
	if err != nil {
		return false, fmt.Errorf("list member picks: %w", err)
	}
	// Once the week has locked, prefer teams that have not kicked off yet.
	eligible := survivor.EligibleTeams(games, history, week)
	if open := survivor.UnstartedTeams(eligible, games, s.now()); len(open) > 0 {
		eligible = open
	}
	team, ok := survivor.ChooseAutopick(eligible, games)
	if !ok {
		return false, errNoEligibleTeams
	}

	pickID, err := s.ids.NewID()
	if err != nil {
		return false, fmt.Errorf("generate pick id: %w", err)
	}
	inserted, err := s.pickRepo.InsertIfAbsent(ctx, pick.Pick{
		ID:          pickID,
		PoolID:      member.PoolID,
		UserID:      member.UserID,
		SeasonYear:  week.SeasonYear,
		Phase:       week.Phase,
		WeekNumber:  week.Number,
		TeamCode:    team,
		SubmittedAt: s.now().UTC(),
		WasAutopick: true,
		Result:      pick.ResultPending,
	})
	if err != nil {
		return false, fmt.Errorf("insert autopick: %w", err)
	}
	return inserted, nil
}

// CommissionerForceAutopick runs autopick for the current week ahead of lock.
func (s *AutopickService) CommissionerForceAutopick(ctx context.Context, actorID, poolID string) (AutopickResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutopickService.CommissionerForceAutopick")
	defer span.End()

	if _, err := requirePool(ctx, s.poolRepo, poolID); err != nil {
		return AutopickResult{}, err
	}
	if _, err := requireCommissioner(ctx, s.poolRepo, poolID, actorID); err != nil {
		return AutopickResult{}, err
	}

	week, err := s.weeks.ResolveCurrentWeek(ctx)
	if err != nil {
		return AutopickResult{}, err
	}
	return s.ForceAutopick(ctx, poolID, week)
}

// RunAutolock autopicks every pool for the most recently locked week that still has
// games in play. It never acts on a week before its natural lock.
func (s *AutopickService) RunAutolock(ctx context.Context) (AutolockRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutopickService.RunAutolock")
	defer span.End()

	startedAt := s.now()
	ctx = logging.ContextWith(ctx, "run_kind", string(runlog.KindAutolock))
	result, err, _ := s.flight.Do(ctx, string(runlog.KindAutolock), func() (AutolockRunResult, error) {
		return s.runAutolock(ctx, startedAt)
	})
	return result, err
}

func (s *AutopickService) runAutolock(ctx context.Context, startedAt time.Time) (AutolockRunResult, error) {
	result := AutolockRunResult{Pools: []AutopickResult{}}
	message := "no locked week"

	weeks, err := s.scheduleRepo.ListLockedOpenWeeks(ctx, startedAt)
	if err != nil {
		err = upstreamErr("list locked weeks", err)
		s.recordAutolock(ctx, startedAt, &result, message, err)
		return result, err
	}

	if len(weeks) > 0 {
		week := weeks[0]
		result.Week = &week
		message = "autopicked locked week"
		if err := s.autopickAllPools(ctx, week, &result); err != nil {
			s.recordAutolock(ctx, startedAt, &result, message, err)
			return result, err
		}
	}

	s.scheduleNext(ctx, &result)
	s.recordAutolock(ctx, startedAt, &result, message, nil)
	return result, nil
}

func (s *AutopickService) autopickAllPools(ctx context.Context, week schedule.Week, result *AutolockRunResult) error {
	pools, err := s.poolRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list pools: %w", err)
	}

	var (
		mu       sync.Mutex
		failures PartialBatchError
	)
	// Goroutines started by the pool inherit the profiler labels.
	s.cfg.Profiler.run(ctx, runlog.KindAutolock, week, func(ctx context.Context) {
		workers := concpool.New().WithMaxGoroutines(s.cfg.Workers)
		for _, item := range pools {
			if item.SeasonYear != 0 && item.SeasonYear != week.SeasonYear {
				continue
			}
			item := item
			workers.Go(func() {
				res, err := s.ForceAutopick(ctx, item.ID, week)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures.Add("pool", item.ID, err)
					s.logger.WarnContext(ctx, "autolock pool failed", "pool_id", item.ID, "week", week.Key(), "error", err)
					return
				}
				result.PoolsProcessed++
				result.AutopicksInserted += res.AutopicksInserted
				result.Pools = append(result.Pools, res)
				failures.Failures = append(failures.Failures, res.Failures...)
			})
		}
		workers.Wait()
	})

	sort.Slice(result.Pools, func(i, j int) bool { return result.Pools[i].PoolID < result.Pools[j].PoolID })
	result.Failures = failures.Failures
	return nil
}

func (s *AutopickService) scheduleNext(ctx context.Context, result *AutolockRunResult) {
	if s.scheduler == nil {
		return
	}
	next, ok, err := s.scheduler.ScheduleNextLock(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "schedule next autolock failed", "error", err)
		return
	}
	if ok {
		result.NextLock = &next
	}
}

func (s *AutopickService) recordAutolock(ctx context.Context, startedAt time.Time, result *AutolockRunResult, message string, runErr error) {
	result.DurationMs = s.now().Sub(startedAt).Milliseconds()
	if runErr == nil && len(result.Failures) > 0 {
		runErr = &PartialBatchError{Failures: result.Failures}
	}
	if s.runs == nil {
		return
	}

	details := map[string]any{
		"pools_processed":    result.PoolsProcessed,
		"autopicks_inserted": result.AutopicksInserted,
		"failures":           result.Failures,
	}
	if result.Week != nil {
		details["season_year"] = result.Week.SeasonYear
		details["phase"] = result.Week.Phase
		details["week_number"] = result.Week.Number
	}
	s.runs.Record(ctx, runlog.KindAutolock, startedAt, message, details, runErr)
}
