package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/riskibarqy/survivor-pool/internal/platform/resilience"
)

const gradeRunMessage = "graded picks + applied losses"

type GradingConfig struct {
	Workers  int
	Profiler RunProfiler
}

type GradeWeekResult struct {
	Week             schedule.Week `json:"week"`
	UpdatedPickCount int           `json:"updated_pick_count"`
	PendingCount     int           `json:"pending_count"`
}

type ApplyLossesResult struct {
	PoolID         string   `json:"pool_id"`
	MarkedPicks    int      `json:"marked_picks"`
	UpdatedMembers int      `json:"updated_members"`
	Eliminated     []string `json:"eliminated,omitempty"`
}

// GradeRunInput selects one explicit week when all three fields are set.
type GradeRunInput struct {
	SeasonYear int
	Phase      schedule.Phase
	WeekNumber int
}

func (in GradeRunInput) explicitWeek() (schedule.Week, bool) {
	if in.SeasonYear <= 0 || in.WeekNumber <= 0 || in.Phase == "" {
		return schedule.Week{}, false
	}
	return schedule.Week{SeasonYear: in.SeasonYear, Phase: in.Phase, Number: in.WeekNumber}, true
}

type GradeRunResult struct {
	Weeks               []schedule.Week `json:"weeks"`
	UpdatedPickCount    int             `json:"updated_pick_count"`
	PoolsProcessed      int             `json:"pools_processed"`
	TotalMarkedPicks    int             `json:"total_marked_picks"`
	TotalUpdatedMembers int             `json:"total_updated_members"`
	Failures            []UnitFailure   `json:"failures,omitempty"`
	NextLock            *ScheduledLock  `json:"next_lock,omitempty"`
	DurationMs          int64           `json:"duration_ms"`
}

type weekOutcome struct {
	graded         GradeWeekResult
	poolsProcessed int
	markedPicks    int
	updatedMembers int
	failures       []UnitFailure
}

// GradingService is the only writer of pick results, losses and elimination.
type GradingService struct {
	poolRepo     pool.Repository
	pickRepo     pick.Repository
	scheduleRepo schedule.Repository
	locker       pick.WeekLocker
	weeks        *WeekService
	runs         *RunLogService
	scheduler    *LockScheduler
	flight       resilience.SingleFlight[weekOutcome]
	cfg          GradingConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewGradingService(
	poolRepo pool.Repository,
	pickRepo pick.Repository,
	scheduleRepo schedule.Repository,
	locker pick.WeekLocker,
	weeks *WeekService,
	runs *RunLogService,
	scheduler *LockScheduler,
	cfg GradingConfig,
	logger *logging.Logger,
) *GradingService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &GradingService{
		poolRepo:     poolRepo,
		pickRepo:     pickRepo,
		scheduleRepo: scheduleRepo,
		locker:       locker,
		weeks:        weeks,
		runs:         runs,
		scheduler:    scheduler,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// GradeWeek scores every pending pick of week whose game is final. Picks of games
// still in play stay pending for the next run. Only pending picks are ever written,
// so re-running a graded week changes nothing.
func (s *GradingService) GradeWeek(ctx context.Context, week schedule.Week) (GradeWeekResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradingService.GradeWeek")
	defer span.End()

	if err := validateWeek(week); err != nil {
		return GradeWeekResult{}, err
	}

	games, err := loadWeekGames(ctx, s.scheduleRepo, week)
	if err != nil {
		return GradeWeekResult{}, err
	}
	pending, err := s.pickRepo.ListPendingByWeek(ctx, week)
	if err != nil {
		return GradeWeekResult{}, fmt.Errorf("list pending picks: %w", err)
	}

	result := GradeWeekResult{Week: week}
	gradedAt := s.now().UTC()
	for _, p := range pending {
		game, ok := survivor.GameForTeam(games, p.TeamCode)
		if !ok {
			s.logger.WarnContext(ctx, "pick team has no game this week",
				"pick_id", p.ID,
				"pool_id", p.PoolID,
				"team", p.TeamCode,
				"week", week.Key(),
			)
			result.PendingCount++
			continue
		}

		outcome := survivor.GradePick(game, p.TeamCode)
		if outcome == pick.ResultPending {
			result.PendingCount++
			continue
		}

		updated, err := s.pickRepo.SetResult(ctx, p.ID, outcome, gradedAt)
		if err != nil {
			return result, fmt.Errorf("set pick result pick=%s: %w", p.ID, err)
		}
		if updated {
			result.UpdatedPickCount++
		}
	}

	return result, nil
}

// ApplyLosses counts every uncounted loss of the pool for week against the pool's own
// max_losses. The counted flag is flipped together with the increment, so a replay
// after a crash or a concurrent run never counts a loss twice.
func (s *GradingService) ApplyLosses(ctx context.Context, poolID string, week schedule.Week) (ApplyLossesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradingService.ApplyLosses")
	defer span.End()

	item, err := requirePool(ctx, s.poolRepo, poolID)
	if err != nil {
		return ApplyLossesResult{}, err
	}

	losses, err := s.pickRepo.ListUncountedLosses(ctx, poolID, week)
	if err != nil {
		return ApplyLossesResult{}, fmt.Errorf("list uncounted losses: %w", err)
	}

	result := ApplyLossesResult{PoolID: poolID}
	updated := make(map[string]struct{}, len(losses))
	for _, p := range losses {
		member, counted, err := s.pickRepo.CountLoss(ctx, p.ID, item.MaxLosses)
		if err != nil {
			return result, fmt.Errorf("count loss pick=%s: %w", p.ID, err)
		}
		if !counted {
			continue
		}
		result.MarkedPicks++
		if member.UserID == "" {
			continue
		}
		updated[member.UserID] = struct{}{}
		if member.Eliminated {
			result.Eliminated = append(result.Eliminated, member.UserID)
		}
	}
	result.UpdatedMembers = len(updated)

	if result.MarkedPicks > 0 {
		s.logger.InfoContext(ctx, "losses applied",
			"pool_id", poolID,
			"week", week.Key(),
			"marked_picks", result.MarkedPicks,
			"updated_members", result.UpdatedMembers,
			"eliminated", len(result.Eliminated),
		)
	}
	return result, nil
}

// RunGrade grades the target weeks and applies losses in every pool. It always appends
// one run record, including when another run already holds a target week.
func (s *GradingService) RunGrade(ctx context.Context, input GradeRunInput) (GradeRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradingService.RunGrade")
	defer span.End()

	startedAt := s.now()
	ctx = logging.ContextWith(ctx, "run_kind", string(runlog.KindGrade))
	result := GradeRunResult{Weeks: []schedule.Week{}}

	weeks, err := s.resolveTargets(ctx, input)
	if err != nil {
		s.recordGrade(ctx, startedAt, &result, err)
		return result, err
	}

	pools, err := s.poolRepo.List(ctx)
	if err != nil {
		err = fmt.Errorf("list pools: %w", err)
		s.recordGrade(ctx, startedAt, &result, err)
		return result, err
	}

	var (
		failures PartialBatchError
		firstErr error
	)
	for _, week := range weeks {
		outcome, err := s.gradeTarget(ctx, week, pools)
		if err != nil {
			failures.Add("week", week.Key(), err)
			s.logger.WarnContext(ctx, "grade week failed", "week", week.Key(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Weeks = append(result.Weeks, week)
		result.UpdatedPickCount += outcome.graded.UpdatedPickCount
		result.PoolsProcessed += outcome.poolsProcessed
		result.TotalMarkedPicks += outcome.markedPicks
		result.TotalUpdatedMembers += outcome.updatedMembers
		failures.Failures = append(failures.Failures, outcome.failures...)
	}
	result.Failures = failures.Failures

	// Nothing graded at all: surface the cause so callers can retry on the next tick.
	if firstErr != nil && len(result.Weeks) == 0 {
		s.recordGrade(ctx, startedAt, &result, firstErr)
		return result, firstErr
	}

	if s.scheduler != nil {
		if next, ok, err := s.scheduler.ScheduleNextLock(ctx); err != nil {
			s.logger.WarnContext(ctx, "schedule next autolock failed", "error", err)
		} else if ok {
			result.NextLock = &next
		}
	}

	s.recordGrade(ctx, startedAt, &result, nil)
	return result, nil
}

// gradeTarget serializes one week: in-process callers share a single execution and
// other processes are kept out by the store-level week lock.
func (s *GradingService) gradeTarget(ctx context.Context, week schedule.Week, pools []pool.Pool) (weekOutcome, error) {
	ctx = logging.ContextWith(ctx, "week", week.Key())
	outcome, err, _ := s.flight.Do(ctx, "grade:"+week.Key(), func() (weekOutcome, error) {
		if s.locker != nil {
			release, ok, err := s.locker.TryLockWeek(ctx, week)
			if err != nil {
				return weekOutcome{}, fmt.Errorf("%w: lock week: %v", ErrDependencyUnavailable, err)
			}
			if !ok {
				return weekOutcome{}, fmt.Errorf("%w: week %s", ErrRunInProgress, week.Key())
			}
			defer release()
		}

		var (
			outcome weekOutcome
			err     error
		)
		s.cfg.Profiler.run(ctx, runlog.KindGrade, week, func(ctx context.Context) {
			outcome, err = s.gradeAndApply(ctx, week, pools)
		})
		return outcome, err
	})
	return outcome, err
}

func (s *GradingService) gradeAndApply(ctx context.Context, week schedule.Week, pools []pool.Pool) (weekOutcome, error) {
	graded, err := s.GradeWeek(ctx, week)
	if err != nil {
		return weekOutcome{}, err
	}
	outcome := weekOutcome{graded: graded}

	targets := make([]pool.Pool, 0, len(pools))
	for _, item := range pools {
		if item.SeasonYear != 0 && item.SeasonYear != week.SeasonYear {
			continue
		}
		targets = append(targets, item)
	}
	if len(targets) == 0 {
		return outcome, nil
	}

	workerCount := s.cfg.Workers
	if workerCount > len(targets) {
		workerCount = len(targets)
	}
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return outcome, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var (
		mu       sync.Mutex
		workers  sync.WaitGroup
		failures PartialBatchError
	)
	for _, item := range targets {
		item := item
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			res, err := s.ApplyLosses(ctx, item.ID, week)

			mu.Lock()
			defer mu.Unlock()
			outcome.markedPicks += res.MarkedPicks
			outcome.updatedMembers += res.UpdatedMembers
			if err != nil {
				failures.Add("pool", item.ID, err)
				s.logger.WarnContext(ctx, "apply losses failed",
					"pool_id", item.ID,
					"error", err,
				)
				return
			}
			outcome.poolsProcessed++
		}); err != nil {
			workers.Done()
			mu.Lock()
			failures.Add("pool", item.ID, fmt.Errorf("submit to worker pool: %w", err))
			mu.Unlock()
		}
	}
	workers.Wait()

	sort.Slice(failures.Failures, func(i, j int) bool { return failures.Failures[i].ID < failures.Failures[j].ID })
	outcome.failures = failures.Failures
	return outcome, nil
}

// resolveTargets picks the explicit week, else every started week with pending picks or
// uncounted losses, else the most recently started week, else the resolved current week.
// Uncounted losses keep a week targeted after a run that graded it but failed to apply.
func (s *GradingService) resolveTargets(ctx context.Context, input GradeRunInput) ([]schedule.Week, error) {
	if week, ok := input.explicitWeek(); ok {
		if err := validateWeek(week); err != nil {
			return nil, err
		}
		return []schedule.Week{week}, nil
	}

	now := s.now()
	weeks, err := s.pickRepo.ListUnsettledWeeks(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list unsettled weeks: %w", err)
	}
	if len(weeks) > 0 {
		return weeks, nil
	}

	latest, ok, err := s.scheduleRepo.LatestStartedKickoff(ctx, now)
	if err != nil {
		return nil, upstreamErr("latest started kickoff", err)
	}
	if ok {
		return []schedule.Week{latest.Week()}, nil
	}

	week, err := s.weeks.ResolveCurrentWeek(ctx)
	if err != nil {
		return nil, err
	}
	return []schedule.Week{week}, nil
}

func (s *GradingService) recordGrade(ctx context.Context, startedAt time.Time, result *GradeRunResult, runErr error) {
	result.DurationMs = s.now().Sub(startedAt).Milliseconds()
	if runErr == nil && len(result.Failures) > 0 {
		runErr = &PartialBatchError{Failures: result.Failures}
	}
	if s.runs == nil {
		return
	}

	weeks := make([]string, 0, len(result.Weeks))
	for _, w := range result.Weeks {
		weeks = append(weeks, w.Key())
	}
	s.runs.Record(ctx, runlog.KindGrade, startedAt, gradeRunMessage, map[string]any{
		"weeks":                 weeks,
		"updated_pick_count":    result.UpdatedPickCount,
		"pools_processed":       result.PoolsProcessed,
		"total_marked_picks":    result.TotalMarkedPicks,
		"total_updated_members": result.TotalUpdatedMembers,
		"failures":              result.Failures,
	}, runErr)
}
