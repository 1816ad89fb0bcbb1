package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
)

const testSeason = 2026

var (
	testWeek1 = schedule.Week{SeasonYear: testSeason, Phase: schedule.PhaseRegular, Number: 1}
	testWeek2 = schedule.Week{SeasonYear: testSeason, Phase: schedule.PhaseRegular, Number: 2}

	week1Lock = time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC)
	week2Lock = time.Date(2026, 9, 17, 20, 0, 0, 0, time.UTC)
)

type survivorEnv struct {
	t   *testing.T
	ctx context.Context
	now time.Time

	store        *memory.Store
	poolRepo     *memory.PoolRepository
	pickRepo     *memory.PickRepository
	scheduleRepo *memory.ScheduleRepository
	runRepo      *memory.RunLogRepository
	games        map[string]schedule.Game

	queue       *recordingQueue
	weeks       *WeekService
	eligibility *EligibilityService
	picks       *PickService
	autopick    *AutopickService
	grading     *GradingService
	runs        *RunLogService
	pools       *PoolService
	scheduler   *LockScheduler
}

// newSurvivorEnv seeds a two-week regular season:
// week 1: BUF-MIA (BUF -3.5) at lock, KC-DET (KC -6.5) three days later;
// week 2: BUF-NYJ, KC-CIN, no spreads.
func newSurvivorEnv(t *testing.T) *survivorEnv {
	t.Helper()

	env := &survivorEnv{
		t:     t,
		ctx:   context.Background(),
		now:   week1Lock.Add(-24 * time.Hour),
		store: memory.NewStore(),
		games: make(map[string]schedule.Game),
		queue: &recordingQueue{},
	}
	env.poolRepo = memory.NewPoolRepository(env.store)
	env.pickRepo = memory.NewPickRepository(env.store)
	env.scheduleRepo = memory.NewScheduleRepository(env.store)
	env.runRepo = memory.NewRunLogRepository(env.store)

	env.addGame("w1-buf-mia", testWeek1, "BUF", "MIA", week1Lock, floatPtr(-3.5))
	env.addGame("w1-kc-det", testWeek1, "KC", "DET", week1Lock.Add(72*time.Hour), floatPtr(-6.5))
	env.addGame("w2-buf-nyj", testWeek2, "BUF", "NYJ", week2Lock, nil)
	env.addGame("w2-kc-cin", testWeek2, "KC", "CIN", week2Lock.Add(72*time.Hour), nil)

	env.wire(env.scheduleRepo)
	return env
}

// wire builds the services over scheduleRepo so tests can swap in a mock schedule.
func (e *survivorEnv) wire(scheduleRepo schedule.Repository) {
	clock := func() time.Time { return e.now }
	logger := logging.NewNop()

	e.weeks = NewWeekService(e.poolRepo, scheduleRepo)
	e.weeks.now = clock
	e.runs = NewRunLogService(e.runRepo, nil, RunLogConfig{}, logger)
	e.runs.now = clock
	e.scheduler = NewLockScheduler(scheduleRepo, e.queue, LockSchedulerConfig{}, logger)
	e.scheduler.now = clock
	e.eligibility = NewEligibilityService(e.poolRepo, e.pickRepo, scheduleRepo, e.weeks)
	e.eligibility.now = clock
	e.picks = NewPickService(e.poolRepo, e.pickRepo, scheduleRepo, nil, logger)
	e.picks.now = clock
	e.autopick = NewAutopickService(e.poolRepo, e.pickRepo, scheduleRepo, e.weeks, e.runs, e.scheduler, nil, AutopickConfig{Workers: 2}, logger)
	e.autopick.now = clock
	e.grading = NewGradingService(e.poolRepo, e.pickRepo, scheduleRepo, e.pickRepo, e.weeks, e.runs, e.scheduler, GradingConfig{Workers: 2}, logger)
	e.grading.now = clock
	e.pools = NewPoolService(e.poolRepo, logger)
}

func (e *survivorEnv) addGame(id string, week schedule.Week, home, away string, kickoff time.Time, spread *float64) {
	g := schedule.Game{
		ID:         id,
		SeasonYear: week.SeasonYear,
		Phase:      week.Phase,
		WeekNumber: week.Number,
		HomeTeam:   home,
		AwayTeam:   away,
		KickoffAt:  kickoff,
		Status:     schedule.StatusScheduled,
		HomeSpread: spread,
	}
	e.games[id] = g
	e.store.PutGame(g)
}

func (e *survivorEnv) finalize(id string, homeScore, awayScore int) {
	g, ok := e.games[id]
	if !ok {
		e.t.Fatalf("unknown game %s", id)
	}
	g.Status = schedule.StatusFinal
	g.HomeScore = intPtr(homeScore)
	g.AwayScore = intPtr(awayScore)
	e.games[id] = g
	e.store.PutGame(g)
}

func (e *survivorEnv) addPool(id string, maxLosses int) {
	e.store.PutPool(pool.Pool{ID: id, Name: id, SeasonYear: testSeason, MaxLosses: maxLosses})
}

func (e *survivorEnv) addMember(poolID, userID string, commissioner bool) {
	e.store.PutMember(pool.Member{PoolID: poolID, UserID: userID, DisplayName: userID, IsCommissioner: commissioner})
}

func (e *survivorEnv) submit(poolID, userID string, week schedule.Week, team string) pick.Pick {
	e.t.Helper()

	saved, err := e.picks.SubmitPick(e.ctx, SubmitPickInput{
		PoolID:     poolID,
		UserID:     userID,
		SeasonYear: week.SeasonYear,
		Phase:      week.Phase,
		WeekNumber: week.Number,
		TeamCode:   team,
	})
	if err != nil {
		e.t.Fatalf("submit pick pool=%s user=%s team=%s: %v", poolID, userID, team, err)
	}
	return saved
}

func (e *survivorEnv) member(poolID, userID string) pool.Member {
	e.t.Helper()

	m, ok, err := e.poolRepo.GetMember(e.ctx, poolID, userID)
	if err != nil || !ok {
		e.t.Fatalf("get member pool=%s user=%s: ok=%v err=%v", poolID, userID, ok, err)
	}
	return m
}

func (e *survivorEnv) gradeWeek(week schedule.Week) GradeRunResult {
	e.t.Helper()

	res, err := e.grading.RunGrade(e.ctx, GradeRunInput{
		SeasonYear: week.SeasonYear,
		Phase:      week.Phase,
		WeekNumber: week.Number,
	})
	if err != nil {
		e.t.Fatalf("run grade week=%s: %v", week.Key(), err)
	}
	return res
}

type queuedJob struct {
	path    string
	payload any
	delay   time.Duration
	dedupID string
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{path: path, payload: payload, delay: delay, dedupID: deduplicationID})
	return nil
}

func (q *recordingQueue) snapshot() []queuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queuedJob(nil), q.jobs...)
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
