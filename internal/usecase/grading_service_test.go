package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
	runlogmock "github.com/riskibarqy/survivor-pool/internal/mocks/domain/runlog"
	schedulemock "github.com/riskibarqy/survivor-pool/internal/mocks/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestGradingService_LossThenTieEliminates(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)
	env.submit("pool-a", "alice", testWeek1, "BUF")
	env.submit("pool-a", "alice", testWeek2, "KC")

	env.finalize("w1-buf-mia", 10, 20)
	env.now = week1Lock.Add(4 * time.Hour)
	res := env.gradeWeek(testWeek1)
	if res.UpdatedPickCount != 1 || res.TotalMarkedPicks != 1 || res.TotalUpdatedMembers != 1 {
		t.Fatalf("unexpected week 1 totals: %+v", res)
	}

	alice := env.member("pool-a", "alice")
	if alice.Losses != 1 || alice.Eliminated {
		t.Fatalf("after week 1: got losses=%d eliminated=%v want losses=1 eliminated=false", alice.Losses, alice.Eliminated)
	}

	env.finalize("w2-kc-cin", 17, 17)
	env.now = week2Lock.Add(80 * time.Hour)
	env.gradeWeek(testWeek2)

	week2, _, _ := env.pickRepo.GetForWeek(env.ctx, "pool-a", "alice", testWeek2)
	if week2.Result != pick.ResultLoss || !week2.CountedInLosses {
		t.Fatalf("tie must grade as a counted loss: %+v", week2)
	}
	alice = env.member("pool-a", "alice")
	if alice.Losses != 2 || !alice.Eliminated {
		t.Fatalf("after week 2: got losses=%d eliminated=%v want losses=2 eliminated=true", alice.Losses, alice.Eliminated)
	}
}

func TestGradingService_PoolsApplyTheirOwnThreshold(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("strict", 1)
	env.addPool("lenient", 2)
	for _, poolID := range []string{"strict", "lenient"} {
		env.addMember(poolID, "alice", false)
		env.submit(poolID, "alice", testWeek1, "MIA")
		env.submit(poolID, "alice", testWeek2, "NYJ")
	}

	env.finalize("w1-buf-mia", 24, 10)
	env.finalize("w2-buf-nyj", 31, 3)
	env.now = week2Lock.Add(4 * time.Hour)
	env.gradeWeek(testWeek1)
	res := env.gradeWeek(testWeek2)
	if res.PoolsProcessed != 2 {
		t.Fatalf("unexpected pools processed: got=%d want=2", res.PoolsProcessed)
	}

	strict := env.member("strict", "alice")
	lenient := env.member("lenient", "alice")
	if strict.Losses != 2 || !strict.Eliminated {
		t.Fatalf("strict pool: got losses=%d eliminated=%v", strict.Losses, strict.Eliminated)
	}
	if lenient.Losses != 2 || lenient.Eliminated {
		t.Fatalf("lenient pool: got losses=%d eliminated=%v", lenient.Losses, lenient.Eliminated)
	}
}

func TestGradingService_ReplayNeverDoubleCounts(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))

		env := newSurvivorEnv(t)
		env.addPool("p1", 1)
		env.addPool("p2", 2)
		members := []string{"m1", "m2", "m3", "m4"}
		week1Teams := []string{"BUF", "MIA", "KC", "DET"}
		week2Teams := []string{"NYJ", "CIN", "BUF", "KC"}
		for _, poolID := range []string{"p1", "p2"} {
			for i, userID := range members {
				env.addMember(poolID, userID, false)
				env.submit(poolID, userID, testWeek1, week1Teams[i])
				env.submit(poolID, userID, testWeek2, week2Teams[i])
			}
		}

		env.now = week2Lock.Add(5 * 24 * time.Hour)
		gameIDs := []string{"w1-buf-mia", "w1-kc-det", "w2-buf-nyj", "w2-kc-cin"}
		rng.Shuffle(len(gameIDs), func(i, j int) { gameIDs[i], gameIDs[j] = gameIDs[j], gameIDs[i] })

		for _, gameID := range gameIDs {
			env.finalize(gameID, rng.IntN(4)*7, rng.IntN(4)*7)
			for runs := 1 + rng.IntN(3); runs > 0; runs-- {
				if _, err := env.grading.RunGrade(env.ctx, GradeRunInput{}); err != nil {
					t.Fatalf("seed=%d run grade: %v", seed, err)
				}
			}
			assertLossInvariants(t, env, []string{"p1", "p2"}, members)
		}
	}
}

func TestGradingService_ConcurrentRunsCountOnce(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	for _, userID := range []string{"alice", "bob", "carol"} {
		env.addMember("pool-a", userID, false)
	}
	env.submit("pool-a", "alice", testWeek1, "BUF")
	env.submit("pool-a", "bob", testWeek1, "KC")
	env.submit("pool-a", "carol", testWeek1, "DET")
	env.finalize("w1-buf-mia", 3, 6)
	env.finalize("w1-kc-det", 21, 14)
	env.now = week1Lock.Add(5 * 24 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.grading.RunGrade(env.ctx, GradeRunInput{SeasonYear: testSeason, Phase: schedule.PhaseRegular, WeekNumber: 1})
			if err != nil && !errors.Is(err, ErrRunInProgress) {
				t.Errorf("run grade: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := env.member("pool-a", "alice").Losses; got != 1 {
		t.Fatalf("unexpected alice losses: got=%d want=1", got)
	}
	if got := env.member("pool-a", "carol").Losses; got != 1 {
		t.Fatalf("unexpected carol losses: got=%d want=1", got)
	}
	if got := env.member("pool-a", "bob").Losses; got != 0 {
		t.Fatalf("unexpected bob losses: got=%d want=0", got)
	}
}

func TestGradingService_RunInProgressIsRecorded(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.now = week1Lock.Add(time.Hour)

	release, ok, err := env.pickRepo.TryLockWeek(env.ctx, testWeek1)
	if err != nil || !ok {
		t.Fatalf("hold week lock: ok=%v err=%v", ok, err)
	}

	input := GradeRunInput{SeasonYear: testSeason, Phase: schedule.PhaseRegular, WeekNumber: 1}
	if _, err := env.grading.RunGrade(env.ctx, input); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	release()
	if _, err := env.grading.RunGrade(env.ctx, input); err != nil {
		t.Fatalf("run grade after release: %v", err)
	}

	records, err := env.runRepo.ListRecent(env.ctx, runlog.KindGrade, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected record count: got=%d want=2", len(records))
	}
	if records[1].Status != runlog.StatusError || records[0].Status != runlog.StatusOK {
		t.Fatalf("unexpected record statuses: newest=%s oldest=%s", records[0].Status, records[1].Status)
	}
	if records[0].Message != gradeRunMessage {
		t.Fatalf("unexpected ok message: got=%s", records[0].Message)
	}
}

func TestGradingService_RunLogFailureDoesNotMaskResult(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)
	env.submit("pool-a", "alice", testWeek1, "MIA")
	env.finalize("w1-buf-mia", 30, 0)
	env.now = week1Lock.Add(4 * time.Hour)

	runRepo := runlogmock.NewRepository(t)
	runRepo.
		On("Append", mock.Anything, mock.MatchedBy(func(r runlog.Record) bool { return r.Kind == runlog.KindGrade })).
		Return(errors.New("connection reset")).
		Once()
	env.runs = NewRunLogService(runRepo, nil, RunLogConfig{}, logging.NewNop())
	env.grading.runs = env.runs

	res := env.gradeWeek(testWeek1)
	if res.TotalMarkedPicks != 1 {
		t.Fatalf("unexpected marked picks: got=%d want=1", res.TotalMarkedPicks)
	}
}

func TestGradingService_ScheduleOutageIsUpstreamError(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)

	scheduleRepo := schedulemock.NewRepository(t)
	scheduleRepo.
		On("ListByWeek", mock.Anything, testWeek1).
		Return(nil, errors.New("statement timeout")).
		Once()
	env.wire(scheduleRepo)

	_, err := env.grading.RunGrade(env.ctx, GradeRunInput{SeasonYear: testSeason, Phase: schedule.PhaseRegular, WeekNumber: 1})
	if !errors.Is(err, ErrUpstreamData) {
		t.Fatalf("expected ErrUpstreamData, got %v", err)
	}

	records, _ := env.runRepo.ListRecent(env.ctx, runlog.KindGrade, 1)
	if len(records) != 1 || records[0].Status != runlog.StatusError {
		t.Fatalf("expected one error record, got %+v", records)
	}
}

func TestGradingService_DefaultTargetsPendingWeeks(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)
	env.submit("pool-a", "alice", testWeek1, "KC")

	// Week 1 has not kicked off yet: nothing is pending past lock and no game has
	// started, so the current week is graded as a no-op.
	res, err := env.grading.RunGrade(env.ctx, GradeRunInput{})
	if err != nil {
		t.Fatalf("run grade before lock: %v", err)
	}
	if len(res.Weeks) != 1 || res.UpdatedPickCount != 0 {
		t.Fatalf("unexpected pre-lock result: %+v", res)
	}

	env.finalize("w1-kc-det", 20, 27)
	env.now = week1Lock.Add(80 * time.Hour)
	res, err = env.grading.RunGrade(env.ctx, GradeRunInput{})
	if err != nil {
		t.Fatalf("run grade: %v", err)
	}
	if len(res.Weeks) != 1 || res.Weeks[0] != testWeek1 || res.TotalMarkedPicks != 1 {
		t.Fatalf("unexpected default-target result: %+v", res)
	}
}

func TestGradingService_DefaultRunAppliesLossesLeftUncounted(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)
	env.submit("pool-a", "alice", testWeek1, "BUF")

	// Grade week 1 without applying losses, as if the run stopped midway.
	env.finalize("w1-buf-mia", 10, 20)
	env.now = week1Lock.Add(4 * time.Hour)
	if _, err := env.grading.GradeWeek(env.ctx, testWeek1); err != nil {
		t.Fatalf("grade week 1: %v", err)
	}
	if alice := env.member("pool-a", "alice"); alice.Losses != 0 {
		t.Fatalf("losses applied before apply step: %d", alice.Losses)
	}

	env.submit("pool-a", "alice", testWeek2, "KC")
	env.now = week2Lock.Add(time.Hour)

	for i := 0; i < 3; i++ {
		res, err := env.grading.RunGrade(env.ctx, GradeRunInput{})
		if err != nil {
			t.Fatalf("run grade %d: %v", i, err)
		}
		if i == 0 {
			found := false
			for _, w := range res.Weeks {
				if w == testWeek1 {
					found = true
				}
			}
			if !found {
				t.Fatalf("week 1 not targeted: %+v", res.Weeks)
			}
		}
	}

	alice := env.member("pool-a", "alice")
	if alice.Losses != 1 || alice.Eliminated {
		t.Fatalf("got losses=%d eliminated=%v want losses=1 eliminated=false", alice.Losses, alice.Eliminated)
	}
	assertLossInvariants(t, env, []string{"pool-a"}, []string{"alice"})
}

func TestGradingService_GradePassRunsUnderProfiler(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)
	env.submit("pool-a", "alice", testWeek1, "BUF")

	var (
		mu       sync.Mutex
		profiled []string
	)
	env.grading.cfg.Profiler = func(ctx context.Context, kind runlog.Kind, week schedule.Week, fn func(context.Context)) {
		mu.Lock()
		profiled = append(profiled, string(kind)+":"+week.Key())
		mu.Unlock()
		fn(ctx)
	}

	env.finalize("w1-buf-mia", 10, 20)
	env.now = week1Lock.Add(4 * time.Hour)
	res := env.gradeWeek(testWeek1)
	if res.TotalMarkedPicks != 1 {
		t.Fatalf("profiled pass must still grade: %+v", res)
	}
	if len(profiled) != 1 || profiled[0] != "grade:"+testWeek1.Key() {
		t.Fatalf("unexpected profiled runs: %v", profiled)
	}
}

func assertLossInvariants(t *testing.T, env *survivorEnv, poolIDs, members []string) {
	t.Helper()

	for _, poolID := range poolIDs {
		item, _, _ := env.poolRepo.GetByID(env.ctx, poolID)
		for _, userID := range members {
			history, err := env.pickRepo.ListByMember(env.ctx, poolID, userID, testSeason)
			if err != nil {
				t.Fatalf("list picks: %v", err)
			}
			counted, losses := 0, 0
			for _, p := range history {
				if p.CountedInLosses {
					counted++
				}
				if p.Result == pick.ResultLoss {
					losses++
				}
			}

			m := env.member(poolID, userID)
			if m.Losses != counted || counted != losses {
				t.Fatalf("pool=%s user=%s: losses=%d counted=%d loss results=%d", poolID, userID, m.Losses, counted, losses)
			}
			if m.Eliminated != survivor.IsEliminated(m.Losses, item.MaxLosses) {
				t.Fatalf("pool=%s user=%s: eliminated=%v losses=%d max=%d", poolID, userID, m.Eliminated, m.Losses, item.MaxLosses)
			}
		}
	}
}
