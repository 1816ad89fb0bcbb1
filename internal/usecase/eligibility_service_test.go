package usecase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

func TestEligibilityService_EligibleTeams(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)

	got, err := env.eligibility.EligibleTeams(env.ctx, "pool-a", "alice", testWeek2)
	if err != nil {
		t.Fatalf("eligible teams: %v", err)
	}
	if want := []string{"BUF", "CIN", "KC", "NYJ"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected teams: got=%v want=%v", got, want)
	}

	env.submit("pool-a", "alice", testWeek1, "BUF")
	got, err = env.eligibility.EligibleTeams(env.ctx, "pool-a", "alice", testWeek2)
	if err != nil {
		t.Fatalf("eligible teams: %v", err)
	}
	if want := []string{"CIN", "KC", "NYJ"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected teams after pick: got=%v want=%v", got, want)
	}

	// The member's own pick for the week stays listed.
	got, err = env.eligibility.EligibleTeams(env.ctx, "pool-a", "alice", testWeek1)
	if err != nil {
		t.Fatalf("eligible teams: %v", err)
	}
	if want := []string{"BUF", "DET", "KC", "MIA"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected teams for current week: got=%v want=%v", got, want)
	}
}

func TestEligibilityService_EmptyWeekAndMembership(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)

	empty := schedule.Week{SeasonYear: testSeason, Phase: schedule.PhasePlayoffs, Number: 1}
	got, err := env.eligibility.EligibleTeams(env.ctx, "pool-a", "alice", empty)
	if err != nil {
		t.Fatalf("eligible teams: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no teams for a week without games, got %v", got)
	}

	if _, err := env.eligibility.EligibleTeams(env.ctx, "pool-a", "stranger", testWeek1); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestEligibilityService_ViewDefaultsToCurrentWeek(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "alice", false)
	env.submit("pool-a", "alice", testWeek1, "KC")

	view, err := env.eligibility.View(env.ctx, EligibleTeamsInput{PoolID: "pool-a", UserID: "alice"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Week != testWeek1 {
		t.Fatalf("unexpected week: got=%+v want=%+v", view.Week, testWeek1)
	}
	if view.CurrentPick != "KC" || view.IsLocked {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.LockAt == nil || !view.LockAt.Equal(week1Lock) {
		t.Fatalf("unexpected lock time: got=%v want=%s", view.LockAt, week1Lock)
	}
	if view.Label != "Week 1" {
		t.Fatalf("unexpected label: got=%s", view.Label)
	}
}
