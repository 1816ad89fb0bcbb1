package usecase

import (
	"errors"
	"testing"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
)

func TestPoolService_UpdateSettings_RecomputesElimination(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 2)
	env.addMember("pool-a", "boss", true)
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "two", Losses: 2})
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "three", Losses: 3, Eliminated: true})

	updated, err := env.pools.UpdateSettings(env.ctx, UpdateSettingsInput{ActorID: "boss", PoolID: "pool-a", Name: "Office", MaxLosses: 1})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.MaxLosses != 1 || updated.Name != "Office" {
		t.Fatalf("unexpected pool: %+v", updated)
	}
	if !env.member("pool-a", "two").Eliminated {
		t.Fatalf("member with 2 losses must be eliminated at max_losses=1")
	}

	if _, err := env.pools.UpdateSettings(env.ctx, UpdateSettingsInput{ActorID: "boss", PoolID: "pool-a", Name: "Office", MaxLosses: 3}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if env.member("pool-a", "three").Eliminated || env.member("pool-a", "two").Eliminated {
		t.Fatalf("raising max_losses must revive members at or below the threshold")
	}
}

func TestPoolService_UpdateSettings_Validation(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "boss", true)
	env.addMember("pool-a", "member", false)

	tests := []struct {
		name    string
		input   UpdateSettingsInput
		wantErr error
	}{
		{name: "max losses too low", input: UpdateSettingsInput{ActorID: "boss", PoolID: "pool-a", Name: "x", MaxLosses: 0}, wantErr: ErrInvalidInput},
		{name: "max losses too high", input: UpdateSettingsInput{ActorID: "boss", PoolID: "pool-a", Name: "x", MaxLosses: 6}, wantErr: ErrInvalidInput},
		{name: "blank name", input: UpdateSettingsInput{ActorID: "boss", PoolID: "pool-a", Name: "  ", MaxLosses: 2}, wantErr: ErrInvalidInput},
		{name: "not commissioner", input: UpdateSettingsInput{ActorID: "member", PoolID: "pool-a", Name: "x", MaxLosses: 2}, wantErr: ErrForbidden},
		{name: "unknown pool", input: UpdateSettingsInput{ActorID: "boss", PoolID: "nope", Name: "x", MaxLosses: 2}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := env.pools.UpdateSettings(env.ctx, tt.input); !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: unexpected error: got=%v want=%v", tt.name, err, tt.wantErr)
		}
	}
}

func TestPoolService_ApplyMemberAction(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.addMember("pool-a", "boss", true)
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "bob", Losses: 2, Eliminated: true})

	apply := func(target string, action pool.MemberAction, value bool) (MemberActionResult, error) {
		return env.pools.ApplyMemberAction(env.ctx, MemberActionInput{
			ActorID:      "boss",
			PoolID:       "pool-a",
			TargetUserID: target,
			Action:       action,
			Value:        value,
		})
	}

	if _, err := apply("bob", pool.ActionResetLosses, false); err != nil {
		t.Fatalf("reset losses: %v", err)
	}
	if bob := env.member("pool-a", "bob"); bob.Losses != 0 || bob.Eliminated {
		t.Fatalf("unexpected member after reset: %+v", bob)
	}

	if _, err := apply("bob", pool.ActionSetCommissioner, true); err != nil {
		t.Fatalf("set commissioner: %v", err)
	}
	if !env.member("pool-a", "bob").IsCommissioner {
		t.Fatalf("expected bob to be commissioner")
	}

	if _, err := apply("boss", pool.ActionKickMember, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected self kick to fail, got %v", err)
	}
	if _, err := apply("boss", pool.ActionSetCommissioner, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected self demotion to fail, got %v", err)
	}
	if _, err := apply("bob", pool.MemberAction("promote"), true); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected unknown action to fail, got %v", err)
	}

	res, err := apply("bob", pool.ActionKickMember, false)
	if err != nil || !res.Applied {
		t.Fatalf("kick member: res=%+v err=%v", res, err)
	}
	if _, ok, _ := env.poolRepo.GetMember(env.ctx, "pool-a", "bob"); ok {
		t.Fatalf("expected bob to be removed")
	}
	if _, err := apply("bob", pool.ActionResetLosses, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for removed member, got %v", err)
	}
}

func TestPoolService_ListStandings(t *testing.T) {
	t.Parallel()

	env := newSurvivorEnv(t)
	env.addPool("pool-a", 1)
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "u1", DisplayName: "Zed", Losses: 1})
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "u2", DisplayName: "amy", Losses: 1})
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "u3", DisplayName: "Out", Losses: 2, Eliminated: true})
	env.store.PutMember(pool.Member{PoolID: "pool-a", UserID: "u4", DisplayName: "Clean"})

	got, err := env.pools.ListStandings(env.ctx, "u1", "pool-a")
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	want := []string{"u4", "u2", "u1", "u3"}
	for i, m := range got {
		if m.UserID != want[i] {
			t.Fatalf("unexpected standings order at %d: got=%s want=%s", i, m.UserID, want[i])
		}
	}
}
