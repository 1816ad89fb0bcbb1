package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
)

func TestPoolRepository_UpdateSettingsRecomputesElimination(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutPool(pool.Pool{ID: "pool-1", Name: "Office", SeasonYear: 2026, MaxLosses: 1})
	store.PutMember(pool.Member{PoolID: "pool-1", UserID: "u1", Losses: 2, Eliminated: true})
	store.PutMember(pool.Member{PoolID: "pool-1", UserID: "u2", Losses: 1, Eliminated: false})
	store.PutMember(pool.Member{PoolID: "pool-2", UserID: "u3", Losses: 2, Eliminated: true})
	repo := NewPoolRepository(store)
	ctx := context.Background()

	updated, err := repo.UpdateSettings(ctx, "pool-1", "Office 2", 2)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.Name != "Office 2" || updated.MaxLosses != 2 {
		t.Fatalf("unexpected pool: %+v", updated)
	}

	u1, _, _ := repo.GetMember(ctx, "pool-1", "u1")
	u2, _, _ := repo.GetMember(ctx, "pool-1", "u2")
	u3, _, _ := repo.GetMember(ctx, "pool-2", "u3")
	if u1.Eliminated || u2.Eliminated {
		t.Fatalf("expected pool-1 members revived: u1=%+v u2=%+v", u1, u2)
	}
	if !u3.Eliminated {
		t.Fatalf("expected other pool untouched: %+v", u3)
	}

	if _, err := repo.UpdateSettings(ctx, "pool-1", "Office 2", 1); err != nil {
		t.Fatalf("tighten settings: %v", err)
	}
	u1, _, _ = repo.GetMember(ctx, "pool-1", "u1")
	u2, _, _ = repo.GetMember(ctx, "pool-1", "u2")
	if !u1.Eliminated || u2.Eliminated {
		t.Fatalf("unexpected elimination after tightening: u1=%+v u2=%+v", u1, u2)
	}
}

func TestPoolRepository_MemberActions(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutPool(pool.Pool{ID: "pool-1", SeasonYear: 2026})
	store.PutMember(pool.Member{PoolID: "pool-1", UserID: "u1", Losses: 3, Eliminated: true})
	repo := NewPoolRepository(store)
	ctx := context.Background()

	if ok, _ := repo.ResetLosses(ctx, "pool-1", "u1"); !ok {
		t.Fatalf("expected reset to find member")
	}
	m, _, _ := repo.GetMember(ctx, "pool-1", "u1")
	if m.Losses != 0 || m.Eliminated {
		t.Fatalf("unexpected member after reset: %+v", m)
	}

	if ok, _ := repo.SetCommissioner(ctx, "pool-1", "u1", true); !ok {
		t.Fatalf("expected promote to find member")
	}
	if ok, _ := repo.RemoveMember(ctx, "pool-1", "u1"); !ok {
		t.Fatalf("expected remove to find member")
	}
	if ok, _ := repo.RemoveMember(ctx, "pool-1", "u1"); ok {
		t.Fatalf("expected second remove to miss")
	}
	if ok, _ := repo.SetEliminated(ctx, "pool-1", "u1", true); ok {
		t.Fatalf("expected action on removed member to miss")
	}
}
