package memory

import (
	"context"
	"sort"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
)

type PickRepository struct {
	store *Store
}

func NewPickRepository(store *Store) *PickRepository {
	return &PickRepository{store: store}
}

func (r *PickRepository) Upsert(_ context.Context, item pick.Pick) (pick.Pick, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pickKey(item.PoolID, item.UserID, item.Week())
	if existing, ok := r.store.picks[key]; ok {
		item.ID = existing.ID
		item.Result = existing.Result
		item.CountedInLosses = existing.CountedInLosses
		item.GradedAt = existing.GradedAt
	}
	r.store.picks[key] = clonePick(item)
	return clonePick(item), nil
}

func (r *PickRepository) InsertIfAbsent(_ context.Context, item pick.Pick) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pickKey(item.PoolID, item.UserID, item.Week())
	if _, ok := r.store.picks[key]; ok {
		return false, nil
	}
	r.store.picks[key] = clonePick(item)
	return true, nil
}

func (r *PickRepository) GetForWeek(_ context.Context, poolID, userID string, week schedule.Week) (pick.Pick, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.picks[pickKey(poolID, userID, week)]
	if !ok {
		return pick.Pick{}, false, nil
	}
	return clonePick(item), true, nil
}

func (r *PickRepository) ListByMember(_ context.Context, poolID, userID string, seasonYear int) ([]pick.Pick, error) {
	return r.list(func(p pick.Pick) bool {
		return p.PoolID == poolID && p.UserID == userID && p.SeasonYear == seasonYear
	}), nil
}

func (r *PickRepository) ListByPoolWeek(_ context.Context, poolID string, week schedule.Week) ([]pick.Pick, error) {
	return r.list(func(p pick.Pick) bool {
		return p.PoolID == poolID && p.SameWeek(week)
	}), nil
}

func (r *PickRepository) ListPendingByWeek(_ context.Context, week schedule.Week) ([]pick.Pick, error) {
	return r.list(func(p pick.Pick) bool {
		return p.SameWeek(week) && p.Result == pick.ResultPending
	}), nil
}

func (r *PickRepository) ListUncountedLosses(_ context.Context, poolID string, week schedule.Week) ([]pick.Pick, error) {
	return r.list(func(p pick.Pick) bool {
		return p.PoolID == poolID && p.SameWeek(week) && p.Result == pick.ResultLoss && !p.CountedInLosses
	}), nil
}

func (r *PickRepository) ListUnsettledWeeks(_ context.Context, at time.Time) ([]schedule.Week, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	lockAt := make(map[schedule.Week]time.Time)
	for _, g := range r.store.games {
		current, ok := lockAt[g.Week()]
		if !ok || g.KickoffAt.Before(current) {
			lockAt[g.Week()] = g.KickoffAt
		}
	}

	seen := make(map[schedule.Week]struct{})
	out := make([]schedule.Week, 0)
	for _, p := range r.store.picks {
		if !isUnsettled(p) {
			continue
		}
		week := p.Week()
		if _, ok := seen[week]; ok {
			continue
		}
		lock, ok := lockAt[week]
		if !ok || lock.After(at) {
			continue
		}
		seen[week] = struct{}{}
		out = append(out, week)
	}
	sort.Slice(out, func(i, j int) bool { return lockAt[out[i]].Before(lockAt[out[j]]) })
	return out, nil
}

func isUnsettled(p pick.Pick) bool {
	return p.Result == pick.ResultPending || (p.Result == pick.ResultLoss && !p.CountedInLosses)
}

func (r *PickRepository) SetResult(_ context.Context, pickID string, result pick.Result, gradedAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key, item, ok := r.findByID(pickID)
	if !ok || item.Result != pick.ResultPending {
		return false, nil
	}
	graded := gradedAt
	item.Result = result
	item.GradedAt = &graded
	r.store.picks[key] = item
	return true, nil
}

func (r *PickRepository) CountLoss(_ context.Context, pickID string, maxLosses int) (pool.Member, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key, item, ok := r.findByID(pickID)
	if !ok || item.Result != pick.ResultLoss || item.CountedInLosses {
		return pool.Member{}, false, nil
	}
	item.CountedInLosses = true
	r.store.picks[key] = item

	mKey := memberKey(item.PoolID, item.UserID)
	member, ok := r.store.members[mKey]
	if !ok {
		return pool.Member{}, true, nil
	}
	member.Losses++
	member.Eliminated = survivor.IsEliminated(member.Losses, maxLosses)
	member.UpdatedAt = r.store.now().UTC()
	r.store.members[mKey] = member
	return member, true, nil
}

// TryLockWeek implements pick.WeekLocker for a single process.
func (r *PickRepository) TryLockWeek(_ context.Context, week schedule.Week) (func(), bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := week.Key()
	if _, held := r.store.weekLocks[key]; held {
		return func() {}, false, nil
	}
	r.store.weekLocks[key] = struct{}{}
	return func() {
		r.store.mu.Lock()
		delete(r.store.weekLocks, key)
		r.store.mu.Unlock()
	}, true, nil
}

// findByID scans the pick table. Caller must hold the lock.
func (r *PickRepository) findByID(pickID string) (string, pick.Pick, bool) {
	for key, item := range r.store.picks {
		if item.ID == pickID {
			return key, item, true
		}
	}
	return "", pick.Pick{}, false
}

func (r *PickRepository) list(fn func(pick.Pick) bool) []pick.Pick {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]pick.Pick, 0)
	for _, item := range r.store.picks {
		if fn(item) {
			out = append(out, clonePick(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SeasonYear != b.SeasonYear {
			return a.SeasonYear < b.SeasonYear
		}
		if a.Phase != b.Phase {
			return a.Phase == schedule.PhaseRegular
		}
		if a.WeekNumber != b.WeekNumber {
			return a.WeekNumber < b.WeekNumber
		}
		if a.PoolID != b.PoolID {
			return a.PoolID < b.PoolID
		}
		return a.UserID < b.UserID
	})
	return out
}
