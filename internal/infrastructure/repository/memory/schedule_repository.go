package memory

import (
	"context"
	"sort"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

type ScheduleRepository struct {
	store *Store
}

func NewScheduleRepository(store *Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

func (r *ScheduleRepository) ListByWeek(_ context.Context, week schedule.Week) ([]schedule.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]schedule.Game, 0)
	for _, g := range r.store.games {
		if g.Week() == week {
			out = append(out, cloneGame(g))
		}
	}
	sortGames(out)
	return out, nil
}

func (r *ScheduleRepository) NextKickoff(_ context.Context, at time.Time) (schedule.Game, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.pick(func(g schedule.Game) bool { return !g.KickoffAt.Before(at) }, false)
}

func (r *ScheduleRepository) EarliestKickoff(_ context.Context) (schedule.Game, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.pick(func(schedule.Game) bool { return true }, false)
}

func (r *ScheduleRepository) LatestStartedKickoff(_ context.Context, at time.Time) (schedule.Game, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.pick(func(g schedule.Game) bool { return !g.KickoffAt.After(at) }, true)
}

func (r *ScheduleRepository) ListLockedOpenWeeks(_ context.Context, at time.Time) ([]schedule.Week, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	type weekState struct {
		week   schedule.Week
		lockAt time.Time
		open   bool
	}
	states := make(map[schedule.Week]*weekState)
	for _, g := range r.store.games {
		st, ok := states[g.Week()]
		if !ok {
			st = &weekState{week: g.Week(), lockAt: g.KickoffAt}
			states[g.Week()] = st
		}
		if g.KickoffAt.Before(st.lockAt) {
			st.lockAt = g.KickoffAt
		}
		if !g.IsFinal() {
			st.open = true
		}
	}

	candidates := make([]*weekState, 0, len(states))
	for _, st := range states {
		if st.open && !st.lockAt.After(at) {
			candidates = append(candidates, st)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lockAt.After(candidates[j].lockAt)
	})

	out := make([]schedule.Week, 0, len(candidates))
	for _, st := range candidates {
		out = append(out, st.week)
	}
	return out, nil
}

func (r *ScheduleRepository) UpdateHomeSpread(_ context.Context, week schedule.Week, homeTeam, awayTeam string, homeSpread float64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, g := range r.store.games {
		if g.Week() != week || g.HomeTeam != homeTeam || g.AwayTeam != awayTeam {
			continue
		}
		spread := homeSpread
		g.HomeSpread = &spread
		r.store.games[id] = g
		return true, nil
	}
	return false, nil
}

// pick returns the first (or last when latest is set) game by kickoff matching fn.
// Caller must hold the read lock.
func (r *ScheduleRepository) pick(fn func(schedule.Game) bool, latest bool) (schedule.Game, bool, error) {
	matched := make([]schedule.Game, 0)
	for _, g := range r.store.games {
		if fn(g) {
			matched = append(matched, g)
		}
	}
	if len(matched) == 0 {
		return schedule.Game{}, false, nil
	}
	sortGames(matched)
	if latest {
		return cloneGame(matched[len(matched)-1]), true, nil
	}
	return cloneGame(matched[0]), true, nil
}

func sortGames(items []schedule.Game) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}
