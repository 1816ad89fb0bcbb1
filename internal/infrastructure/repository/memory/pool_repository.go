package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/survivor"
)

type PoolRepository struct {
	store *Store
}

func NewPoolRepository(store *Store) *PoolRepository {
	return &PoolRepository{store: store}
}

func (r *PoolRepository) GetByID(_ context.Context, poolID string) (pool.Pool, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.pools[poolID]
	return item, ok, nil
}

func (r *PoolRepository) List(_ context.Context) ([]pool.Pool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]pool.Pool, 0, len(r.store.pools))
	for _, item := range r.store.pools {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PoolRepository) UpdateSettings(_ context.Context, poolID, name string, maxLosses int) (pool.Pool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.pools[poolID]
	if !ok {
		return pool.Pool{}, fmt.Errorf("pool %s not found", poolID)
	}
	now := r.store.now().UTC()
	item.Name = name
	item.MaxLosses = maxLosses
	item.UpdatedAt = now
	r.store.pools[poolID] = item

	for key, member := range r.store.members {
		if member.PoolID != poolID {
			continue
		}
		eliminated := survivor.IsEliminated(member.Losses, maxLosses)
		if member.Eliminated == eliminated {
			continue
		}
		member.Eliminated = eliminated
		member.UpdatedAt = now
		r.store.members[key] = member
	}

	return item, nil
}

func (r *PoolRepository) GetMember(_ context.Context, poolID, userID string) (pool.Member, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.members[memberKey(poolID, userID)]
	return item, ok, nil
}

func (r *PoolRepository) ListMembers(_ context.Context, poolID string) ([]pool.Member, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]pool.Member, 0)
	for _, item := range r.store.members {
		if item.PoolID == poolID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *PoolRepository) ResetLosses(_ context.Context, poolID, userID string) (bool, error) {
	return r.mutateMember(poolID, userID, func(m *pool.Member) {
		m.Losses = 0
		m.Eliminated = false
	}), nil
}

func (r *PoolRepository) SetEliminated(_ context.Context, poolID, userID string, eliminated bool) (bool, error) {
	return r.mutateMember(poolID, userID, func(m *pool.Member) {
		m.Eliminated = eliminated
	}), nil
}

func (r *PoolRepository) SetCommissioner(_ context.Context, poolID, userID string, commissioner bool) (bool, error) {
	return r.mutateMember(poolID, userID, func(m *pool.Member) {
		m.IsCommissioner = commissioner
	}), nil
}

func (r *PoolRepository) RemoveMember(_ context.Context, poolID, userID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := memberKey(poolID, userID)
	if _, ok := r.store.members[key]; !ok {
		return false, nil
	}
	delete(r.store.members, key)
	return true, nil
}

func (r *PoolRepository) mutateMember(poolID, userID string, fn func(*pool.Member)) bool {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := memberKey(poolID, userID)
	item, ok := r.store.members[key]
	if !ok {
		return false
	}
	fn(&item)
	item.UpdatedAt = r.store.now().UTC()
	r.store.members[key] = item
	return true
}
