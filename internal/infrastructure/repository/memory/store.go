package memory

import (
	"sync"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

// Store is the shared in-memory state behind every memory repository. One mutex
// guards all tables so cross-table writes (loss counting) stay atomic.
type Store struct {
	mu sync.RWMutex

	pools   map[string]pool.Pool
	members map[string]pool.Member
	games   map[string]schedule.Game
	picks   map[string]pick.Pick
	runs    []runlog.Record

	weekLocks map[string]struct{}
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		pools:     make(map[string]pool.Pool),
		members:   make(map[string]pool.Member),
		games:     make(map[string]schedule.Game),
		picks:     make(map[string]pick.Pick),
		weekLocks: make(map[string]struct{}),
		now:       time.Now,
	}
}

// PutPool inserts or replaces a pool. Used by seeds and tests.
func (s *Store) PutPool(item pool.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.MaxLosses < pool.MinMaxLosses {
		item.MaxLosses = pool.DefaultMaxLosses
	}
	s.pools[item.ID] = item
}

func (s *Store) PutMember(item pool.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[memberKey(item.PoolID, item.UserID)] = item
}

// PutGame inserts or replaces a game, standing in for the external schedule feed.
func (s *Store) PutGame(item schedule.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games[item.ID] = cloneGame(item)
}

func memberKey(poolID, userID string) string {
	return poolID + "::" + userID
}

func pickKey(poolID, userID string, week schedule.Week) string {
	return poolID + "::" + userID + "::" + week.Key()
}

func cloneGame(item schedule.Game) schedule.Game {
	copied := item
	if item.HomeScore != nil {
		v := *item.HomeScore
		copied.HomeScore = &v
	}
	if item.AwayScore != nil {
		v := *item.AwayScore
		copied.AwayScore = &v
	}
	if item.HomeSpread != nil {
		v := *item.HomeSpread
		copied.HomeSpread = &v
	}
	return copied
}

func clonePick(item pick.Pick) pick.Pick {
	copied := item
	if item.GradedAt != nil {
		v := *item.GradedAt
		copied.GradedAt = &v
	}
	return copied
}

func cloneRecord(item runlog.Record) runlog.Record {
	copied := item
	if item.Details != nil {
		copied.Details = make(map[string]any, len(item.Details))
		for k, v := range item.Details {
			copied.Details[k] = v
		}
	}
	return copied
}
