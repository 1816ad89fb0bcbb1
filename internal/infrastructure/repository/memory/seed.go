package memory

import (
	"fmt"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

const (
	SeedPoolID           = "dev-pool"
	SeedCommissionerID   = "dev-commissioner"
	SeedMemberID         = "dev-member"
	seedGamesPerWeek     = 4
	seedRegularSeasonLen = 3
)

var seedTeams = []string{"BUF", "KC", "PHI", "DAL", "SF", "DET", "BAL", "MIA"}

// SeedDev fills the store with one pool, two members and a short schedule whose
// first week kicks off a day after now. It backs STORE_DRIVER=memory.
func SeedDev(store *Store, now time.Time) {
	seasonYear := now.Year()
	store.PutPool(pool.Pool{
		ID:         SeedPoolID,
		Name:       "Office Survivor",
		SeasonYear: seasonYear,
		MaxLosses:  pool.DefaultMaxLosses,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	store.PutMember(pool.Member{
		PoolID:         SeedPoolID,
		UserID:         SeedCommissionerID,
		DisplayName:    "Commissioner",
		IsCommissioner: true,
		JoinedAt:       now,
		UpdatedAt:      now,
	})
	store.PutMember(pool.Member{
		PoolID:      SeedPoolID,
		UserID:      SeedMemberID,
		DisplayName: "Member",
		JoinedAt:    now,
		UpdatedAt:   now,
	})

	for _, g := range SeedGames(seasonYear, now.Add(24*time.Hour).Truncate(time.Hour)) {
		store.PutGame(g)
	}
}

// SeedGames builds a round-robin style regular season starting at firstKickoff,
// one week apart, with spreads favoring the home side by a growing margin.
func SeedGames(seasonYear int, firstKickoff time.Time) []schedule.Game {
	out := make([]schedule.Game, 0, seedRegularSeasonLen*seedGamesPerWeek)
	for week := 1; week <= seedRegularSeasonLen; week++ {
		weekStart := firstKickoff.Add(time.Duration(week-1) * 7 * 24 * time.Hour)
		for i := 0; i < seedGamesPerWeek; i++ {
			home := seedTeams[(i*2+week-1)%len(seedTeams)]
			away := seedTeams[(i*2+week)%len(seedTeams)]
			spread := -1.5 - float64(i)
			out = append(out, schedule.Game{
				ID:         fmt.Sprintf("%d-reg-%02d-%d", seasonYear, week, i+1),
				SeasonYear: seasonYear,
				Phase:      schedule.PhaseRegular,
				WeekNumber: week,
				HomeTeam:   home,
				AwayTeam:   away,
				KickoffAt:  weekStart.Add(time.Duration(i) * 3 * time.Hour),
				Status:     schedule.StatusScheduled,
				HomeSpread: &spread,
			})
		}
	}
	return out
}
