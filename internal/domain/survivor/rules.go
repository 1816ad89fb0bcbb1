package survivor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pick"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"
)

func NormalizeTeamCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LockAt is the earliest kickoff of the week; a single started game locks every pick of the week.
func LockAt(games []schedule.Game) (time.Time, bool) {
	var lock time.Time
	for _, g := range games {
		if g.KickoffAt.IsZero() {
			continue
		}
		if lock.IsZero() || g.KickoffAt.Before(lock) {
			lock = g.KickoffAt
		}
	}
	return lock, !lock.IsZero()
}

func IsLocked(games []schedule.Game, now time.Time) bool {
	lock, ok := LockAt(games)
	if !ok {
		return false
	}
	return !now.Before(lock)
}

// Winner returns the winning team code of a final game. Equal scores have no winner.
func Winner(g schedule.Game) (string, bool) {
	if !g.IsFinal() {
		return "", false
	}
	switch {
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeam, true
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeam, true
	default:
		return "", false
	}
}

// GradePick scores a pick against its game. A tie is a loss for both sides.
func GradePick(g schedule.Game, team string) pick.Result {
	if !g.IsFinal() {
		return pick.ResultPending
	}
	winner, ok := Winner(g)
	if ok && winner == team {
		return pick.ResultWin
	}
	return pick.ResultLoss
}

func IsEliminated(losses, maxLosses int) bool {
	return losses > maxLosses
}

// GameForTeam finds the game the team plays in.
func GameForTeam(games []schedule.Game, team string) (schedule.Game, bool) {
	for _, g := range games {
		if g.HasTeam(team) {
			return g, true
		}
	}
	return schedule.Game{}, false
}

// WeeklyTeams is the sorted union of home and away codes.
func WeeklyTeams(games []schedule.Game) []string {
	set := make(map[string]struct{}, len(games)*2)
	for _, g := range games {
		if g.HomeTeam != "" {
			set[g.HomeTeam] = struct{}{}
		}
		if g.AwayTeam != "" {
			set[g.AwayTeam] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// UsedTeams projects the member's pick history, excluding the pick held for week.
func UsedTeams(history []pick.Pick, week schedule.Week) map[string]struct{} {
	used := make(map[string]struct{}, len(history))
	for _, p := range history {
		if p.SameWeek(week) {
			continue
		}
		used[p.TeamCode] = struct{}{}
	}
	return used
}

// EligibleTeams returns weekly teams minus used teams. The member's existing pick for the week stays
// listed so it can be kept.
func EligibleTeams(games []schedule.Game, history []pick.Pick, week schedule.Week) []string {
	weekly := WeeklyTeams(games)
	if len(weekly) == 0 {
		return nil
	}

	used := UsedTeams(history, week)
	current := ""
	for _, p := range history {
		if p.SameWeek(week) {
			current = p.TeamCode
			break
		}
	}

	out := make([]string, 0, len(weekly))
	for _, team := range weekly {
		if _, taken := used[team]; taken && team != current {
			continue
		}
		out = append(out, team)
	}
	return out
}

// FavoriteMargin is how many points the team is favored by, or false when it is not the favorite
// or the game carries no spread.
func FavoriteMargin(g schedule.Game, team string) (float64, bool) {
	if g.HomeSpread == nil {
		return 0, false
	}
	spread := *g.HomeSpread
	switch {
	case team == g.HomeTeam && spread < 0:
		return -spread, true
	case team == g.AwayTeam && spread > 0:
		return spread, true
	default:
		return 0, false
	}
}

// UnstartedTeams keeps the teams whose game is still scheduled and kicks off after at.
func UnstartedTeams(teams []string, games []schedule.Game, at time.Time) []string {
	out := make([]string, 0, len(teams))
	for _, team := range teams {
		g, ok := GameForTeam(games, team)
		if !ok || g.Status != schedule.StatusScheduled || !g.KickoffAt.After(at) {
			continue
		}
		out = append(out, team)
	}
	return out
}

// ChooseAutopick picks the largest favorite among eligible teams; without spread data it falls back to
// the first team code alphabetically. Equal margins also resolve alphabetically.
func ChooseAutopick(eligible []string, games []schedule.Game) (string, bool) {
	if len(eligible) == 0 {
		return "", false
	}

	candidates := append([]string(nil), eligible...)
	sort.Strings(candidates)

	best := ""
	bestMargin := 0.0
	for _, team := range candidates {
		g, ok := GameForTeam(games, team)
		if !ok {
			continue
		}
		margin, favored := FavoriteMargin(g, team)
		if !favored {
			continue
		}
		if best == "" || margin > bestMargin {
			best = team
			bestMargin = margin
		}
	}
	if best != "" {
		return best, true
	}
	return candidates[0], true
}

func WeekLabel(phase schedule.Phase, weekNumber int) string {
	if phase == schedule.PhasePlayoffs {
		return fmt.Sprintf("Playoff W%d", weekNumber)
	}
	return fmt.Sprintf("Week %d", weekNumber)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
