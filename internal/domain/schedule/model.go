package schedule

import (
	"strconv"
	"strings"
	"time"
)

type Phase string

const (
	PhaseRegular  Phase = "regular"
	PhasePlayoffs Phase = "playoffs"
)

// ParsePhase maps loose feed values ("REG", "Playoffs", "post-playoff") onto a Phase.
func ParsePhase(value string) Phase {
	if strings.Contains(strings.ToLower(strings.TrimSpace(value)), "play") {
		return PhasePlayoffs
	}
	return PhaseRegular
}

func (p Phase) Valid() bool {
	return p == PhaseRegular || p == PhasePlayoffs
}

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinal      Status = "final"
)

func NormalizeStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "final", "finished", "ft", "closed":
		return StatusFinal
	case "in_progress", "live", "in-progress", "inprogress":
		return StatusInProgress
	default:
		return StatusScheduled
	}
}

// Week identifies one slate of games within a season.
type Week struct {
	SeasonYear int   `json:"season_year"`
	Phase      Phase `json:"phase"`
	Number     int   `json:"week_number"`
}

func (w Week) Key() string {
	return strconv.Itoa(w.SeasonYear) + ":" + string(w.Phase) + ":" + strconv.Itoa(w.Number)
}

// Game is one scheduled matchup as published by the schedule feed.
type Game struct {
	ID         string
	SeasonYear int
	Phase      Phase
	WeekNumber int
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Status     Status
	HomeScore  *int
	AwayScore  *int
	// HomeSpread is the point spread from the home side: negative means home is favored.
	HomeSpread *float64
}

func (g Game) Week() Week {
	return Week{SeasonYear: g.SeasonYear, Phase: g.Phase, Number: g.WeekNumber}
}

func (g Game) IsFinal() bool {
	return g.Status == StatusFinal && g.HomeScore != nil && g.AwayScore != nil
}

func (g Game) HasTeam(team string) bool {
	return g.HomeTeam == team || g.AwayTeam == team
}
