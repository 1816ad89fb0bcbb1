package pool

import "time"

const (
	MinMaxLosses     = 1
	MaxMaxLosses     = 5
	DefaultMaxLosses = 1
)

// Pool is one survivor competition with its own membership and loss threshold.
type Pool struct {
	ID         string
	Name       string
	SeasonYear int
	MaxLosses  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Member is a user's participation record within one pool.
type Member struct {
	PoolID         string
	UserID         string
	DisplayName    string
	Losses         int
	Eliminated     bool
	IsCommissioner bool
	JoinedAt       time.Time
	UpdatedAt      time.Time
}

func (m Member) Alive() bool {
	return !m.Eliminated
}

type MemberAction string

const (
	ActionResetLosses     MemberAction = "reset_losses"
	ActionSetEliminated   MemberAction = "set_eliminated"
	ActionSetCommissioner MemberAction = "set_commissioner"
	ActionKickMember      MemberAction = "kick_member"
)

func (a MemberAction) Valid() bool {
	switch a {
	case ActionResetLosses, ActionSetEliminated, ActionSetCommissioner, ActionKickMember:
		return true
	default:
		return false
	}
}
