package postgres

import (
	"time"

	"github.com/riskibarqy/survivor-pool/internal/domain/pool"
)

type poolTableModel struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	SeasonYear int       `db:"season_year"`
	MaxLosses  int       `db:"max_losses"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (m poolTableModel) toDomain() pool.Pool {
	return pool.Pool{
		ID:         m.ID,
		Name:       m.Name,
		SeasonYear: m.SeasonYear,
		MaxLosses:  m.MaxLosses,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type poolMemberTableModel struct {
	PoolID         string    `db:"pool_id"`
	UserID         string    `db:"user_id"`
	DisplayName    string    `db:"display_name"`
	Losses         int       `db:"losses"`
	Eliminated     bool      `db:"eliminated"`
	IsCommissioner bool      `db:"is_commissioner"`
	JoinedAt       time.Time `db:"joined_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (m poolMemberTableModel) toDomain() pool.Member {
	return pool.Member{
		PoolID:         m.PoolID,
		UserID:         m.UserID,
		DisplayName:    m.DisplayName,
		Losses:         m.Losses,
		Eliminated:     m.Eliminated,
		IsCommissioner: m.IsCommissioner,
		JoinedAt:       m.JoinedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
