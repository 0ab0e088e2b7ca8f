package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"movie-trivia-bot/internal/domain"
)

// DuelStore appends duel challenge records to Postgres.
type DuelStore struct {
	db *bun.DB
}

func NewDuelStore(db *bun.DB) *DuelStore {
	return &DuelStore{db: db}
}

// CreateDuel inserts a pending duel; the record never transitions further
// in this service.
func (s *DuelStore) CreateDuel(ctx context.Context, challenger, opponent string) (domain.Duel, error) {
	duel := domain.Duel{
		Challenger: challenger,
		Opponent:   opponent,
		Status:     domain.DuelStatusPending,
	}
	if _, err := s.db.NewInsert().Model(&duel).ModelTableExpr("duels").Returning("id, created_at").Exec(ctx); err != nil {
		return domain.Duel{}, fmt.Errorf("insert duel: %w", err)
	}
	return duel, nil
}
