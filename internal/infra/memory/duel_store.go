package memory

import (
	"context"
	"sync"
	"time"

	"movie-trivia-bot/internal/domain"
)

// DuelStore keeps duel challenges in memory for deployments without Postgres.
type DuelStore struct {
	mu    sync.Mutex
	duels []domain.Duel
}

func NewDuelStore() *DuelStore {
	return &DuelStore{}
}

func (s *DuelStore) CreateDuel(_ context.Context, challenger, opponent string) (domain.Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	duel := domain.Duel{
		ID:         int64(len(s.duels) + 1),
		Challenger: challenger,
		Opponent:   opponent,
		Status:     domain.DuelStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	s.duels = append(s.duels, duel)
	return duel, nil
}

// Duels returns a copy of the recorded challenges.
func (s *DuelStore) Duels() []domain.Duel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Duel(nil), s.duels...)
}
