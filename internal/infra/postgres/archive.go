package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"movie-trivia-bot/internal/domain"
)

// ArchiveStore persists monthly reset snapshots so tier history survives
// beyond the single lastScore/lastTier pair kept in the ledger.
type ArchiveStore struct {
	pool *pgxpool.Pool
}

func NewArchiveStore(pool *pgxpool.Pool) *ArchiveStore {
	return &ArchiveStore{pool: pool}
}

// ArchivePeriod writes one row per user for the period in a single
// transaction.
func (s *ArchiveStore) ArchivePeriod(ctx context.Context, period string, snapshots []domain.ResetSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, snap := range snapshots {
		if _, err := tx.Exec(ctx,
			`INSERT INTO reset_history (period, user_id, nickname, final_score, tier)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (period, user_id) DO UPDATE SET
			   nickname = EXCLUDED.nickname,
			   final_score = EXCLUDED.final_score,
			   tier = EXCLUDED.tier`,
			period, snap.UserID, snap.Nickname, snap.Score, string(snap.Tier),
		); err != nil {
			return fmt.Errorf("archive %s: %w", snap.UserID, err)
		}
	}
	return tx.Commit(ctx)
}
