package app

import (
	"context"

	"movie-trivia-bot/internal/domain"
)

// LedgerStore abstracts how user score records and quiz sessions are stored
// (in-memory, Redis, etc).
//
// Contract notes:
//   - Records are created implicitly by the first write that touches a user.
//   - IncrementScore must be linearizable per user: two concurrent increments
//     may never lose an update.
//   - Session writes merge only the named session slot and leave score,
//     nickname, and tier snapshots untouched.
//   - ClearSession reports whether it removed a live slot. Exactly one of
//     any set of concurrent clears for the same slot observes true; the
//     caller awarding on a single-shot session must award only on true.
//   - SwapMovieSession replaces the movie slot only if it currently holds
//     the given token at the given ordinal (nil next clears it). It is the
//     atomic progression step: concurrent duplicate answer events resolve
//     to exactly one successful swap.
//   - BatchResetAll snapshots each user's pre-reset score, stores
//     lastScore/lastTier from it, and zeroes the score. An increment racing
//     the reset lands entirely before or entirely after that user's
//     snapshot; it is never lost.
type LedgerStore interface {
	Get(ctx context.Context, userID string) (domain.UserRecord, error)
	SetNickname(ctx context.Context, userID, nickname string) error
	SaveMovieSession(ctx context.Context, userID string, session domain.QuizSession) error
	SwapMovieSession(ctx context.Context, userID, token string, index int, next *domain.QuizSession) (bool, error)
	SaveDailySession(ctx context.Context, userID string, session domain.DailySession) error
	ClearSession(ctx context.Context, userID string, kind domain.SessionKind) (bool, error)
	IncrementScore(ctx context.Context, userID string, delta int) (int, error)
	RankTop(ctx context.Context, n int) ([]domain.UserRecord, error)
	AllUsers(ctx context.Context) ([]domain.UserRecord, error)
	BatchResetAll(ctx context.Context, tierFor func(int) domain.Tier) ([]domain.ResetSnapshot, error)
}

// MetadataLookup is the movie metadata collaborator (TMDB in production).
// Lookup failures degrade to user-facing "nothing found" responses; they
// never crash a handler.
type MetadataLookup interface {
	SearchMovie(ctx context.Context, query string) (domain.MovieSummary, error)
	MovieDetails(ctx context.Context, id int64) (domain.MovieDetail, error)
	SimilarMovies(ctx context.Context, id int64) ([]domain.MovieSummary, error)
	UpcomingMovies(ctx context.Context) ([]domain.MovieSummary, error)
	DiscoverByGenre(ctx context.Context, genreID int) (domain.MovieSummary, error)
	PosterURL(path string) string
}

// Messenger delivers outbound notifications to a single user. The Telegram
// transport implements it; jobs fan out through it with bounded concurrency.
type Messenger interface {
	Notify(ctx context.Context, userID, text string) error
	SendDailyQuestion(ctx context.Context, userID, token string, question domain.Question) error
}

// DuelStore appends duel challenge records.
type DuelStore interface {
	CreateDuel(ctx context.Context, challenger, opponent string) (domain.Duel, error)
}

// ResetArchiver persists per-period reset snapshots for history.
type ResetArchiver interface {
	ArchivePeriod(ctx context.Context, period string, snapshots []domain.ResetSnapshot) error
}
