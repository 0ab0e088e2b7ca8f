package domain

import "time"

// SessionKind tags which quiz lane a session (or an answer event) belongs to.
// The two lanes are independently addressable so an in-flight movie quiz is
// never corrupted by a daily quiz answer.
type SessionKind string

const (
	KindMovieQuiz SessionKind = "movie"
	KindDailyQuiz SessionKind = "daily"
)

// Question is an immutable multiple-choice question. Answer indexes into
// Options and is fixed at generation time; options are never re-shuffled
// per view.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// QuizSession is the per-user progress record for a multi-question movie quiz.
// Token is an opaque session reference carried in callback payloads; the
// server never trusts answer data round-tripped through the client.
type QuizSession struct {
	Token     string     `json:"token"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Index     int        `json:"index"`
	Score     int        `json:"score"`
}

// Active reports whether the session still has questions to answer.
func (s QuizSession) Active() bool {
	return s.Index < len(s.Questions)
}

// DailySession is the single-shot daily quiz lane: one question, one answer,
// flat award on correct.
type DailySession struct {
	Token    string   `json:"token"`
	Question Question `json:"question"`
}

// UserRecord is the durable ledger entry for one chat user.
type UserRecord struct {
	UserID    string
	Nickname  string
	Score     int
	LastScore int
	LastTier  Tier

	MovieSession *QuizSession
	DailySession *DailySession
}

// LeaderboardEntry is a ranked, tier-annotated view of a user record.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Tier     Tier   `json:"tier"`
}

// ResetSnapshot captures one user's state at the moment of a periodic reset.
// Tier is computed from the pre-reset score.
type ResetSnapshot struct {
	UserID   string
	Nickname string
	Score    int
	Tier     Tier
}

// Duel is an append-only challenge record; only the pending state is in scope.
type Duel struct {
	ID         int64     `bun:"id,pk,autoincrement"`
	Challenger string    `bun:"challenger,notnull"`
	Opponent   string    `bun:"opponent,notnull"`
	Status     string    `bun:"status,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// DuelStatusPending is the only duel status the core ever writes.
const DuelStatusPending = "pending"

// MovieSummary is the search-result shape returned by the metadata lookup.
type MovieSummary struct {
	ID          int64
	Title       string
	Overview    string
	PosterPath  string
	ReleaseDate string
	VoteAverage float64
}

// MovieDetail carries the quiz-relevant signals for one movie.
type MovieDetail struct {
	ID       int64
	Title    string
	Genres   []string
	Cast     []string
	Overview string
}
