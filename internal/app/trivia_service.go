package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/domain"
	"movie-trivia-bot/internal/quizgen"
)

// Point awards. Every award goes through LedgerStore.IncrementScore; no
// feature path writes the score field directly.
const (
	SearchAward    = 10
	MovieQuizAward = 10
	DailyQuizAward = 15
)

// DefaultBoardSize is the leaderboard length shown in chat.
const DefaultBoardSize = 10

// TriviaService contains the trivia engine use cases: movie search, the two
// quiz lanes, the leaderboard query, duels, and the scheduled jobs.
type TriviaService struct {
	store    LedgerStore
	movies   MetadataLookup
	duels    DuelStore
	courier  Messenger
	archiver ResetArchiver
	feed     *LeaderboardFeed
	log      *zap.Logger

	boardSize int

	randMu sync.Mutex
	rnd    *rand.Rand

	newToken func() string
}

// Option tweaks a TriviaService; used by tests for determinism.
type Option func(*TriviaService)

// WithRand injects the random source used for question shuffling.
func WithRand(rnd *rand.Rand) Option {
	return func(s *TriviaService) { s.rnd = rnd }
}

// WithTokenFunc injects the session token generator.
func WithTokenFunc(fn func() string) Option {
	return func(s *TriviaService) { s.newToken = fn }
}

// WithBoardSize overrides the leaderboard length.
func WithBoardSize(n int) Option {
	return func(s *TriviaService) {
		if n > 0 {
			s.boardSize = n
		}
	}
}

// WithArchiver attaches a reset-history archive.
func WithArchiver(a ResetArchiver) Option {
	return func(s *TriviaService) { s.archiver = a }
}

func NewTriviaService(store LedgerStore, movies MetadataLookup, duels DuelStore, courier Messenger, feed *LeaderboardFeed, log *zap.Logger, opts ...Option) *TriviaService {
	s := &TriviaService{
		store:     store,
		movies:    movies,
		duels:     duels,
		courier:   courier,
		feed:      feed,
		log:       log,
		boardSize: DefaultBoardSize,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.newToken = func() string {
		s.randMu.Lock()
		defer s.randMu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), s.rnd).String()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MovieCard is the search response shown to the user.
type MovieCard struct {
	Movie     domain.MovieSummary
	PosterURL string
	Similar   []string
	Awarded   int
}

// QuizPrompt is one question ready for presentation, addressed by the opaque
// session token plus the question ordinal.
type QuizPrompt struct {
	Token    string
	Index    int
	Total    int
	Title    string
	Question domain.Question
}

// AnswerFeedback reports the outcome of one accepted answer event.
type AnswerFeedback struct {
	Correct    bool
	Awarded    int
	Done       bool
	Title      string
	FinalScore int
	Total      int
	Next       *QuizPrompt
}

// SearchMovie looks up a movie, refreshes the user's nickname, and credits
// the search award. Similar-title suggestions are best effort.
func (s *TriviaService) SearchMovie(ctx context.Context, userID, nickname, query string) (MovieCard, error) {
	movie, err := s.movies.SearchMovie(ctx, query)
	if err != nil {
		return MovieCard{}, err
	}

	if nickname != "" {
		if err := s.store.SetNickname(ctx, userID, nickname); err != nil {
			s.log.Warn("set nickname failed", zap.String("user", userID), zap.Error(err))
		}
	}

	var similar []string
	if related, err := s.movies.SimilarMovies(ctx, movie.ID); err == nil {
		for i, m := range related {
			if i == 2 {
				break
			}
			similar = append(similar, m.Title)
		}
	} else {
		s.log.Warn("similar movies lookup failed", zap.Int64("movie", movie.ID), zap.Error(err))
	}

	if _, err := s.store.IncrementScore(ctx, userID, SearchAward); err != nil {
		return MovieCard{}, err
	}
	s.publishBoard(ctx)

	return MovieCard{
		Movie:     movie,
		PosterURL: s.movies.PosterURL(movie.PosterPath),
		Similar:   similar,
		Awarded:   SearchAward,
	}, nil
}

// StartMovieQuiz generates a quiz for the movie and opens a fresh session,
// replacing any quiz the user abandoned. Returns ErrNoQuiz when the movie
// has no usable signals; no session is created in that case.
func (s *TriviaService) StartMovieQuiz(ctx context.Context, userID string, movieID int64) (QuizPrompt, error) {
	detail, err := s.movies.MovieDetails(ctx, movieID)
	if err != nil {
		return QuizPrompt{}, err
	}

	s.randMu.Lock()
	questions := quizgen.Generate(detail, s.rnd)
	s.randMu.Unlock()
	if len(questions) == 0 {
		return QuizPrompt{}, domain.ErrNoQuiz
	}

	session := domain.QuizSession{
		Token:     s.newToken(),
		Title:     detail.Title,
		Questions: questions,
	}
	if err := s.store.SaveMovieSession(ctx, userID, session); err != nil {
		return QuizPrompt{}, err
	}
	return QuizPrompt{
		Token:    session.Token,
		Index:    0,
		Total:    len(questions),
		Title:    session.Title,
		Question: questions[0],
	}, nil
}

// AnswerMovieQuiz consumes one answer event for the multi-question lane.
// The event must reference the current session token and the current
// question ordinal; anything else is a stale event and a no-op. Progression
// is a conditional swap on token plus ordinal, so concurrent duplicates of
// the same event resolve to one accepted answer, and the swap lands before
// the ledger award so a replayed event can never double-count.
func (s *TriviaService) AnswerMovieQuiz(ctx context.Context, userID, token string, index, selected int) (AnswerFeedback, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return AnswerFeedback{}, domain.ErrNoSession
		}
		return AnswerFeedback{}, err
	}
	if record.MovieSession == nil {
		return AnswerFeedback{}, domain.ErrNoSession
	}

	session := *record.MovieSession
	if session.Token != token || index != session.Index {
		return AnswerFeedback{}, domain.ErrStaleEvent
	}
	if !session.Active() {
		// Completed session left behind; remove it and drop the event. The
		// conditional swap keeps a freshly started session safe.
		if _, err := s.store.SwapMovieSession(ctx, userID, token, session.Index, nil); err != nil {
			s.log.Warn("clear finished session failed", zap.String("user", userID), zap.Error(err))
		}
		return AnswerFeedback{}, domain.ErrStaleEvent
	}

	question := session.Questions[session.Index]
	correct := selected >= 0 && selected == question.Answer
	session.Index++
	if correct {
		session.Score++
	}

	feedback := AnswerFeedback{
		Correct: correct,
		Title:   session.Title,
		Total:   len(session.Questions),
	}

	var next *domain.QuizSession
	if session.Active() {
		next = &session
	}
	swapped, err := s.store.SwapMovieSession(ctx, userID, token, index, next)
	if err != nil {
		return AnswerFeedback{}, err
	}
	if !swapped {
		// A concurrent event claimed this ordinal first.
		return AnswerFeedback{}, domain.ErrStaleEvent
	}

	if session.Active() {
		feedback.Next = &QuizPrompt{
			Token:    session.Token,
			Index:    session.Index,
			Total:    len(session.Questions),
			Title:    session.Title,
			Question: session.Questions[session.Index],
		}
	} else {
		feedback.Done = true
		feedback.FinalScore = session.Score
	}

	if correct {
		if _, err := s.store.IncrementScore(ctx, userID, MovieQuizAward); err != nil {
			return AnswerFeedback{}, err
		}
		feedback.Awarded = MovieQuizAward
		s.publishBoard(ctx)
	}
	return feedback, nil
}

// AnswerDailyQuiz consumes the single answer event of the daily lane. The
// clear doubles as the claim: only the event whose clear removes the slot
// may award, so concurrent duplicate taps resolve to one score.
func (s *TriviaService) AnswerDailyQuiz(ctx context.Context, userID, token string, selected int) (AnswerFeedback, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return AnswerFeedback{}, domain.ErrNoSession
		}
		return AnswerFeedback{}, err
	}
	if record.DailySession == nil {
		return AnswerFeedback{}, domain.ErrNoSession
	}
	session := *record.DailySession
	if session.Token != token {
		return AnswerFeedback{}, domain.ErrStaleEvent
	}

	claimed, err := s.store.ClearSession(ctx, userID, domain.KindDailyQuiz)
	if err != nil {
		return AnswerFeedback{}, err
	}
	if !claimed {
		return AnswerFeedback{}, domain.ErrStaleEvent
	}

	correct := selected >= 0 && selected == session.Question.Answer
	feedback := AnswerFeedback{Correct: correct, Done: true, Total: 1}
	if correct {
		if _, err := s.store.IncrementScore(ctx, userID, DailyQuizAward); err != nil {
			return AnswerFeedback{}, err
		}
		feedback.Awarded = DailyQuizAward
		feedback.FinalScore = 1
		s.publishBoard(ctx)
	}
	return feedback, nil
}

// Leaderboard returns the top records annotated with ranks and tiers.
func (s *TriviaService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard(ctx, s.boardSize)
}

// TopThree is the condensed monthly-poster view.
func (s *TriviaService) TopThree(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard(ctx, 3)
}

func (s *TriviaService) leaderboard(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	records, err := s.store.RankTop(ctx, n)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(records))
	for i, rec := range records {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   rec.UserID,
			Nickname: rec.Nickname,
			Score:    rec.Score,
			Tier:     domain.TierFor(rec.Score),
		})
	}
	return entries, nil
}

// MyScore reports one user's current period score and tier.
func (s *TriviaService) MyScore(ctx context.Context, userID string) (int, domain.Tier, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return 0, domain.TierFor(0), nil
		}
		return 0, "", err
	}
	return record.Score, domain.TierFor(record.Score), nil
}

// CreateDuel appends a pending duel record.
func (s *TriviaService) CreateDuel(ctx context.Context, challenger, opponent string) (domain.Duel, error) {
	return s.duels.CreateDuel(ctx, challenger, opponent)
}

// DiscoverByGenre picks the current top movie for a mood/genre id.
func (s *TriviaService) DiscoverByGenre(ctx context.Context, genreID int) (MovieCard, error) {
	movie, err := s.movies.DiscoverByGenre(ctx, genreID)
	if err != nil {
		return MovieCard{}, err
	}
	return MovieCard{Movie: movie, PosterURL: s.movies.PosterURL(movie.PosterPath)}, nil
}

// publishBoard pushes a fresh top-N snapshot to live feed subscribers.
// Best effort; a failed read only costs one update.
func (s *TriviaService) publishBoard(ctx context.Context) {
	if s.feed == nil {
		return
	}
	entries, err := s.leaderboard(ctx, s.boardSize)
	if err != nil {
		s.log.Warn("leaderboard snapshot for feed failed", zap.Error(err))
		return
	}
	s.feed.Publish(entries)
}
