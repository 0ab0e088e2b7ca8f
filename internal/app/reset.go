package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"movie-trivia-bot/internal/domain"
	"movie-trivia-bot/internal/quizgen"
)

// notifyConcurrency bounds the fan-out of per-user notifications so one slow
// delivery cannot stall a whole job.
const notifyConcurrency = 8

// ResetReport summarizes one periodic reset run.
type ResetReport struct {
	Period   string
	Users    int
	Notified int
	Failed   []string
}

// MonthlyReset snapshots and zeroes every user's period score. The bulk
// store mutation is fatal to the run on failure (the next scheduled trigger
// retries it); per-user notification failures are isolated and collected.
func (s *TriviaService) MonthlyReset(ctx context.Context) (ResetReport, error) {
	period := time.Now().UTC().Format("2006-01")
	snapshots, err := s.store.BatchResetAll(ctx, domain.TierFor)
	if err != nil {
		return ResetReport{}, fmt.Errorf("batch reset: %w", err)
	}
	report := ResetReport{Period: period, Users: len(snapshots)}

	if s.archiver != nil {
		if err := s.archiver.ArchivePeriod(ctx, period, snapshots); err != nil {
			// The ledger reset already committed; history is best effort.
			s.log.Warn("reset archive failed", zap.String("period", period), zap.Error(err))
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, snap := range snapshots {
		snap := snap
		g.Go(func() error {
			text := fmt.Sprintf("📆 Monthly Reset!\n🏅 Your Tier: %s %s\n🎯 Final Score: %d",
				snap.Tier.Medal(), snap.Tier, snap.Score)
			if err := s.courier.Notify(gctx, snap.UserID, text); err != nil {
				s.log.Warn("reset notification failed", zap.String("user", snap.UserID), zap.Error(err))
				mu.Lock()
				report.Failed = append(report.Failed, snap.UserID)
				mu.Unlock()
				return nil // isolate: one failed delivery must not abort the rest
			}
			mu.Lock()
			report.Notified++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("monthly reset complete",
		zap.String("period", period),
		zap.Int("users", report.Users),
		zap.Int("notified", report.Notified),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// MorningPrompt nudges every user to play.
func (s *TriviaService) MorningPrompt(ctx context.Context) error {
	return s.broadcast(ctx, "☀️ Morning! Ready to earn quiz points?")
}

// EveningPrompt suggests a wind-down pick.
func (s *TriviaService) EveningPrompt(ctx context.Context) error {
	return s.broadcast(ctx, "🌙 Wind down with a thriller or drama tonight?")
}

// UpcomingAlert announces the top two upcoming releases to every user.
func (s *TriviaService) UpcomingAlert(ctx context.Context) error {
	movies, err := s.movies.UpcomingMovies(ctx)
	if err != nil {
		return fmt.Errorf("upcoming movies: %w", err)
	}
	if len(movies) > 2 {
		movies = movies[:2]
	}
	for _, movie := range movies {
		text := fmt.Sprintf("🎬 %s\n🗓️ %s\n🖼️ Poster:\n%s",
			movie.Title, movie.ReleaseDate, s.movies.PosterURL(movie.PosterPath))
		if err := s.broadcast(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

// SendDailyQuiz builds one single-shot question from an upcoming movie and
// opens a daily session for every user. Each user gets their own session
// token; delivery failures are isolated per user.
func (s *TriviaService) SendDailyQuiz(ctx context.Context) error {
	question, err := s.dailyQuestion(ctx)
	if err != nil {
		return err
	}

	users, err := s.store.AllUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			session := domain.DailySession{Token: s.newToken(), Question: question}
			if err := s.store.SaveDailySession(gctx, user.UserID, session); err != nil {
				s.log.Warn("save daily session failed", zap.String("user", user.UserID), zap.Error(err))
				return nil
			}
			if err := s.courier.SendDailyQuestion(gctx, user.UserID, session.Token, question); err != nil {
				s.log.Warn("daily quiz delivery failed", zap.String("user", user.UserID), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// dailyQuestion picks the first upcoming movie that yields at least one
// generated question.
func (s *TriviaService) dailyQuestion(ctx context.Context) (domain.Question, error) {
	movies, err := s.movies.UpcomingMovies(ctx)
	if err != nil {
		return domain.Question{}, fmt.Errorf("upcoming movies: %w", err)
	}
	for _, movie := range movies {
		detail, err := s.movies.MovieDetails(ctx, movie.ID)
		if err != nil {
			s.log.Warn("movie details failed", zap.Int64("movie", movie.ID), zap.Error(err))
			continue
		}
		s.randMu.Lock()
		questions := quizgen.Generate(detail, s.rnd)
		s.randMu.Unlock()
		if len(questions) > 0 {
			return questions[0], nil
		}
	}
	return domain.Question{}, domain.ErrNoQuiz
}

// broadcast sends one text to every user with bounded concurrency and
// per-user failure isolation.
func (s *TriviaService) broadcast(ctx context.Context, text string) error {
	users, err := s.store.AllUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			if err := s.courier.Notify(gctx, user.UserID, text); err != nil {
				s.log.Warn("broadcast delivery failed", zap.String("user", user.UserID), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}
