package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/domain"
	"movie-trivia-bot/internal/infra/memory"
)

func TestMonthlyResetSnapshotsAndZeroes(t *testing.T) {
	service, store, _, courier := newTestService(t)
	ctx := context.Background()

	seed := map[string]int{"gold": 320, "silver": 150, "bronze": 10}
	for user, score := range seed {
		_, err := store.IncrementScore(ctx, user, score)
		require.NoError(t, err)
	}

	report, err := service.MonthlyReset(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, report.Users)
	require.Equal(t, 3, report.Notified)
	require.Empty(t, report.Failed)
	require.NotEmpty(t, report.Period)

	for user, score := range seed {
		record, err := store.Get(ctx, user)
		require.NoError(t, err)
		require.Zero(t, record.Score)
		require.Equal(t, score, record.LastScore)
		require.Equal(t, domain.TierFor(score), record.LastTier)

		require.Len(t, courier.notes[user], 1)
		require.Contains(t, courier.notes[user][0], "Monthly Reset")
		require.Contains(t, courier.notes[user][0], fmt.Sprintf("%d", score))
	}
}

func TestMonthlyResetIsolatesNotificationFailures(t *testing.T) {
	service, store, _, courier := newTestService(t)
	ctx := context.Background()

	for _, user := range []string{"a", "b", "c"} {
		_, err := store.IncrementScore(ctx, user, 100)
		require.NoError(t, err)
	}
	courier.failFor["b"] = true

	report, err := service.MonthlyReset(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, report.Users)
	require.Equal(t, 2, report.Notified)
	require.Equal(t, []string{"b"}, report.Failed)

	// The reset itself still applied to the user whose delivery failed.
	record, err := store.Get(ctx, "b")
	require.NoError(t, err)
	require.Zero(t, record.Score)
	require.Equal(t, 100, record.LastScore)
}

type failingResetStore struct {
	LedgerStore
}

func (failingResetStore) BatchResetAll(context.Context, func(int) domain.Tier) ([]domain.ResetSnapshot, error) {
	return nil, errors.New("store unavailable")
}

func TestMonthlyResetStoreFailureIsFatal(t *testing.T) {
	store := failingResetStore{LedgerStore: memory.NewLedgerStore()}
	courier := newFakeCourier()
	service := NewTriviaService(store, &fakeMovies{}, &fakeDuels{}, courier, nil, zap.NewNop())

	_, err := service.MonthlyReset(context.Background())
	require.Error(t, err)
	require.Empty(t, courier.notes)
}

type recordingArchiver struct {
	period    string
	snapshots []domain.ResetSnapshot
	err       error
}

func (a *recordingArchiver) ArchivePeriod(_ context.Context, period string, snapshots []domain.ResetSnapshot) error {
	a.period = period
	a.snapshots = snapshots
	return a.err
}

func TestMonthlyResetArchiveIsBestEffort(t *testing.T) {
	store := memory.NewLedgerStore()
	courier := newFakeCourier()
	archiver := &recordingArchiver{err: errors.New("postgres down")}
	service := NewTriviaService(store, &fakeMovies{}, &fakeDuels{}, courier, nil, zap.NewNop(),
		WithArchiver(archiver))
	ctx := context.Background()

	_, err := store.IncrementScore(ctx, "a", 200)
	require.NoError(t, err)

	report, err := service.MonthlyReset(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Users)
	require.Equal(t, report.Period, archiver.period)
	require.Len(t, archiver.snapshots, 1)
	require.Equal(t, 200, archiver.snapshots[0].Score)

	record, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Zero(t, record.Score)
}

func TestSendDailyQuizOpensPerUserSessions(t *testing.T) {
	service, store, movies, courier := newTestService(t)
	ctx := context.Background()

	movies.upcoming = []domain.MovieSummary{{ID: 603, Title: "The Matrix"}}
	require.NoError(t, store.SetNickname(ctx, "a", "Alice"))
	require.NoError(t, store.SetNickname(ctx, "b", "Bob"))

	require.NoError(t, service.SendDailyQuiz(ctx))

	recA, err := store.Get(ctx, "a")
	require.NoError(t, err)
	recB, err := store.Get(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, recA.DailySession)
	require.NotNil(t, recB.DailySession)
	require.NotEqual(t, recA.DailySession.Token, recB.DailySession.Token)

	require.Equal(t, recA.DailySession.Token, courier.daily["a"].Token)
	require.Equal(t, recB.DailySession.Token, courier.daily["b"].Token)
	require.Equal(t, recA.DailySession.Question, courier.daily["a"].Question)
}

func TestSendDailyQuizSkipsMoviesWithoutSignals(t *testing.T) {
	service, store, movies, courier := newTestService(t)
	ctx := context.Background()

	movies.details[98] = domain.MovieDetail{ID: 98, Title: "Blank"}
	movies.upcoming = []domain.MovieSummary{{ID: 98, Title: "Blank"}, {ID: 603, Title: "The Matrix"}}
	require.NoError(t, store.SetNickname(ctx, "a", "Alice"))

	require.NoError(t, service.SendDailyQuiz(ctx))
	require.NotEmpty(t, courier.daily["a"].Question.Prompt)
}

func TestSendDailyQuizNoUsableMovie(t *testing.T) {
	service, _, movies, _ := newTestService(t)
	movies.upcoming = []domain.MovieSummary{{ID: 404, Title: "Missing"}}

	err := service.SendDailyQuiz(context.Background())
	require.ErrorIs(t, err, domain.ErrNoQuiz)
}

func TestUpcomingAlertAnnouncesTopTwo(t *testing.T) {
	service, store, movies, courier := newTestService(t)
	ctx := context.Background()

	movies.upcoming = []domain.MovieSummary{
		{ID: 1, Title: "First", ReleaseDate: "2026-09-01", PosterPath: "/1.jpg"},
		{ID: 2, Title: "Second", ReleaseDate: "2026-09-08", PosterPath: "/2.jpg"},
		{ID: 3, Title: "Third", ReleaseDate: "2026-09-15", PosterPath: "/3.jpg"},
	}
	require.NoError(t, store.SetNickname(ctx, "a", "Alice"))

	require.NoError(t, service.UpcomingAlert(ctx))

	require.Len(t, courier.notes["a"], 2)
	require.Contains(t, courier.notes["a"][0], "First")
	require.Contains(t, courier.notes["a"][1], "Second")
}

func TestMorningAndEveningPrompts(t *testing.T) {
	service, store, _, courier := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SetNickname(ctx, "a", "Alice"))

	require.NoError(t, service.MorningPrompt(ctx))
	require.NoError(t, service.EveningPrompt(ctx))
	require.Len(t, courier.notes["a"], 2)
}
