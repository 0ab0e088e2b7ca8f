package telegram

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/app"
	"movie-trivia-bot/internal/domain"
)

type mockTriviaService struct {
	mock.Mock
}

func (m *mockTriviaService) SearchMovie(ctx context.Context, userID, nickname, query string) (app.MovieCard, error) {
	args := m.Called(userID, nickname, query)
	return args.Get(0).(app.MovieCard), args.Error(1)
}

func (m *mockTriviaService) StartMovieQuiz(ctx context.Context, userID string, movieID int64) (app.QuizPrompt, error) {
	args := m.Called(userID, movieID)
	return args.Get(0).(app.QuizPrompt), args.Error(1)
}

func (m *mockTriviaService) AnswerMovieQuiz(ctx context.Context, userID, token string, index, selected int) (app.AnswerFeedback, error) {
	args := m.Called(userID, token, index, selected)
	return args.Get(0).(app.AnswerFeedback), args.Error(1)
}

func (m *mockTriviaService) AnswerDailyQuiz(ctx context.Context, userID, token string, selected int) (app.AnswerFeedback, error) {
	args := m.Called(userID, token, selected)
	return args.Get(0).(app.AnswerFeedback), args.Error(1)
}

func (m *mockTriviaService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *mockTriviaService) TopThree(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *mockTriviaService) MyScore(ctx context.Context, userID string) (int, domain.Tier, error) {
	args := m.Called(userID)
	return args.Int(0), args.Get(1).(domain.Tier), args.Error(2)
}

func (m *mockTriviaService) CreateDuel(ctx context.Context, challenger, opponent string) (domain.Duel, error) {
	args := m.Called(challenger, opponent)
	return args.Get(0).(domain.Duel), args.Error(1)
}

func (m *mockTriviaService) DiscoverByGenre(ctx context.Context, genreID int) (app.MovieCard, error) {
	args := m.Called(genreID)
	return args.Get(0).(app.MovieCard), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	if msg, ok := args.Get(0).(tgbotapi.Message); ok {
		return msg, args.Error(1)
	}
	return tgbotapi.Message{}, args.Error(1)
}

func (m *mockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return nil, args.Error(1)
}

func newTestHandler(t *testing.T) (*Handler, *mockSender, *mockTriviaService) {
	t.Helper()
	sender := new(mockSender)
	service := new(mockTriviaService)
	return NewHandler(sender, service, zap.NewNop()), sender, service
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: userID},
		From: &tgbotapi.User{ID: userID, FirstName: "Test"},
		Text: text,
	}
}

func sentText(c tgbotapi.Chattable) string {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		return msg.Text
	}
	return ""
}

func TestHandleTextMovieNotFound(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	service.On("SearchMovie", "42", "Test", "no such film").
		Return(app.MovieCard{}, domain.ErrMovieNotFound).Once()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return strings.Contains(sentText(c), "No movie found")
	})).Return(tgbotapi.Message{}, nil).Once()

	handler.HandleText(context.Background(), textMessage(42, "no such film"))

	service.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleTextSendsCardAndSimilar(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	card := app.MovieCard{
		Movie: domain.MovieSummary{
			ID:          603,
			Title:       "The Matrix",
			Overview:    "A hacker learns the truth.",
			ReleaseDate: "1999-03-31",
		},
		Similar: []string{"The Matrix Reloaded", "Dark City"},
	}
	service.On("SearchMovie", "42", "Test", "matrix").Return(card, nil).Once()

	var sent []string
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Run(func(args mock.Arguments) {
		sent = append(sent, sentText(args.Get(0).(tgbotapi.Chattable)))
	}).Twice()

	handler.HandleText(context.Background(), textMessage(42, "matrix"))

	require.Len(t, sent, 2)
	require.Contains(t, sent[0], "The Matrix")
	require.Contains(t, sent[0], "(1999)")
	require.Contains(t, sent[1], "Dark City")
	service.AssertExpectations(t)
}

func TestHandleCallbackIgnoresMalformedPayloads(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	for _, data := range []string{"mq:token", "mq:token:x:1", "dq::0", "quiz:abc", "mystery"} {
		sender.On("Request", mock.Anything).Return(nil, nil).Once()
		handler.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 42},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
			Data:    data,
		})
	}

	sender.AssertExpectations(t)
	sender.AssertNotCalled(t, "Send", mock.Anything)
	service.AssertExpectations(t)
}

func TestHandleCallbackMovieAnswerAdvances(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	next := app.QuizPrompt{
		Token:    "tok1",
		Index:    1,
		Total:    3,
		Title:    "The Matrix",
		Question: domain.Question{Prompt: "Second question?", Options: []string{"A", "B"}, Answer: 0},
	}
	service.On("AnswerMovieQuiz", "42", "tok1", 0, 1).
		Return(app.AnswerFeedback{Correct: true, Awarded: app.MovieQuizAward, Next: &next}, nil).Once()

	sender.On("Request", mock.Anything).Return(nil, nil).Once()
	var sent []string
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Run(func(args mock.Arguments) {
		sent = append(sent, sentText(args.Get(0).(tgbotapi.Chattable)))
	}).Twice()

	handler.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
		Data:    movieAnswerPayload("tok1", 0, 1),
	})

	require.Len(t, sent, 2)
	require.Contains(t, sent[0], "Correct")
	require.Contains(t, sent[1], "Question 2/3")
	service.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleCallbackStaleAnswerIsQuiet(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	service.On("AnswerMovieQuiz", "42", "old", 0, 0).
		Return(app.AnswerFeedback{}, domain.ErrStaleEvent).Once()
	sender.On("Request", mock.Anything).Return(nil, nil).Once()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return strings.Contains(sentText(c), "already finished")
	})).Return(tgbotapi.Message{}, nil).Once()

	handler.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
		Data:    movieAnswerPayload("old", 0, 0),
	})

	service.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleLeaderboardAnonymousFallback(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	service.On("Leaderboard").Return([]domain.LeaderboardEntry{
		{Rank: 1, UserID: "1", Nickname: "Alice", Score: 320, Tier: domain.TierGold},
		{Rank: 2, UserID: "2", Nickname: "", Score: 150, Tier: domain.TierSilver},
	}, nil).Once()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		text := sentText(c)
		return strings.Contains(text, "Alice") && strings.Contains(text, "Anonymous")
	})).Return(tgbotapi.Message{}, nil).Once()

	handler.HandleLeaderboard(context.Background(), 42)

	service.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleMyScore(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	service.On("MyScore", "42").Return(155, domain.TierSilver, nil).Once()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return strings.Contains(sentText(c), "155 pts 🥈")
	})).Return(tgbotapi.Message{}, nil).Once()

	handler.HandleMyScore(context.Background(), 42, &tgbotapi.User{ID: 42, FirstName: "Test"})

	service.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleDuel(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	msg := textMessage(42, "/duel 99")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}}

	service.On("CreateDuel", "42", "99").Return(domain.Duel{ID: 1}, nil).Once()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return strings.Contains(sentText(c), "Duel requested")
	})).Return(tgbotapi.Message{}, nil).Once()

	handler.HandleDuel(context.Background(), msg)

	service.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleDuelWithoutOpponent(t *testing.T) {
	handler, sender, service := newTestHandler(t)

	msg := textMessage(42, "/duel")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}}

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return strings.Contains(sentText(c), "Usage")
	})).Return(tgbotapi.Message{}, nil).Once()

	handler.HandleDuel(context.Background(), msg)

	sender.AssertExpectations(t)
	service.AssertNotCalled(t, "CreateDuel", mock.Anything, mock.Anything)
}
