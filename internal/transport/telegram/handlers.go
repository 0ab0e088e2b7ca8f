package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/app"
	"movie-trivia-bot/internal/domain"
)

// MessageSender is the slice of the Telegram API the handlers need.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TriviaService is the application surface consumed by the handlers.
type TriviaService interface {
	SearchMovie(ctx context.Context, userID, nickname, query string) (app.MovieCard, error)
	StartMovieQuiz(ctx context.Context, userID string, movieID int64) (app.QuizPrompt, error)
	AnswerMovieQuiz(ctx context.Context, userID, token string, index, selected int) (app.AnswerFeedback, error)
	AnswerDailyQuiz(ctx context.Context, userID, token string, selected int) (app.AnswerFeedback, error)
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	TopThree(ctx context.Context) ([]domain.LeaderboardEntry, error)
	MyScore(ctx context.Context, userID string) (int, domain.Tier, error)
	CreateDuel(ctx context.Context, challenger, opponent string) (domain.Duel, error)
	DiscoverByGenre(ctx context.Context, genreID int) (app.MovieCard, error)
}

type Handler struct {
	bot     MessageSender
	service TriviaService
	log     *zap.Logger
}

func NewHandler(bot MessageSender, service TriviaService, log *zap.Logger) *Handler {
	return &Handler{bot: bot, service: service, log: log}
}

// HandleText treats any plain text as a movie search query.
func (h *Handler) HandleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)

	card, err := h.service.SearchMovie(ctx, userID, msg.From.FirstName, msg.Text)
	if err != nil {
		if errors.Is(err, domain.ErrMovieNotFound) {
			h.send(tgbotapi.NewMessage(chatID, "🙅🏽‍♂️ No movie found. Try another title."))
			return
		}
		h.log.Error("movie search failed", zap.String("user", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Something went wrong, please try again."))
		return
	}

	year := ""
	if parts := strings.SplitN(card.Movie.ReleaseDate, "-", 2); parts[0] != "" {
		year = " (" + parts[0] + ")"
	}
	overview := card.Movie.Overview
	if overview == "" {
		overview = "No summary available."
	}
	caption := fmt.Sprintf("🎬 %s%s\n🗂️ %s", card.Movie.Title, year, overview)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎞️ Watch Trailer", trailerURL(card.Movie.Title)),
			tgbotapi.NewInlineKeyboardButtonURL("⬇️ Download", downloadURL(card.Movie.Title)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧠 Take the Quiz", quizPrefix+strconv.FormatInt(card.Movie.ID, 10)),
			tgbotapi.NewInlineKeyboardButtonData("📊 Leaderboard", payloadBoard),
		),
	)

	if card.PosterURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(card.PosterURL))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		h.send(photo)
	} else {
		reply := tgbotapi.NewMessage(chatID, caption)
		reply.ReplyMarkup = keyboard
		h.send(reply)
	}

	if len(card.Similar) > 0 {
		h.send(tgbotapi.NewMessage(chatID, "✨ You might also like: "+strings.Join(card.Similar, ", ")))
	}
}

// HandleCallback routes button presses. Malformed or unknown payloads are
// acknowledged and dropped without touching any state.
func (h *Handler) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.log.Warn("answer callback failed", zap.Error(err))
	}
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	userID := strconv.FormatInt(callback.From.ID, 10)
	data := callback.Data

	switch {
	case data == payloadBoard:
		h.sendLeaderboard(ctx, chatID)

	case strings.HasPrefix(data, quizPrefix):
		movieID, ok := parseQuizStart(data)
		if !ok {
			return
		}
		h.startQuiz(ctx, chatID, userID, movieID)

	case strings.HasPrefix(data, movieAnswerPrefix):
		event, ok := parseMovieAnswer(data)
		if !ok {
			return
		}
		h.answerMovieQuiz(ctx, chatID, userID, event)

	case strings.HasPrefix(data, dailyAnswerPrefix):
		event, ok := parseDailyAnswer(data)
		if !ok {
			return
		}
		h.answerDailyQuiz(ctx, chatID, userID, event)

	case genreShortcuts[data] != 0:
		h.discover(ctx, chatID, genreShortcuts[data])

	case strings.HasPrefix(data, votePrefix):
		h.send(tgbotapi.NewMessage(chatID, "Thanks for voting! 🎉"))
	}
}

func (h *Handler) startQuiz(ctx context.Context, chatID int64, userID string, movieID int64) {
	prompt, err := h.service.StartMovieQuiz(ctx, userID, movieID)
	if err != nil {
		if errors.Is(err, domain.ErrNoQuiz) || errors.Is(err, domain.ErrMovieNotFound) {
			h.send(tgbotapi.NewMessage(chatID, "🙅🏽‍♂️ No quiz available for this movie."))
			return
		}
		h.log.Error("start quiz failed", zap.String("user", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Something went wrong, please try again."))
		return
	}
	h.sendQuestion(chatID, prompt)
}

func (h *Handler) answerMovieQuiz(ctx context.Context, chatID int64, userID string, event movieAnswerEvent) {
	feedback, err := h.service.AnswerMovieQuiz(ctx, userID, event.Token, event.Index, event.Selected)
	if err != nil {
		if errors.Is(err, domain.ErrStaleEvent) || errors.Is(err, domain.ErrNoSession) {
			h.send(tgbotapi.NewMessage(chatID, "This quiz is already finished. Start a new one!"))
			return
		}
		h.log.Error("movie quiz answer failed", zap.String("user", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Something went wrong, please try again."))
		return
	}

	if feedback.Correct {
		h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Correct! +%d pts", feedback.Awarded)))
	} else {
		h.send(tgbotapi.NewMessage(chatID, "❌ Wrong!"))
	}

	if feedback.Done {
		h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"🏁 Quiz complete for %q: you got %d of %d right!",
			feedback.Title, feedback.FinalScore, feedback.Total)))
		return
	}
	if feedback.Next != nil {
		h.sendQuestion(chatID, *feedback.Next)
	}
}

func (h *Handler) answerDailyQuiz(ctx context.Context, chatID int64, userID string, event dailyAnswerEvent) {
	feedback, err := h.service.AnswerDailyQuiz(ctx, userID, event.Token, event.Selected)
	if err != nil {
		if errors.Is(err, domain.ErrStaleEvent) || errors.Is(err, domain.ErrNoSession) {
			h.send(tgbotapi.NewMessage(chatID, "Today's quiz is already done. See you tomorrow!"))
			return
		}
		h.log.Error("daily quiz answer failed", zap.String("user", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Something went wrong, please try again."))
		return
	}
	if feedback.Correct {
		h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Correct! +%d pts", feedback.Awarded)))
	} else {
		h.send(tgbotapi.NewMessage(chatID, "❌ Wrong! Try again tomorrow."))
	}
}

func (h *Handler) discover(ctx context.Context, chatID int64, genreID int) {
	card, err := h.service.DiscoverByGenre(ctx, genreID)
	if err != nil {
		h.send(tgbotapi.NewMessage(chatID, "🙅🏽‍♂️ Nothing found for that mood right now."))
		return
	}
	caption := fmt.Sprintf("🎬 %s\n⭐ %.1f/10", card.Movie.Title, card.Movie.VoteAverage)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎞️ Trailer", trailerURL(card.Movie.Title)),
		),
	)
	if card.PosterURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(card.PosterURL))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		h.send(photo)
		return
	}
	reply := tgbotapi.NewMessage(chatID, caption)
	reply.ReplyMarkup = keyboard
	h.send(reply)
}

// sendQuestion renders one quiz prompt with an option button per row.
func (h *Handler) sendQuestion(chatID int64, prompt app.QuizPrompt) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range prompt.Question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option, movieAnswerPayload(prompt.Token, prompt.Index, i)),
		))
	}
	text := fmt.Sprintf("❓ Question %d/%d\n\n%s", prompt.Index+1, prompt.Total, prompt.Question.Prompt)
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.send(reply)
}

// HandleDuel processes /duel <opponent>.
func (h *Handler) HandleDuel(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	opponent := strings.TrimSpace(msg.CommandArguments())
	if opponent == "" {
		h.send(tgbotapi.NewMessage(chatID, "Usage: /duel <user id>"))
		return
	}
	challenger := strconv.FormatInt(msg.From.ID, 10)
	if _, err := h.service.CreateDuel(ctx, challenger, opponent); err != nil {
		h.log.Error("create duel failed", zap.String("challenger", challenger), zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Couldn't save the duel, please try again."))
		return
	}
	h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("🤜 Duel requested with user %s!", opponent)))
}

// HandleLeaderboard processes /leaderboard and the board button.
func (h *Handler) HandleLeaderboard(ctx context.Context, chatID int64) {
	h.sendLeaderboard(ctx, chatID)
}

func (h *Handler) sendLeaderboard(ctx context.Context, chatID int64) {
	entries, err := h.service.Leaderboard(ctx)
	if err != nil {
		h.log.Error("leaderboard failed", zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Couldn't load the leaderboard, please try again."))
		return
	}
	h.send(tgbotapi.NewMessage(chatID, "🏆 Leaderboard\n\n"+formatBoard(entries)))
}

// HandleMonthlyPoster processes /monthlyposter.
func (h *Handler) HandleMonthlyPoster(ctx context.Context, chatID int64) {
	entries, err := h.service.TopThree(ctx)
	if err != nil {
		h.log.Error("monthly poster failed", zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Couldn't load the top players, please try again."))
		return
	}
	h.send(tgbotapi.NewMessage(chatID, "🏆 Top Movie Masters of the Month\n\n"+formatBoard(entries)))
}

// HandleMyScore processes /score.
func (h *Handler) HandleMyScore(ctx context.Context, chatID int64, user *tgbotapi.User) {
	userID := strconv.FormatInt(user.ID, 10)
	score, tier, err := h.service.MyScore(ctx, userID)
	if err != nil {
		h.log.Error("my score failed", zap.String("user", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(chatID, "Couldn't load your score, please try again."))
		return
	}
	h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("%s, you have %d pts %s", user.FirstName, score, tier.Medal())))
}

// HandleHelp processes /start and /help.
func (h *Handler) HandleHelp(chatID int64) {
	text := "Welcome to Movie Trivia Bot! Here's what I can do:\n\n" +
		"Send any movie title to look it up and earn points\n" +
		"/leaderboard - show the leaderboard\n" +
		"/monthlyposter - top movie masters of the month\n" +
		"/score - your current score\n" +
		"/duel <user id> - challenge a friend\n" +
		"/help - show this message"
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Leaderboard", payloadBoard),
		),
	)
	h.send(reply)
}

func (h *Handler) send(msg tgbotapi.Chattable) {
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("send message failed", zap.Error(err))
	}
}
