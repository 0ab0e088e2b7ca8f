package telegram

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot owns the Telegram update stream and routes updates to the Handler.
// With a webhook URL configured it registers the webhook and exposes an
// http.Handler for the server mux; otherwise it falls back to long polling.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	log     *zap.Logger

	webhookURL  string
	webhookPath string
}

func NewBot(token, webhookURL, webhookPath string, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Bot{
		api:         api,
		log:         log,
		webhookURL:  webhookURL,
		webhookPath: webhookPath,
	}, nil
}

// API exposes the underlying client; the Courier and the Handler send
// through it.
func (b *Bot) API() *tgbotapi.BotAPI { return b.api }

// Attach wires the update handler. Must be called before WebhookHandler or
// Poll.
func (b *Bot) Attach(handler *Handler) { b.handler = handler }

// WebhookHandler registers the webhook with Telegram and returns the handler
// to mount at the webhook path. Returns nil when polling mode is configured.
func (b *Bot) WebhookHandler(ctx context.Context) (http.Handler, error) {
	if b.webhookURL == "" {
		return nil, nil
	}
	wh, err := tgbotapi.NewWebhook(b.webhookURL + b.webhookPath)
	if err != nil {
		return nil, fmt.Errorf("telegram webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return nil, fmt.Errorf("telegram set webhook: %w", err)
	}
	b.log.Info("telegram webhook registered", zap.String("path", b.webhookPath))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Updates outlive the webhook request; they run on the server context.
		go b.route(ctx, *update)
	}), nil
}

// Poll runs the long-polling loop until the context is cancelled. Used when
// no webhook URL is configured.
func (b *Bot) Poll(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)
	b.log.Info("telegram polling started", zap.String("bot", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.route(ctx, update)
		}
	}
}

func (b *Bot) route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handler.HandleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return
		}
		switch msg.Command() {
		case "start", "help":
			b.handler.HandleHelp(msg.Chat.ID)
		case "leaderboard":
			b.handler.HandleLeaderboard(ctx, msg.Chat.ID)
		case "monthlyposter":
			b.handler.HandleMonthlyPoster(ctx, msg.Chat.ID)
		case "score", "myscore":
			b.handler.HandleMyScore(ctx, msg.Chat.ID, msg.From)
		case "duel":
			b.handler.HandleDuel(ctx, msg)
		case "":
			if msg.Text != "" {
				b.handler.HandleText(ctx, msg)
			}
		}
	}
}
