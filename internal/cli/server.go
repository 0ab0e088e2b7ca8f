package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/app"
	"movie-trivia-bot/internal/config"
	"movie-trivia-bot/internal/infra/memory"
	pgstore "movie-trivia-bot/internal/infra/postgres"
	redisstore "movie-trivia-bot/internal/infra/redis"
	"movie-trivia-bot/internal/infra/tmdb"
	"movie-trivia-bot/internal/logger"
	transport "movie-trivia-bot/internal/transport/http"
	"movie-trivia-bot/internal/transport/telegram"
)

// Default job schedules (cron, local time).
const (
	defaultMonthlyReset  = "0 0 1 * *"
	defaultDailyQuiz     = "0 10 * * *"
	defaultMorningPrompt = "0 8 * * *"
	defaultEveningPrompt = "0 20 * * *"
	defaultUpcomingAlert = "0 12 * * *"
)

// NewStartCmd builds the CLI subcommand to start the bot server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.Env)
	defer log.Sync()

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	tmdbKey := os.Getenv("TMDB_API_KEY")
	if tmdbKey == "" {
		return fmt.Errorf("TMDB_API_KEY is not set")
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store app.LedgerStore = memory.NewLedgerStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisstore.NewLedgerStore(client)
		log.Info("using redis ledger", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Info("using in-memory ledger")
	}

	var duels app.DuelStore = memory.NewDuelStore()
	var serviceOpts []app.Option
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pool.Close()
		serviceOpts = append(serviceOpts, app.WithArchiver(pgstore.NewArchiveStore(pool)))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		duels = pgstore.NewDuelStore(db)
		log.Info("using postgres for duels and reset history")
	}

	tmdbOpts := []tmdb.ClientOption{
		tmdb.WithTTL(config.TTLDuration(cfg.TMDB.TTL, 10*time.Minute)),
	}
	if cfg.TMDB.BaseURL != "" {
		tmdbOpts = append(tmdbOpts, tmdb.WithBaseURL(cfg.TMDB.BaseURL))
	}
	if cfg.TMDB.ImageBase != "" {
		tmdbOpts = append(tmdbOpts, tmdb.WithImageBase(cfg.TMDB.ImageBase))
	}
	movies := tmdb.NewClient(tmdbKey, tmdbOpts...)

	if cfg.Leaderboard.Size > 0 {
		serviceOpts = append(serviceOpts, app.WithBoardSize(cfg.Leaderboard.Size))
	}

	webhookPath := cfg.Telegram.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook"
	}
	bot, err := telegram.NewBot(token, cfg.Telegram.WebhookURL, webhookPath, log)
	if err != nil {
		return err
	}
	courier := telegram.NewCourier(bot.API())

	feed := app.NewLeaderboardFeed()
	service := app.NewTriviaService(store, movies, duels, courier, feed, log, serviceOpts...)
	bot.Attach(telegram.NewHandler(bot.API(), service, log))

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	wsHandler := transport.NewWSHandler(feed, log)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	webhook, err := bot.WebhookHandler(serverCtx)
	if err != nil {
		return err
	}
	if webhook != nil {
		mux.Handle(webhookPath, webhook)
	} else {
		go bot.Poll(serverCtx)
	}

	scheduler := cron.New()
	if err := scheduleJobs(scheduler, cfg, service, log); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting trivia bot server", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down")
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func scheduleJobs(scheduler *cron.Cron, cfg config.Config, service *app.TriviaService, log *zap.Logger) error {
	jobs := []struct {
		name     string
		spec     string
		fallback string
		run      func(context.Context) error
	}{
		{"monthly_reset", cfg.Jobs.MonthlyReset, defaultMonthlyReset, func(ctx context.Context) error {
			_, err := service.MonthlyReset(ctx)
			return err
		}},
		{"daily_quiz", cfg.Jobs.DailyQuiz, defaultDailyQuiz, service.SendDailyQuiz},
		{"morning_prompt", cfg.Jobs.MorningPrompt, defaultMorningPrompt, service.MorningPrompt},
		{"evening_prompt", cfg.Jobs.EveningPrompt, defaultEveningPrompt, service.EveningPrompt},
		{"upcoming_alert", cfg.Jobs.UpcomingAlert, defaultUpcomingAlert, service.UpcomingAlert},
	}
	for _, job := range jobs {
		job := job
		spec := job.spec
		if spec == "" {
			spec = job.fallback
		}
		_, err := scheduler.AddFunc(spec, func() {
			if err := job.run(context.Background()); err != nil {
				log.Error("scheduled job failed", zap.String("job", job.name), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
	}
	return nil
}
