package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/app"
	"movie-trivia-bot/internal/config"
	"movie-trivia-bot/internal/infra/memory"
	pgstore "movie-trivia-bot/internal/infra/postgres"
	redisstore "movie-trivia-bot/internal/infra/redis"
	"movie-trivia-bot/internal/infra/tmdb"
	"movie-trivia-bot/internal/logger"
	"movie-trivia-bot/internal/transport/telegram"
)

// NewResetCmd runs the monthly reset once and exits. Useful for manual runs
// and for external schedulers.
func NewResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Run the monthly score reset once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd.Context(), *configPath)
		},
	}
}

func runReset(ctx context.Context, configPath string) error {
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
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr not configured; a one-shot reset needs the shared ledger")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := redisstore.NewLedgerStore(client)

	bot, err := telegram.NewBot(token, "", "", log)
	if err != nil {
		return err
	}
	courier := telegram.NewCourier(bot.API())

	var opts []app.Option
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pool.Close()
		opts = append(opts, app.WithArchiver(pgstore.NewArchiveStore(pool)))
	}

	movies := tmdb.NewClient(os.Getenv("TMDB_API_KEY"), tmdb.WithTTL(time.Minute))
	service := app.NewTriviaService(store, movies, memory.NewDuelStore(), courier, nil, log, opts...)

	report, err := service.MonthlyReset(ctx)
	if err != nil {
		return err
	}
	log.Info("reset finished",
		zap.String("period", report.Period),
		zap.Int("users", report.Users),
		zap.Int("notified", report.Notified),
		zap.Int("failed", len(report.Failed)))
	return nil
}
