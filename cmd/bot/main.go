package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-helper-bot/internal/config"
	"github.com/KirkDiggler/rpg-helper-bot/internal/handlers/discord"
	"github.com/KirkDiggler/rpg-helper-bot/internal/handlers/slack"
	"github.com/KirkDiggler/rpg-helper-bot/internal/logging"
	"github.com/KirkDiggler/rpg-helper-bot/internal/metrics"
	"github.com/KirkDiggler/rpg-helper-bot/internal/repositories/games"
	"github.com/KirkDiggler/rpg-helper-bot/internal/services"
	"github.com/KirkDiggler/rpg-helper-bot/internal/watcher"
)

var (
	// Global flags
	loadGame string
	platform string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "rpg-helper",
	Short: "Chat bot that rolls dice and expands character macros",
	Long: `rpg-helper listens to a Discord or Slack workspace and answers:

  !load <game>                 load a game directory
  !character add <definition>  define one of your characters
  !character del <name>        delete one of your characters
  !roll <expression|macro>     roll dice, e.g. !roll 2d6+3 or !roll atk A`,
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&loadGame, "load", "l", "", "load a game by default on start")
	rootCmd.Flags().StringVar(&platform, "platform", "", "chat platform to connect to (discord or slack)")

	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env, the environment config and the logger
func setup() (*config.Config, *zap.Logger, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if platform != "" {
		cfg.Platform = platform
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{Level: level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := newRepository(ctx, cfg, logger)
	defer closeRepo()

	var collector *metrics.Collector
	providerConfig := &services.ProviderConfig{
		GameRepository: repo,
		Logger:         logger,
	}
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector()
		providerConfig.Metrics = collector
	}

	provider := services.NewProvider(providerConfig)

	if loadGame != "" {
		msg, err := provider.GameService.Load(ctx, loadGame)
		if err != nil {
			logger.Warn("failed to load game on start", zap.String("game", loadGame), zap.Error(err))
		} else {
			logger.Info(msg)
		}
	}

	var adapter runner
	switch cfg.Platform {
	case config.PlatformSlack:
		adapter = slack.NewHandler(&slack.HandlerConfig{
			BotToken: cfg.Slack.BotToken,
			AppToken: cfg.Slack.AppToken,
			Commands: provider.Router,
			Logger:   logger,
		})
	default:
		adapter = discord.NewHandler(&discord.HandlerConfig{
			Token:    cfg.Discord.Token,
			Commands: provider.Router,
			Logger:   logger,
		})
	}

	g, ctx := errgroup.WithContext(ctx)

	if collector != nil {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.MetricsAddr, collector, logger)
		})
	}

	if cfg.WatchGames && cfg.Storage.Backend == config.StorageFile {
		w := watcher.New(&watcher.Config{
			Root:      cfg.Storage.GamesDir,
			Refresher: provider.GameService,
			Logger:    logger,
		})
		g.Go(func() error {
			if err := w.Run(ctx); err != nil {
				logger.Warn("macro watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		return runWithRestart(ctx, adapter, cfg.RestartDelay, logger)
	})

	logger.Info("bot is running", zap.String("platform", cfg.Platform), zap.String("storage", cfg.Storage.Backend))

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// newRepository picks the storage backend. Redis falls back to files when
// the server cannot be reached.
func newRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (games.Repository, func()) {
	fileRepo := games.NewFileRepository(&games.FileRepoConfig{Root: cfg.Storage.GamesDir})
	if cfg.Storage.Backend != config.StorageRedis {
		logger.Info("using file storage", zap.String("dir", cfg.Storage.GamesDir))
		return fileRepo, func() {}
	}

	client, err := connectRedis(ctx, cfg)
	if err != nil {
		logger.Warn("failed to connect to Redis, falling back to file storage",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		return fileRepo, func() {}
	}

	logger.Info("using Redis storage", zap.String("addr", cfg.Redis.Addr))
	return games.NewRedis(client), func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close Redis connection", zap.Error(err))
		}
	}
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// runner is a chat platform connection
type runner interface {
	Run(ctx context.Context) error
}

// runWithRestart keeps the connection up. A failed run is retried after
// delay until ctx is done.
func runWithRestart(ctx context.Context, r runner, delay time.Duration, logger *zap.Logger) error {
	for {
		err := r.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("connection closed")
		}

		logger.Error("chat connection failed, restarting",
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
