package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KirkDiggler/rpg-helper-bot/internal/repositories/games"
)

var importCmd = &cobra.Command{
	Use:   "import <dir> <game>",
	Short: "Copy a game directory into Redis",
	Long: `Reads the game <game> from the games directory <dir> and writes its
characters, owners, defaults and macros to the Redis backend configured by
REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	dir, name := args[0], args[1]

	client, err := connectRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}
	defer client.Close()

	src := games.NewFileRepository(&games.FileRepoConfig{Root: dir})
	dst := games.NewRedis(client)

	if err := importGame(ctx, src, dst, name); err != nil {
		return err
	}

	logger.Info("game imported", zap.String("game", name), zap.String("dir", dir))
	return nil
}

// importGame copies one game between repositories. Macros go first so the
// destination is loadable as soon as the characters land.
func importGame(ctx context.Context, src, dst games.Repository, name string) error {
	state, err := src.Load(ctx, name)
	if err != nil {
		return err
	}

	if err := dst.SaveMacros(ctx, name, state.Macros); err != nil {
		return err
	}

	return dst.Save(ctx, name, state)
}
