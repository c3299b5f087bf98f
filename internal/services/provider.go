package services

import (
	"github.com/KirkDiggler/rpg-helper-bot/internal/commands"
	"github.com/KirkDiggler/rpg-helper-bot/internal/dice"
	"github.com/KirkDiggler/rpg-helper-bot/internal/repositories/games"
	gameService "github.com/KirkDiggler/rpg-helper-bot/internal/services/game"
	"github.com/KirkDiggler/rpg-helper-bot/internal/uuid"
	"go.uber.org/zap"
)

// Provider holds all service instances
type Provider struct {
	GameService gameService.Service
	Router      *commands.Router
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	GameRepository games.Repository
	Roller         dice.Roller
	Logger         *zap.Logger
	UUIDGenerator  uuid.Generator
	Metrics        commands.MetricsCollector
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	// Use in-memory repository if none provided
	repo := cfg.GameRepository
	if repo == nil {
		repo = games.NewInMemoryRepository()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := gameService.NewService(&gameService.ServiceConfig{
		Repository: repo,
		Roller:     cfg.Roller,
		Logger:     logger,
	})

	router := commands.New(&commands.RouterConfig{
		Service:       svc,
		Logger:        logger,
		UUIDGenerator: cfg.UUIDGenerator,
		Metrics:       cfg.Metrics,
	})

	return &Provider{
		GameService: svc,
		Router:      router,
	}
}
