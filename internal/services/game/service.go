package game

//go:generate mockgen -destination=mock/mock_service.go -package=mockgame -source=service.go

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/KirkDiggler/rpg-helper-bot/internal/dice"
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/game"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
	"github.com/KirkDiggler/rpg-helper-bot/internal/macro"
	"github.com/KirkDiggler/rpg-helper-bot/internal/repositories/games"
	"go.uber.org/zap"
)

// Repository is an alias for the game repository interface
type Repository = games.Repository

// NoGameMessage is returned for every command except load until a game is loaded
const NoGameMessage = "No game has been loaded. Load using command `!load <game>`"

// Service owns the loaded game and is the only way to read or change it
type Service interface {
	// Load replaces the current game with the named one
	Load(ctx context.Context, name string) (string, error)

	// Loaded reports whether a game is loaded
	Loaded() bool

	// CurrentGame is the name of the loaded game, empty when none is
	CurrentGame() string

	// AddCharacter creates or redefines a character from
	// `<name> <str,dex,con,int,wis,cha> <prof,...> <hitdice> <level>`
	AddCharacter(ctx context.Context, userID, args string) (string, error)

	// DeleteCharacter removes one of the user's characters
	DeleteCharacter(ctx context.Context, userID, name string) (string, error)

	// Roll resolves macros for the user and rolls the result
	Roll(ctx context.Context, userID, text string) (string, error)

	// RefreshMacros re-reads the macro dictionary of the loaded game
	RefreshMacros(ctx context.Context) error
}

type service struct {
	mu         sync.Mutex
	repository Repository
	engine     *dice.Engine
	logger     *zap.Logger

	name  string
	state *game.State
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository Repository  // Required
	Roller     dice.Roller // Optional, random when nil
	Logger     *zap.Logger // Optional
}

// NewService creates a new game service with no game loaded
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("ServiceConfig cannot be nil")
	}
	if cfg.Repository == nil {
		panic("repository is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &service{
		repository: cfg.Repository,
		engine:     dice.NewEngine(&dice.EngineConfig{Roller: cfg.Roller}),
		logger:     logger.Named("game"),
	}
}

func (s *service) Load(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repository.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", dnderr.NotFoundf("Game path `%s` does not exist", name).
			WithMeta("game", name)
	}

	state, err := s.repository.Load(ctx, name)
	if err != nil {
		return "", err
	}

	previous := s.name
	s.name = name
	s.state = state

	s.logger.Info("game loaded",
		zap.String("game", name),
		zap.String("previous", previous),
		zap.Int("characters", len(state.Characters)),
		zap.Int("macros", len(state.Macros)))

	if previous == "" {
		return fmt.Sprintf("New game `%s` loaded", name), nil
	}
	return fmt.Sprintf("Game `%s` was replaced with game `%s`", previous, name), nil
}

func (s *service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state != nil
}

func (s *service) CurrentGame() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.name
}

func (s *service) AddCharacter(ctx context.Context, userID, args string) (string, error) {
	cfg, err := parseCharacter(args)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGame(); err != nil {
		return "", err
	}

	// an existing name may only be redefined by its owner, unowned records included
	if existing, ok := s.state.Character(cfg.Name); ok {
		if !s.state.Owns(userID, cfg.Name) {
			owner, _ := s.state.OwnerOf(cfg.Name)
			return "", dnderr.AlreadyExistsf("Cannot recreate %s for <@%s> as it is already assigned to some other player.", cfg.Name, userID).
				WithMeta("character", cfg.Name).
				WithMeta("owner", owner)
		}
		cfg.Macros = existing.Macros()
	}

	next := s.state.Clone()
	next.PutCharacter(userID, character.NewCharacter(cfg))

	if err := s.commit(ctx, next); err != nil {
		return "", err
	}

	s.logger.Info("character saved",
		zap.String("user_id", userID),
		zap.String("character", cfg.Name))

	return fmt.Sprintf("Successfully created character %s for <@%s>", cfg.Name, userID), nil
}

func (s *service) DeleteCharacter(ctx context.Context, userID, name string) (string, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGame(); err != nil {
		return "", err
	}

	if len(s.state.CharactersOf(userID)) == 0 {
		return "", dnderr.NotFoundf("<@%s> does not have characters.", userID).
			WithMeta("user_id", userID)
	}
	if !s.state.Owns(userID, name) {
		return "", dnderr.NotFoundf("<@%s> does not have a character by name: %s.", userID, name).
			WithMeta("user_id", userID).
			WithMeta("character", name)
	}

	next := s.state.Clone()
	next.RemoveCharacter(userID, name)

	if err := s.commit(ctx, next); err != nil {
		return "", err
	}

	s.logger.Info("character deleted",
		zap.String("user_id", userID),
		zap.String("character", name))

	return fmt.Sprintf("Successfully deleted %s for <@%s>", name, userID), nil
}

func (s *service) Roll(_ context.Context, userID, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGame(); err != nil {
		return "", err
	}

	resolution, err := macro.Resolve(s.state, userID, text)
	if err != nil {
		return "", err
	}

	result, err := s.engine.Evaluate(resolution.Expression)
	if err != nil {
		if dnderr.IsInvalidArgument(err) {
			return "", dnderr.InvalidArgumentf("<@%s> %s", userID, dice.Usage).
				WithMeta("expression", resolution.Expression)
		}
		return "", err
	}

	s.logger.Debug("rolled",
		zap.String("user_id", userID),
		zap.String("character", resolution.Character),
		zap.String("macro", resolution.Macro),
		zap.String("expression", resolution.Expression),
		zap.Int("total", result.Total))

	return fmt.Sprintf("<@%s> rolled `%s` for %s\n```%s```",
		userID, resolution.Expression, resolution.Character, result), nil
}

func (s *service) RefreshMacros(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil
	}

	fresh, err := s.repository.Load(ctx, s.name)
	if err != nil {
		return err
	}

	s.state.Macros = fresh.Macros
	s.logger.Info("macros reloaded",
		zap.String("game", s.name),
		zap.Int("macros", len(fresh.Macros)))

	return nil
}

func (s *service) requireGame() error {
	if s.state == nil {
		return dnderr.FailedPrecondition(NoGameMessage)
	}
	return nil
}

// commit persists next and only then makes it the current state
func (s *service) commit(ctx context.Context, next *game.State) error {
	if err := s.repository.Save(ctx, s.name, next); err != nil {
		s.logger.Error("failed to save game",
			zap.String("game", s.name),
			zap.Error(err))
		return err
	}

	s.state = next
	return nil
}

// parseCharacter reads `<name> <stats> <proficient> <hitdice> <level>`
func parseCharacter(args string) (*character.Config, error) {
	fields := strings.Fields(args)
	if len(fields) != 5 {
		return nil, dnderr.InvalidArgumentf("Unable to parse character (%s)", args)
	}

	cfg := &character.Config{
		Name:   fields[0],
		Scores: make(map[character.Ability]int, len(character.Abilities)),
	}

	stats := strings.Split(fields[1], ",")
	if len(stats) != len(character.Abilities) {
		return nil, dnderr.InvalidArgumentf("Unable to parse character stats (%s)", fields[1])
	}
	for i, ability := range character.Abilities {
		score, err := strconv.Atoi(strings.TrimSpace(stats[i]))
		if err != nil {
			return nil, dnderr.InvalidArgumentf("Unable to parse character stats (%s)", fields[1])
		}
		cfg.Scores[ability] = score
	}

	cfg.ProficientRolls = parseProficient(fields[2])

	hitDice, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, dnderr.InvalidArgumentf("Unable to parse character hitdice (%s)", fields[3])
	}
	cfg.HitDice = hitDice

	level, err := strconv.Atoi(fields[4])
	if err != nil || level < 1 {
		return nil, dnderr.InvalidArgumentf("Unable to parse character level (%s)", fields[4])
	}
	cfg.Level = level

	return cfg, nil
}

// parseProficient splits a comma list of macro names. "none" and "-" mean no proficiencies.
func parseProficient(field string) []string {
	if field == "none" || field == "-" {
		return []string{}
	}

	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, name := range strings.Split(field, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
