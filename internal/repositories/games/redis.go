package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/game"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
	"github.com/redis/go-redis/v9"
)

// gamesKey is the set of every game name stored in Redis
const gamesKey = "games"

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// redisRepo stores each game as four hashes:
// game:<name>:characters, game:<name>:user_to_characters,
// game:<name>:user_default and game:<name>:macros
type redisRepo struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed game repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}

	return &redisRepo{
		client: cfg.Client,
	}
}

func (r *redisRepo) charactersKey(name string) string {
	return fmt.Sprintf("game:%s:characters", name)
}

func (r *redisRepo) userToCharactersKey(name string) string {
	return fmt.Sprintf("game:%s:user_to_characters", name)
}

func (r *redisRepo) userDefaultKey(name string) string {
	return fmt.Sprintf("game:%s:user_default", name)
}

func (r *redisRepo) macrosKey(name string) string {
	return fmt.Sprintf("game:%s:macros", name)
}

func (r *redisRepo) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}

	ok, err := r.client.SIsMember(ctx, gamesKey, name).Result()
	if err != nil {
		return false, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to check game in Redis")
	}

	return ok, nil
}

func (r *redisRepo) Load(ctx context.Context, name string) (*game.State, error) {
	exists, err := r.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dnderr.NotFoundf("Game path `%s` does not exist", name).
			WithMeta("game", name)
	}

	pipe := r.client.Pipeline()
	charactersCmd := pipe.HGetAll(ctx, r.charactersKey(name))
	ownersCmd := pipe.HGetAll(ctx, r.userToCharactersKey(name))
	defaultsCmd := pipe.HGetAll(ctx, r.userDefaultKey(name))
	macrosCmd := pipe.HGetAll(ctx, r.macrosKey(name))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to read game from Redis")
	}

	characters := charactersCmd.Val()
	owners := ownersCmd.Val()
	defaults := defaultsCmd.Val()
	macros := macrosCmd.Val()

	if len(macros) == 0 {
		return nil, dnderr.NotFoundf("Game `%s` has no macros", name).
			WithMeta("game", name)
	}

	state := game.NewState()
	state.Macros = macros
	state.UserDefault = defaults

	for charName, data := range characters {
		var c character.Character
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to decode character %s", charName))
		}
		state.Characters[charName] = &c
	}

	for user, data := range owners {
		var names []string
		if err := json.Unmarshal([]byte(data), &names); err != nil {
			return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to decode characters of %s", user))
		}
		state.UserToCharacters[user] = names
	}

	return state.Normalize(), nil
}

func (r *redisRepo) Save(ctx context.Context, name string, state *game.State) error {
	if state == nil {
		return dnderr.InvalidArgument("state cannot be nil")
	}

	characters := make(map[string]string, len(state.Characters))
	for charName, c := range state.Characters {
		data, err := json.Marshal(c)
		if err != nil {
			return dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to encode character %s", charName))
		}
		characters[charName] = string(data)
	}

	owners := make(map[string]string, len(state.UserToCharacters))
	for user, names := range state.UserToCharacters {
		data, err := json.Marshal(names)
		if err != nil {
			return dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to encode characters of %s", user))
		}
		owners[user] = string(data)
	}

	pipe := r.client.TxPipeline()
	replaceHash(ctx, pipe, r.charactersKey(name), characters)
	replaceHash(ctx, pipe, r.userToCharactersKey(name), owners)
	replaceHash(ctx, pipe, r.userDefaultKey(name), state.UserDefault)
	pipe.SAdd(ctx, gamesKey, name)

	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to save game in Redis")
	}

	return nil
}

func (r *redisRepo) SaveMacros(ctx context.Context, name string, macros map[string]string) error {
	if name == "" {
		return dnderr.InvalidArgument("game name is required")
	}

	pipe := r.client.TxPipeline()
	replaceHash(ctx, pipe, r.macrosKey(name), macros)
	pipe.SAdd(ctx, gamesKey, name)

	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to save macros in Redis")
	}

	return nil
}

// replaceHash queues a delete of key followed by an HSET of values in key order
func replaceHash(ctx context.Context, pipe redis.Pipeliner, key string, values map[string]string) {
	pipe.Del(ctx, key)
	if len(values) == 0 {
		return
	}
	pipe.HSet(ctx, key, sortedFields(values)...)
}

func sortedFields(values map[string]string) []interface{} {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]interface{}, 0, len(values)*2)
	for _, k := range keys {
		fields = append(fields, k, values[k])
	}
	return fields
}
