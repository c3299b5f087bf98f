package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported chat platforms
const (
	PlatformDiscord = "discord"
	PlatformSlack   = "slack"
)

// Supported storage backends
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Platform string `env:"BOT_PLATFORM" envDefault:"discord"`

	Discord DiscordConfig
	Slack   SlackConfig
	Storage StorageConfig
	Redis   RedisConfig
	Log     LogConfig

	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9090"
	MetricsAddr string `env:"METRICS_ADDR"`

	// WatchGames reloads macros when macros.json of the loaded game changes
	WatchGames bool `env:"WATCH_GAMES" envDefault:"false"`

	// RestartDelay is how long a failed chat connection waits before reconnecting
	RestartDelay time.Duration `env:"RESTART_DELAY" envDefault:"5s"`
}

// DiscordConfig holds Discord-specific configuration
type DiscordConfig struct {
	Token string `env:"DISCORD_TOKEN"`
}

// SlackConfig holds Slack socket mode credentials
type SlackConfig struct {
	BotToken string `env:"SLACK_BOT_TOKEN"`
	AppToken string `env:"SLACK_APP_TOKEN"`
}

// StorageConfig selects where games live
type StorageConfig struct {
	Backend  string `env:"STORAGE_BACKEND" envDefault:"file"`
	GamesDir string `env:"GAMES_DIR" envDefault:"."`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level    string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding string `env:"LOG_ENCODING" envDefault:"console"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the selected platform and backend need
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformDiscord:
		if c.Discord.Token == "" {
			return fmt.Errorf("DISCORD_TOKEN is required")
		}
	case PlatformSlack:
		if c.Slack.BotToken == "" {
			return fmt.Errorf("SLACK_BOT_TOKEN is required")
		}
		if c.Slack.AppToken == "" {
			return fmt.Errorf("SLACK_APP_TOKEN is required")
		}
	default:
		return fmt.Errorf("unsupported platform %q", c.Platform)
	}

	switch c.Storage.Backend {
	case StorageFile, StorageRedis:
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	return nil
}
