package config_test

import (
	"testing"
	"time"

	"github.com/KirkDiggler/rpg-helper-bot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.PlatformDiscord, cfg.Platform)
	assert.Equal(t, config.StorageFile, cfg.Storage.Backend)
	assert.Equal(t, ".", cfg.Storage.GamesDir)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.RestartDelay)
	assert.False(t, cfg.WatchGames)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_PLATFORM", "slack")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_APP_TOKEN", "xapp-1")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WATCH_GAMES", "true")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.PlatformSlack, cfg.Platform)
	assert.Equal(t, "xoxb-1", cfg.Slack.BotToken)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.WatchGames)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("REDIS_DB", "three")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name:    "discord without token",
			cfg:     config.Config{Platform: "discord", Storage: config.StorageConfig{Backend: "file"}},
			wantErr: "DISCORD_TOKEN is required",
		},
		{
			name:    "slack without app token",
			cfg:     config.Config{Platform: "slack", Slack: config.SlackConfig{BotToken: "b"}, Storage: config.StorageConfig{Backend: "file"}},
			wantErr: "SLACK_APP_TOKEN is required",
		},
		{
			name:    "unknown platform",
			cfg:     config.Config{Platform: "irc"},
			wantErr: `unsupported platform "irc"`,
		},
		{
			name:    "unknown backend",
			cfg:     config.Config{Platform: "discord", Discord: config.DiscordConfig{Token: "t"}, Storage: config.StorageConfig{Backend: "s3"}},
			wantErr: `unsupported storage backend "s3"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
