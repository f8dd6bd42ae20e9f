package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CHAT_PROVIDER", "DISCORD_TOKEN", "CHANNEL_ID", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"BYBIT_BASE_URL", "RSI_SYMBOL", "RSI_INTERVAL", "RSI_MAX_RETRIES", "RSI_RETRY_DELAY_SECONDS",
	"CRON_SCHEDULE", "RUN_ON_START", "METRICS_ADDR", "LOG_LEVEL", "LOG_FORMAT", "HTTPS_PROXY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderDiscord, cfg.Chat.Provider)
	assert.Equal(t, "SOLUSDT", cfg.DataSource.Symbol)
	assert.Equal(t, "60", cfg.DataSource.Interval)
	assert.Equal(t, "0 0 * * * *", cfg.Schedule.Cron)
	assert.True(t, *cfg.Schedule.RunOnStart)

	fc := cfg.FetchConfig()
	assert.Equal(t, 3, fc.MaxRetries)
	assert.Equal(t, 60*time.Second, fc.RetryDelay)
	assert.Equal(t, 10*time.Second, fc.RequestTimeout)

	// Credentials are still missing.
	assert.Error(t, cfg.Validate())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
chat:
  provider: telegram
telegram:
  bot_token: yaml-token
  chat_id: "1001"
data_source:
  symbol: BTCUSDT
  interval: "240"
  max_retries: 5
  retry_delay_seconds: 0
schedule:
  run_on_start: false
`)
	t.Setenv("TELEGRAM_CHAT_ID", "2002")
	t.Setenv("RSI_MAX_RETRIES", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderTelegram, cfg.Chat.Provider)
	assert.Equal(t, "yaml-token", cfg.Telegram.BotToken)
	assert.Equal(t, "2002", cfg.Telegram.ChatID)
	assert.False(t, *cfg.Schedule.RunOnStart)

	fc := cfg.FetchConfig()
	assert.Equal(t, "BTCUSDT", fc.Symbol)
	assert.EqualValues(t, "240", fc.Interval)
	assert.Equal(t, 2, fc.MaxRetries)
	assert.Zero(t, fc.RetryDelay, "explicit zero delay is kept")
}

func TestLoad_DiscordFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("CHANNEL_ID", "123")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "tok", cfg.Discord.Token)
	assert.Equal(t, "123", cfg.Discord.ChannelID)
}

func TestLoad_BadEnvNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("RSI_MAX_RETRIES", "three")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeYAML(t, "chat: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.Chat.Provider = ProviderLog
		return cfg
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.DataSource.Interval = "1h"
	assert.ErrorContains(t, cfg.Validate(), "interval")

	cfg = base()
	cfg.DataSource.MaxRetries = -1
	assert.ErrorContains(t, cfg.Validate(), "max_retries")

	cfg = base()
	neg := -5
	cfg.DataSource.RetryDelaySeconds = &neg
	assert.ErrorContains(t, cfg.Validate(), "retry_delay_seconds")

	cfg = &Config{}
	cfg.Chat.Provider = ProviderLog
	cfg.DataSource.Symbol = "SOLUSDT"
	cfg.DataSource.Interval = "60"
	cfg.DataSource.MaxRetries = 3
	cfg.Schedule.Cron = DefaultCron
	require.NotPanics(t, func() { assert.NoError(t, cfg.Validate()) }, "config built without Load")
	assert.Zero(t, cfg.FetchConfig().RetryDelay)

	cfg = base()
	cfg.Schedule.Cron = "0 * * *"
	assert.ErrorContains(t, cfg.Validate(), "schedule.cron")

	cfg = base()
	cfg.Chat.Provider = "slack"
	assert.ErrorContains(t, cfg.Validate(), "unknown chat.provider")
}

func TestDefaultSchedule_FiresAtTopOfEveryHour(t *testing.T) {
	sched, err := ParseSchedule(DefaultCron)
	require.NoError(t, err)

	now := time.Date(2024, 6, 23, 12, 34, 56, 0, time.UTC)
	next := sched.Next(now)
	assert.Equal(t, time.Date(2024, 6, 23, 13, 0, 0, 0, time.UTC), next)

	for i := 0; i < 72; i++ {
		after := sched.Next(next)
		assert.Zero(t, after.Minute())
		assert.Zero(t, after.Second())
		assert.Equal(t, time.Hour, after.Sub(next))
		next = after
	}

	// Exactly on the hour, the next fire is the following hour.
	onHour := time.Date(2024, 6, 23, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, onHour.Add(time.Hour), sched.Next(onHour))
}
