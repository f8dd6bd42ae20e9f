package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"RsiSentinel/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Chat providers.
const (
	ProviderDiscord  = "discord"
	ProviderTelegram = "telegram"
	ProviderLog      = "log"
)

// Config holds all application configuration.
type Config struct {
	Chat struct {
		Provider string `yaml:"provider"`
	} `yaml:"chat"`
	Discord struct {
		Token     string `yaml:"token"`
		ChannelID string `yaml:"channel_id"`
	} `yaml:"discord"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL               string  `yaml:"base_url"`
		Symbol                string  `yaml:"symbol"`
		Interval              string  `yaml:"interval"`
		MaxRetries            int     `yaml:"max_retries"`
		RetryDelaySeconds     *int    `yaml:"retry_delay_seconds"`
		RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
		RateLimitPerSecond    float64 `yaml:"rate_limit_per_second"`
	} `yaml:"data_source"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart *bool  `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file and a .env file, then applies
// environment variable overrides and defaults. Both files are optional.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := map[string]*string{
		"CHAT_PROVIDER":      &c.Chat.Provider,
		"DISCORD_TOKEN":      &c.Discord.Token,
		"CHANNEL_ID":         &c.Discord.ChannelID,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"BYBIT_BASE_URL":     &c.DataSource.BaseURL,
		"RSI_SYMBOL":         &c.DataSource.Symbol,
		"RSI_INTERVAL":       &c.DataSource.Interval,
		"CRON_SCHEDULE":      &c.Schedule.Cron,
		"METRICS_ADDR":       &c.Metrics.ListenAddr,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range setString {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("RSI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RSI_MAX_RETRIES: %w", err)
		}
		c.DataSource.MaxRetries = n
	}
	if v := os.Getenv("RSI_RETRY_DELAY_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RSI_RETRY_DELAY_SECONDS: %w", err)
		}
		c.DataSource.RetryDelaySeconds = &n
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = &b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Chat.Provider == "" {
		c.Chat.Provider = ProviderDiscord
	}
	c.Chat.Provider = strings.ToLower(c.Chat.Provider)
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "SOLUSDT"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "60"
	}
	if c.DataSource.MaxRetries == 0 {
		c.DataSource.MaxRetries = 3
	}
	if c.DataSource.RetryDelaySeconds == nil {
		d := 60
		c.DataSource.RetryDelaySeconds = &d
	}
	if c.DataSource.RequestTimeoutSeconds == 0 {
		c.DataSource.RequestTimeoutSeconds = 10
	}
	if c.DataSource.RateLimitPerSecond == 0 {
		c.DataSource.RateLimitPerSecond = 5
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = DefaultCron
	}
	if c.Schedule.RunOnStart == nil {
		b := true
		c.Schedule.RunOnStart = &b
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Chat.Provider {
	case ProviderDiscord:
		if c.Discord.Token == "" {
			return fmt.Errorf("discord.token (DISCORD_TOKEN) is required")
		}
		if c.Discord.ChannelID == "" {
			return fmt.Errorf("discord.channel_id (CHANNEL_ID) is required")
		}
	case ProviderTelegram:
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required")
		}
	case ProviderLog:
	default:
		return fmt.Errorf("unknown chat.provider %q", c.Chat.Provider)
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if !model.Interval(c.DataSource.Interval).Valid() {
		return fmt.Errorf("data_source.interval %q is not a supported kline interval", c.DataSource.Interval)
	}
	if c.DataSource.MaxRetries < 1 {
		return fmt.Errorf("data_source.max_retries must be at least 1")
	}
	if c.DataSource.RetryDelaySeconds != nil && *c.DataSource.RetryDelaySeconds < 0 {
		return fmt.Errorf("data_source.retry_delay_seconds must not be negative")
	}
	if _, err := ParseSchedule(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron: %w", err)
	}
	return nil
}

// FetchConfig returns the fetcher settings.
func (c *Config) FetchConfig() model.FetchConfig {
	var delay time.Duration
	if c.DataSource.RetryDelaySeconds != nil {
		delay = time.Duration(*c.DataSource.RetryDelaySeconds) * time.Second
	}
	return model.FetchConfig{
		BaseURL:        c.DataSource.BaseURL,
		Symbol:         c.DataSource.Symbol,
		Interval:       model.Interval(c.DataSource.Interval),
		MaxRetries:     c.DataSource.MaxRetries,
		RetryDelay:     delay,
		RequestTimeout: time.Duration(c.DataSource.RequestTimeoutSeconds) * time.Second,
		RateLimit:      c.DataSource.RateLimitPerSecond,
	}
}
