// Package config provides environment-driven configuration for the
// apply-assistant service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the runtime configuration for the service. Everything comes
// from environment variables; a .env file is loaded by the CLI entry point.
type Config struct {
	Port        int
	DatabaseURL string
	GeminiKey   string

	// BoardURLs is a comma-separated list of job board listing pages the
	// collector pulls from on each pipeline run.
	BoardURLs []string

	// Telegram notification settings. Both empty disables notifications.
	TelegramToken  string
	TelegramChatID int64

	LogJSON  bool
	LogDebug bool
}

// Load reads the service configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnvInt("PORT", 8080),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogJSON:       getEnvBool("LOG_JSON", false),
		LogDebug:      getEnvBool("LOG_DEBUG", false),
	}

	if boards := os.Getenv("JOB_BOARD_URLS"); boards != "" {
		for _, u := range strings.Split(boards, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.BoardURLs = append(cfg.BoardURLs, u)
			}
		}
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.GeminiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
