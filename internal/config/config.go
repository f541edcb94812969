// Package config loads configuration from a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds runtime settings.
type Config struct {
	DBType          string
	DatabaseURL     string
	TelegramToken   string
	TelegramChatID  int64
	Timezone        *time.Location
	ReadRetention   float64
	WriteRetention  float64
	ReminderTime    string
	EnableScheduler bool
	LogLevel        string
	LogPretty       bool
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Config{
		DBType:        getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:   getEnv("DATABASE_URL", "data/hanzibot.db"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ReminderTime:  getEnv("REMINDER_TIME", "09:00"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.TelegramChatID, err = getEnvInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		return Config{}, err
	}
	if cfg.ReadRetention, err = getEnvRetention("READ_RETENTION", 0.9); err != nil {
		return Config{}, err
	}
	if cfg.WriteRetention, err = getEnvRetention("WRITE_RETENTION", 0.6); err != nil {
		return Config{}, err
	}
	if cfg.EnableScheduler, err = getEnvBool("ENABLE_SCHEDULER", true); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = getEnvBool("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}

	tz := getEnv("TIMEZONE", "America/Los_Angeles")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if _, _, err := ParseClock(cfg.ReminderTime); err != nil {
		return Config{}, fmt.Errorf("invalid REMINDER_TIME: %w", err)
	}

	return cfg, nil
}

// ParseClock parses an HH:MM wall-clock time
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return parsed, nil
}

func getEnvRetention(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if parsed <= 0 || parsed > 1 {
		return 0, fmt.Errorf("invalid %s %q: must be in (0, 1]", key, val)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return parsed, nil
}
