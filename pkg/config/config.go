// Package config loads the agent's settings from the environment. A .env file in the working
// directory is read first when present.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// SMTP delivery
	EmailUser string
	EmailPass string
	EmailTo   string
	SMTPHost  string
	SMTPPort  int

	// Telegram delivery
	TelegramToken  string
	TelegramChatID string

	// History ledger
	HistoryBackend string
	HistoryPath    string
	HistoryDSN     string
	LockTTL        time.Duration

	// Sources
	SourceAURL    string
	SourceBURL    string
	FetchCacheDir string
	HTTPRetryMax  int

	RetryAttempts int
	RetryBackoff  time.Duration

	PushgatewayURL string
	OtelEndpoint   string

	LogLevel     string
	LogFormat    string
	LogErrorFile string
}

// Load reads .env (if any) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file loaded")
	}
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		EmailUser: getEnvOrDefault("EMAIL_USER", ""),
		EmailPass: getEnvOrDefault("EMAIL_PASS", ""),
		EmailTo:   getEnvOrDefault("EMAIL_TO", ""),
		SMTPHost:  getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnvInt("SMTP_PORT", 587),

		TelegramToken:  getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnvOrDefault("TELEGRAM_CHAT_ID", ""),

		HistoryBackend: strings.ToLower(getEnvOrDefault("HISTORY_BACKEND", "json")),
		HistoryPath:    getEnvOrDefault("HISTORY_PATH", "products.json"),
		HistoryDSN:     getEnvOrDefault("HISTORY_DSN", ""),
		LockTTL:        getDurationOrDefault("LOCK_TTL", 10*time.Minute),

		SourceAURL:    getEnvOrDefault("SOURCE_A_URL", ""),
		SourceBURL:    getEnvOrDefault("SOURCE_B_URL", ""),
		FetchCacheDir: getEnvOrDefault("FETCH_CACHE_DIR", ""),
		HTTPRetryMax:  getEnvInt("HTTP_RETRY_MAX", 2),

		RetryAttempts: getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBackoff:  getDurationOrDefault("RETRY_BACKOFF", 2*time.Second),

		PushgatewayURL: getEnvOrDefault("PUSHGATEWAY_URL", ""),
		OtelEndpoint:   getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		LogLevel:     strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
		LogErrorFile: getEnvOrDefault("LOG_ERROR_FILE", "errors.log"),
	}
}

// EmailEnabled reports whether every SMTP setting needed to send mail is present.
func (c Config) EmailEnabled() bool {
	return c.EmailUser != "" && c.EmailPass != "" && c.EmailTo != ""
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// Validate rejects settings that would make a cycle fail later. Missing notifier settings
// are only warned about; alerts are then logged instead of delivered.
func (c Config) Validate() error {
	var errs []error

	switch c.HistoryBackend {
	case "json", "sqlite":
		if c.HistoryPath == "" {
			errs = append(errs, errors.New("HISTORY_PATH must be set for file backends"))
		}
	case "postgres":
		if c.HistoryDSN == "" {
			errs = append(errs, errors.New("HISTORY_DSN must be set for the postgres backend"))
		}
	default:
		errs = append(errs, errors.New("HISTORY_BACKEND must be one of json, sqlite, postgres"))
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, errors.New("RETRY_ATTEMPTS must be at least 1"))
	}

	partialEmail := c.EmailUser != "" || c.EmailPass != "" || c.EmailTo != ""
	if partialEmail && !c.EmailEnabled() {
		logrus.Warn("Email alerts disabled: EMAIL_USER, EMAIL_PASS and EMAIL_TO must all be set")
	}
	if !c.EmailEnabled() && !c.TelegramEnabled() {
		logrus.Warn("No alert channel configured, offers will only be logged")
	}

	return errors.Join(errs...)
}
