// Package config loads the widget configuration from the environment and
// optional .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/leofalp/chatwidget/core/format"
)

// DefaultGreeting is shown when a chat opens.
const DefaultGreeting = "Hey there 👋😊\nWelcome to our online assistant.\nHow can I help you today?"

// Config holds every tunable of the widget. Field defaults apply when the
// variable is unset.
type Config struct {
	MaxTurns            int    `env:"CHATWIDGET_MAX_TURNS" envDefault:"12"`
	MaxAttachmentSizeMB int    `env:"CHATWIDGET_MAX_ATTACHMENT_MB" envDefault:"8"`
	SystemPrompt        string `env:"CHATWIDGET_SYSTEM_PROMPT"`
	LinkMode            string `env:"CHATWIDGET_LINK_MODE" envDefault:"plain"`
	ConvertHTML         bool   `env:"CHATWIDGET_CONVERT_HTML" envDefault:"true"`
	Greeting            string `env:"CHATWIDGET_GREETING"`

	Model         string `env:"CHATWIDGET_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_API_BASE_URL"`

	Addr           string        `env:"CHATWIDGET_ADDR" envDefault:":8080"`
	DatabaseURL    string        `env:"CHATWIDGET_DATABASE_URL"`
	TableName      string        `env:"CHATWIDGET_TABLE_NAME"`
	RequestTimeout time.Duration `env:"CHATWIDGET_REQUEST_TIMEOUT" envDefault:"60s"`
	RevealInterval time.Duration `env:"CHATWIDGET_REVEAL_INTERVAL" envDefault:"24ms"`
	RateLimit      float64       `env:"CHATWIDGET_RATE_LIMIT" envDefault:"1"`
	RateBurst      int           `env:"CHATWIDGET_RATE_BURST" envDefault:"3"`
	SessionIdle    time.Duration `env:"CHATWIDGET_SESSION_IDLE" envDefault:"30m"`

	LogLevel        string `env:"CHATWIDGET_LOG_LEVEL"`
	LogFormat       string `env:"CHATWIDGET_LOG_FORMAT"`
	RequestLogLevel string `env:"CHATWIDGET_REQUEST_LOG" envDefault:"standard"`
}

// Load reads the given .env files (".env" when none are named), overlays the
// process environment and parses the result. Missing files are skipped and
// variables already set in the process win over file values.
func Load(files ...string) (*Config, error) {
	return LoadWith(env.ToMap(os.Environ()), files...)
}

// LoadWith is Load over an explicit environment instead of the process one.
func LoadWith(environment map[string]string, files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	merged := make(map[string]string, len(environment))
	for k, v := range environment {
		merged[k] = v
	}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		for k, v := range values {
			if _, set := merged[k]; !set {
				merged[k] = v
			}
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the widget cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("CHATWIDGET_MAX_TURNS must be at least 1, got %d", c.MaxTurns))
	}
	if c.MaxAttachmentSizeMB < 1 {
		errs = append(errs, fmt.Errorf("CHATWIDGET_MAX_ATTACHMENT_MB must be at least 1, got %d", c.MaxAttachmentSizeMB))
	}
	if _, err := format.ParseMode(c.LinkMode); err != nil {
		errs = append(errs, fmt.Errorf("CHATWIDGET_LINK_MODE: %w", err))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("CHATWIDGET_RATE_LIMIT must be positive, got %v", c.RateLimit))
	}
	if c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("CHATWIDGET_RATE_BURST must be at least 1, got %d", c.RateBurst))
	}
	return errors.Join(errs...)
}

// Mode returns the parsed link mode. Call after Validate.
func (c *Config) Mode() format.Mode {
	mode, _ := format.ParseMode(c.LinkMode)
	return mode
}
