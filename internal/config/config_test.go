package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/chatwidget/core/format"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(map[string]string{}, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxTurns != 12 || cfg.MaxAttachmentSizeMB != 8 {
		t.Errorf("unexpected window defaults: %+v", cfg)
	}
	if cfg.SystemPrompt != "" {
		t.Errorf("SystemPrompt = %q, want empty", cfg.SystemPrompt)
	}
	if cfg.Mode() != format.ModePlain || !cfg.ConvertHTML {
		t.Errorf("unexpected display defaults: %+v", cfg)
	}
	if cfg.Model != "gemini-1.5-flash" || cfg.Addr != ":8080" {
		t.Errorf("unexpected service defaults: %+v", cfg)
	}
	if cfg.RequestTimeout != 60*time.Second || cfg.RevealInterval != 24*time.Millisecond {
		t.Errorf("unexpected durations: %v %v", cfg.RequestTimeout, cfg.RevealInterval)
	}
	if cfg.RateLimit != 1 || cfg.RateBurst != 3 {
		t.Errorf("unexpected rate limit: %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.Greeting != DefaultGreeting {
		t.Errorf("Greeting = %q", cfg.Greeting)
	}
}

func TestLoadWith_EnvironmentOverrides(t *testing.T) {
	cfg, err := LoadWith(map[string]string{
		"CHATWIDGET_MAX_TURNS":       "4",
		"CHATWIDGET_SYSTEM_PROMPT":   "Be brief.",
		"CHATWIDGET_LINK_MODE":       "linked",
		"CHATWIDGET_REQUEST_TIMEOUT": "5s",
		"GEMINI_API_KEY":             "secret",
		"CHATWIDGET_GREETING":        "Hi!",
	}, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxTurns != 4 || cfg.SystemPrompt != "Be brief." || cfg.Mode() != format.ModeLinked {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.GeminiAPIKey != "secret" || cfg.Greeting != "Hi!" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "CHATWIDGET_MAX_TURNS=6\nCHATWIDGET_MODEL=gemini-from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWith(map[string]string{"CHATWIDGET_MODEL": "gemini-from-env"}, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxTurns != 6 {
		t.Errorf("MaxTurns = %d, want value from file", cfg.MaxTurns)
	}
	if cfg.Model != "gemini-from-env" {
		t.Errorf("Model = %q, want environment to win over file", cfg.Model)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"zero turns", map[string]string{"CHATWIDGET_MAX_TURNS": "0"}, "CHATWIDGET_MAX_TURNS"},
		{"zero attachment size", map[string]string{"CHATWIDGET_MAX_ATTACHMENT_MB": "0"}, "CHATWIDGET_MAX_ATTACHMENT_MB"},
		{"unknown link mode", map[string]string{"CHATWIDGET_LINK_MODE": "rich"}, "CHATWIDGET_LINK_MODE"},
		{"not a number", map[string]string{"CHATWIDGET_MAX_TURNS": "many"}, "parsing environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWith(tt.env, filepath.Join(t.TempDir(), "missing.env"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{MaxTurns: 0, MaxAttachmentSizeMB: 0, LinkMode: "plain", RateLimit: 0, RateBurst: 0}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"MAX_TURNS", "MAX_ATTACHMENT_MB", "RATE_LIMIT", "RATE_BURST"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %v", want, err)
		}
	}
}
