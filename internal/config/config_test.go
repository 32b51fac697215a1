package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.DataSource.Timeout != 10*time.Second {
		t.Errorf("data source defaults: %+v", cfg.DataSource)
	}
	if cfg.Sentiment.ClassifierTimeout != 30*time.Second || cfg.Sentiment.MaxHeadlines != 10 {
		t.Errorf("sentiment defaults: %+v", cfg.Sentiment)
	}
	if cfg.Calibration.TP1 != 0.5 || cfg.Calibration.StrengthScale != 45 {
		t.Errorf("calibration defaults: %+v", cfg.Calibration)
	}
	if len(cfg.Symbols) != 4 || cfg.Symbols[0].Feed != "^DJI" {
		t.Errorf("default symbols: %+v", cfg.Symbols)
	}
	if cfg.LLMEnabled() {
		t.Error("no key configured, LLM must be disabled")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
symbols:
  - symbol: US30
    feed: "^DJI"
    search_terms: ["dow"]
  - symbol: OIL
    feed: CL=F
    display_name: Crude
sentiment:
  model: gpt-4o-mini
  headline_timeout: 5s
  search_terms:
    gold: ["bullion"]
calibration:
  tp1: 0.6
schedule:
  cron: "0 30 14 * * 1-5"
`)
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
	t.Setenv("RUN_ON_START", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[1].DisplayName != "Crude" {
		t.Errorf("symbols: %+v", cfg.Symbols)
	}
	if cfg.Sentiment.Model != "gpt-4o-mini" || cfg.Sentiment.HeadlineTimeout != 5*time.Second {
		t.Errorf("sentiment: %+v", cfg.Sentiment)
	}
	if !cfg.LLMEnabled() || !cfg.Schedule.RunOnStart {
		t.Error("env overrides not applied")
	}
	if cfg.Calibration.TP1 != 0.6 || cfg.Calibration.TP2 != 1.0 {
		t.Errorf("calibration merge: %+v", cfg.Calibration)
	}
	terms := cfg.SearchTerms()
	if terms["US30"][0] != "dow" || terms["GOLD"][0] != "bullion" {
		t.Errorf("search terms: %v", terms)
	}
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	path := writeConfig(t, `
calibration:
  sentiment_scale: 0
  strength_scale: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Calibration.SentimentScale != 0 || cfg.Calibration.StrengthScale != 0 {
		t.Errorf("explicit zeros overwritten: %+v", cfg.Calibration)
	}
	if cfg.Calibration.TP1 != 0.5 || cfg.Calibration.EntryOffset != 0.1 {
		t.Errorf("unset fields lost their defaults: %+v", cfg.Calibration)
	}
}

func TestLoad_LLMKeyPrecedence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("LLM_API_KEY", "generic")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sentiment.APIKey != "generic" {
		t.Errorf("api key = %q, want generic", cfg.Sentiment.APIKey)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "symbols: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown provider", "data_source:\n  provider: bloomberg\n", "Provider"},
		{"rest without url", "data_source:\n  provider: rest\n", "base_url"},
		{"bad log level", "log:\n  level: loud\n", "Level"},
		{"symbol without feed", "symbols:\n  - symbol: US30\n", "Feed"},
		{"duplicate symbol", "symbols:\n  - {symbol: US30, feed: ^DJI}\n  - {symbol: us30, feed: YM=F}\n", "duplicate"},
		{"bad calibration", "calibration:\n  tp1: 2\n  tp2: 1.5\n", "tp2"},
		{"bad timezone", "schedule:\n  timezone: Mars/Olympus\n", "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
