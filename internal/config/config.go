package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SignalFusion/internal/strategy"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// SymbolConfig maps a display symbol to its market feed ticker.
type SymbolConfig struct {
	Symbol      string   `yaml:"symbol" validate:"required"`
	Feed        string   `yaml:"feed" validate:"required"`
	DisplayName string   `yaml:"display_name"`
	SearchTerms []string `yaml:"search_terms"`
}

// Config holds all application configuration.
type Config struct {
	Symbols []SymbolConfig `yaml:"symbols" validate:"dive"`

	DataSource struct {
		Provider     string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL      string        `yaml:"base_url" validate:"omitempty,url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		MaxRetryTime time.Duration `yaml:"max_retry_time" default:"8s" validate:"gte=0"`
		MockPrice    float64       `yaml:"mock_price" default:"44000"`
	} `yaml:"data_source"`

	Sentiment struct {
		Disabled          bool                `yaml:"disabled"`
		APIKey            string              `yaml:"api_key"`
		BaseURL           string              `yaml:"base_url" default:"https://generativelanguage.googleapis.com/v1beta/openai" validate:"url"`
		Model             string              `yaml:"model" default:"gemini-2.0-flash"`
		FeedURL           string              `yaml:"feed_url"`
		MaxHeadlines      int                 `yaml:"max_headlines" default:"10" validate:"gte=1,lte=50"`
		RequestsPerSec    float64             `yaml:"requests_per_sec" default:"1" validate:"gt=0"`
		HeadlineTimeout   time.Duration       `yaml:"headline_timeout" default:"10s" validate:"gt=0"`
		ClassifierTimeout time.Duration       `yaml:"classifier_timeout" default:"30s" validate:"gt=0"`
		SearchTerms       map[string][]string `yaml:"search_terms"`
	} `yaml:"sentiment"`

	Calibration strategy.Calibration `yaml:"calibration"`

	Schedule struct {
		Cron       string `yaml:"cron" default:"0 0 13 * * 1-5"`
		Timezone   string `yaml:"timezone" default:"UTC"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Discord struct {
		WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
		Username   string `yaml:"username" default:"SignalFusion"`
	} `yaml:"discord"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/signals.db"`
	} `yaml:"database"`

	Server struct {
		Disabled bool   `yaml:"disabled"`
		Addr     string `yaml:"addr" default:":8080"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`

	Concurrency int    `yaml:"concurrency" default:"4" validate:"gte=1,lte=64"`
	Proxy       string `yaml:"proxy"`
}

// Load applies defaults, then the YAML file, then environment variable
// overrides. Values set in the file win over defaults, including explicit
// zeros. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols()
	}
	return cfg, nil
}

// DefaultSymbols is the instrument set used when none is configured.
func DefaultSymbols() []SymbolConfig {
	return []SymbolConfig{
		{Symbol: "US30", Feed: "^DJI"},
		{Symbol: "NAS100", Feed: "^NDX"},
		{Symbol: "SPX500", Feed: "^GSPC"},
		{Symbol: "GOLD", Feed: "GC=F"},
	}
}

// Environment variable overrides
func applyEnv(cfg *Config) {
	// LLM_API_KEY wins over the provider-specific name.
	for _, key := range []string{"GEMINI_API_KEY", "LLM_API_KEY"} {
		if v := os.Getenv(key); v != "" {
			cfg.Sentiment.APIKey = v
		}
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.Sentiment.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Sentiment.Model = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SIGNAL_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.RunOnStart = b
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks field constraints, symbol uniqueness and the calibration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DataSource.Provider == "rest" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("config: data_source.base_url is required for the rest provider")
	}
	seen := make(map[string]struct{}, len(c.Symbols))
	for _, s := range c.Symbols {
		key := strings.ToUpper(s.Symbol)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("config: duplicate symbol %q", s.Symbol)
		}
		seen[key] = struct{}{}
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("config: schedule.timezone: %w", err)
	}
	if err := c.Calibration.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SearchTerms merges per-symbol search terms over the sentiment map.
func (c *Config) SearchTerms() map[string][]string {
	out := make(map[string][]string, len(c.Sentiment.SearchTerms)+len(c.Symbols))
	for k, v := range c.Sentiment.SearchTerms {
		out[strings.ToUpper(k)] = v
	}
	for _, s := range c.Symbols {
		if len(s.SearchTerms) > 0 {
			out[strings.ToUpper(s.Symbol)] = s.SearchTerms
		}
	}
	return out
}

// LLMEnabled reports whether a generative classifier is configured.
func (c *Config) LLMEnabled() bool { return c.Sentiment.APIKey != "" }
