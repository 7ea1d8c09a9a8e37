// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AdminConfig protects the ops API.
type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConns       int32         `yaml:"max_conns"`
	MinConns       int32         `yaml:"min_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // classification cache TTL
}

type QueueConfig struct {
	Name           string        `yaml:"name"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	LeaseTimeout   time.Duration `yaml:"lease_timeout"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
	// MinTranscription is the trimmed length a transcription must exceed before a write path enqueues it.
	MinTranscription int `yaml:"min_transcription"`
}

type WorkerConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider"` // openai|gemini
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	ModelVersion    string        `yaml:"model_version"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxTokens       int           `yaml:"max_tokens"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
}

type SeedConfig struct {
	CSVPath string `yaml:"csv_path"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Queue    QueueConfig    `yaml:"queue"`
	Worker   WorkerConfig   `yaml:"worker"`
	AI       AIConfig       `yaml:"ai"`
	Seed     SeedConfig     `yaml:"seed"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads path, applies env overrides and defaults, and checks the settings every binary needs.
// A missing file is not an error when the required values come from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ValidateAI checks the settings only the worker needs.
func (c *Config) ValidateAI() error {
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key is required for provider openai")
		}
	case "gemini":
		if c.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key is required for provider gemini")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	return nil
}

// ValidateAdmin checks the settings the ops API needs.
func (c *Config) ValidateAdmin() error {
	if len(c.Admin.JWTSecret) < 32 {
		return errors.New("admin.jwt_secret must be at least 32 bytes")
	}
	return nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DATABASE_URL", &cfg.Database.URL},
		{"REDIS_URL", &cfg.Redis.URL},
		{"OPENAI_API_KEY", &cfg.AI.OpenAIKey},
		{"GEMINI_API_KEY", &cfg.AI.GeminiKey},
		{"JWT_SECRET", &cfg.Admin.JWTSecret},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.ReadTimeout = orDuration(cfg.HTTP.ReadTimeout, 10*time.Second)
	cfg.HTTP.WriteTimeout = orDuration(cfg.HTTP.WriteTimeout, 30*time.Second)
	cfg.Admin.TokenTTL = orDuration(cfg.Admin.TokenTTL, 24*time.Hour)

	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Database.ConnectTimeout = orDuration(cfg.Database.ConnectTimeout, 5*time.Second)
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Queue.Name == "" {
		cfg.Queue.Name = "classification"
	}
	if cfg.Queue.MaxAttempts <= 0 {
		cfg.Queue.MaxAttempts = 3
	}
	cfg.Queue.BackoffBase = orDuration(cfg.Queue.BackoffBase, 5*time.Second)
	cfg.Queue.LeaseTimeout = orDuration(cfg.Queue.LeaseTimeout, 2*time.Minute)
	cfg.Queue.EnqueueTimeout = orDuration(cfg.Queue.EnqueueTimeout, 5*time.Second)
	if cfg.Queue.MinTranscription < 0 {
		cfg.Queue.MinTranscription = 0
	}

	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 4
	}
	cfg.Worker.PollInterval = orDuration(cfg.Worker.PollInterval, 500*time.Millisecond)
	cfg.Worker.StatsInterval = orDuration(cfg.Worker.StatsInterval, 15*time.Second)

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.ModelVersion == "" {
		cfg.AI.ModelVersion = "gpt-4o-mini-analysis-v1.0"
	}
	cfg.AI.Timeout = orDuration(cfg.AI.Timeout, 60*time.Second)
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 1000
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
