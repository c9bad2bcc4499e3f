package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gdpr-quiz-service/internal/ranking"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		BankID              string `yaml:"bank_id"`
		QuestionsFile       string `yaml:"questions_file"`
		QuestionsPerSession int    `yaml:"questions_per_session"`
		// TimerSeconds defaults to 30 only when absent; 0 disables the timer.
		TimerSeconds int    `yaml:"timer_seconds"`
		TTL          string `yaml:"ttl"`
	} `yaml:"quiz"`
	Leaderboard struct {
		// Storage is one of memory|redis|postgres; empty picks redis, then postgres, then memory.
		Storage    string         `yaml:"storage"`
		StorageKey string         `yaml:"storage_key"`
		Capacity   int            `yaml:"capacity"`
		Region     []string       `yaml:"region"`
		Tiers      []ranking.Tier `yaml:"tiers"`
	} `yaml:"leaderboard"`
	Consent struct {
		Version    string `yaml:"version"`
		ExpiryDays int    `yaml:"expiry_days"`
	} `yaml:"consent"`
	Players struct {
		HistoryLimit int `yaml:"history_limit"`
	} `yaml:"players"`
}

const defaultTimerSeconds = 30

// Default returns a config with every default filled in.
func Default() Config {
	cfg := Config{}
	cfg.Quiz.TimerSeconds = defaultTimerSeconds
	cfg.applyDefaults()
	return cfg
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file is not an error; the defaults are used instead.
func Load(path string) (Config, error) {
	cfg := Config{}
	// zero is a valid timer setting, so its default goes in before parsing
	cfg.Quiz.TimerSeconds = defaultTimerSeconds
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("LEADERBOARD_STORAGE"); v != "" {
		c.Leaderboard.Storage = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Quiz.BankID == "" {
		c.Quiz.BankID = "gdpr"
	}
	if c.Quiz.QuestionsPerSession == 0 {
		c.Quiz.QuestionsPerSession = 5
	}
	if c.Leaderboard.StorageKey == "" {
		c.Leaderboard.StorageKey = "gdpr_leaderboard"
	}
	if c.Leaderboard.Capacity == 0 {
		c.Leaderboard.Capacity = ranking.DefaultCapacity
	}
	if len(c.Leaderboard.Region) == 0 {
		c.Leaderboard.Region = ranking.EUCountries
	}
	if len(c.Leaderboard.Tiers) == 0 {
		c.Leaderboard.Tiers = ranking.DefaultTiers
	}
	if c.Consent.Version == "" {
		c.Consent.Version = "1.0"
	}
	if c.Consent.ExpiryDays == 0 {
		c.Consent.ExpiryDays = 180
	}
	if c.Players.HistoryLimit == 0 {
		c.Players.HistoryLimit = 50
	}
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	if c.Leaderboard.Capacity < 0 {
		return fmt.Errorf("leaderboard.capacity must not be negative, got %d", c.Leaderboard.Capacity)
	}
	if c.Quiz.QuestionsPerSession < 0 {
		return fmt.Errorf("quiz.questions_per_session must not be negative, got %d", c.Quiz.QuestionsPerSession)
	}
	if c.Quiz.TimerSeconds < 0 {
		return fmt.Errorf("quiz.timer_seconds must not be negative, got %d", c.Quiz.TimerSeconds)
	}
	if c.Players.HistoryLimit < 0 {
		return fmt.Errorf("players.history_limit must not be negative, got %d", c.Players.HistoryLimit)
	}
	if c.Consent.ExpiryDays < 0 {
		return fmt.Errorf("consent.expiry_days must not be negative, got %d", c.Consent.ExpiryDays)
	}
	switch c.Leaderboard.Storage {
	case "", "memory", "redis", "postgres":
	default:
		return fmt.Errorf("leaderboard.storage %q is not one of memory|redis|postgres", c.Leaderboard.Storage)
	}
	if err := ranking.TierTable(c.Leaderboard.Tiers).Validate(); err != nil {
		return fmt.Errorf("leaderboard.tiers: %w", err)
	}
	for _, raw := range []string{c.Redis.TTL, c.Quiz.TTL} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
	}
	return nil
}

// LeaderboardBackend resolves the snapshot storage backend.
func (c Config) LeaderboardBackend() string {
	if c.Leaderboard.Storage != "" {
		return c.Leaderboard.Storage
	}
	switch {
	case c.Redis.Addr != "":
		return "redis"
	case c.Postgres.URL != "":
		return "postgres"
	default:
		return "memory"
	}
}

// ConsentExpiry returns how long a stored consent stays valid.
func (c Config) ConsentExpiry() time.Duration {
	return time.Duration(c.Consent.ExpiryDays) * 24 * time.Hour
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
