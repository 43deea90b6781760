package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeHTTP = "http"
	ModeRaw  = "raw"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	ListenAddr   string        `env:"LISTEN_ADDR" default:":5586"`
	ServerMode   string        `env:"SERVER_MODE" default:"http"`
	WSPath       string        `env:"WS_PATH" default:"/ws"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" default:"1s"`

	TokenExpireMinutes int    `env:"TOKEN_EXPIRE_MINUTES" default:"30"`
	SessionStore       string `env:"SESSION_STORE" default:"memory"`
	SessionToken       string `env:"SESSION_TOKEN"`

	RedisURL        string `env:"REDIS_URL" default:"redis://localhost:6379"`
	RedisSessionKey string `env:"REDIS_SESSION_KEY" default:"wsgate:session"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// Load reads .env from the working directory, if any, then the process environment.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	loadEnvString(&cfg.ListenAddr, "LISTEN_ADDR", ":5586")
	loadEnvString(&cfg.ServerMode, "SERVER_MODE", ModeHTTP)
	loadEnvString(&cfg.WSPath, "WS_PATH", "/ws")
	if err := loadEnvDuration(&cfg.WriteTimeout, "WRITE_TIMEOUT", time.Second); err != nil {
		return nil, err
	}

	if err := loadEnvInt(&cfg.TokenExpireMinutes, "TOKEN_EXPIRE_MINUTES", 30); err != nil {
		return nil, err
	}
	loadEnvString(&cfg.SessionStore, "SESSION_STORE", StoreMemory)
	loadEnvString(&cfg.SessionToken, "SESSION_TOKEN", "")

	loadEnvString(&cfg.RedisURL, "REDIS_URL", "redis://localhost:6379")
	loadEnvString(&cfg.RedisSessionKey, "REDIS_SESSION_KEY", "wsgate:session")

	loadEnvString(&cfg.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&cfg.LogFormat, "LOG_FORMAT", "text")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpireMinutes) * time.Minute
}

func (c *Config) Validate() error {
	var problems []string

	if !contains([]string{ModeHTTP, ModeRaw}, c.ServerMode) {
		problems = append(problems, "SERVER_MODE must be one of: http, raw")
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		problems = append(problems, "WS_PATH must start with /")
	}
	if c.WriteTimeout <= 0 {
		problems = append(problems, "WRITE_TIMEOUT must be positive")
	}
	if c.TokenExpireMinutes <= 0 {
		problems = append(problems, "TOKEN_EXPIRE_MINUTES must be positive")
	}
	if !contains([]string{StoreMemory, StoreRedis}, c.SessionStore) {
		problems = append(problems, "SESSION_STORE must be one of: memory, redis")
	}
	if c.SessionStore == StoreRedis && c.RedisURL == "" {
		problems = append(problems, "REDIS_URL is required for redis session store")
	}
	if !contains([]string{"trace", "debug", "info", "warn", "error"}, c.LogLevel) {
		problems = append(problems, "LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !contains([]string{"text", "json"}, c.LogFormat) {
		problems = append(problems, "LOG_FORMAT must be one of: text, json")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
