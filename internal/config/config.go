package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath          string
	ServerPort      string
	LogLevel        string
	TokenSecret     string
	TokenTTL        time.Duration
	SetupCode       string
	CORSOrigins     []string
	RedisURL        string
	RecapWebhookURL string
	StreamHeartbeat time.Duration
}

// Load reads configuration from an optional .env file and the process
// environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	tokenTTL, err := getDuration("TOKEN_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	heartbeat, err := getDuration("STREAM_HEARTBEAT", constants.StreamHeartbeat)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "sesh.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		TokenSecret:     getEnv("TOKEN_SECRET", ""),
		TokenTTL:        tokenTTL,
		SetupCode:       strings.TrimSpace(getEnv("SETUP_CODE", "")),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		RedisURL:        getEnv("REDIS_URL", ""),
		RecapWebhookURL: getEnv("RECAP_WEBHOOK_URL", ""),
		StreamHeartbeat: heartbeat,
	}

	if cfg.TokenSecret == "" {
		return nil, errors.New("TOKEN_SECRET is required")
	}

	return cfg, nil
}

// Log writes the non-secret part of the configuration.
func (c *Config) Log(logger zerolog.Logger) {
	logger.Info().
		Str("db_path", c.DBPath).
		Str("server_port", c.ServerPort).
		Str("log_level", c.LogLevel).
		Dur("token_ttl", c.TokenTTL).
		Bool("setup_enabled", c.SetupCode != "").
		Strs("cors_origins", c.CORSOrigins).
		Bool("redis", c.RedisURL != "").
		Bool("recap_webhook", c.RecapWebhookURL != "").
		Dur("stream_heartbeat", c.StreamHeartbeat).
		Msg("configuration loaded")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
