package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// NewBroker picks the Redis broker when REDIS_URL is set and the in-process
// broker otherwise.
func NewBroker(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (Broker, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("using in-memory event broker")
		return NewMemoryBroker(logger), nil
	}

	opts, err := redisOptions(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Error().Err(err).Str("addr", opts.Addr).Msg("failed to reach redis")
				return fmt.Errorf("failed to reach redis: %w", err)
			}
			logger.Info().Str("addr", opts.Addr).Msg("using redis event broker")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return NewRedisBroker(client, logger), nil
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(v string) (*redis.Options, error) {
	if !strings.Contains(v, "://") {
		return &redis.Options{Addr: v}, nil
	}
	opts, err := redis.ParseURL(v)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return opts, nil
}
