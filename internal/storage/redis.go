package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/evermart/storefront/internal/config"
	"github.com/evermart/storefront/internal/log"
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

func NewRedisClient(c context.Context, cfg config.Redis) *redis.Client {
	redisOnce.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "NewRedisClient").
			Logger()

		logger = logger.With().Str(log.KeyProcess, "initializing redis client").Logger()
		logger.Info().Msg("initializing redis client")
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.Database,
		})
		logger.Info().Msg("initialized redis client")

		logger = logger.With().Str(log.KeyProcess, "initializing redis otel tracing").Logger()
		logger.Info().Msg("initializing redis otel tracing")
		err := redisotel.InstrumentTracing(
			redisClient,
			redisotel.WithAttributes(semconv.DBSystemRedis),
		)
		if err != nil {
			err = fmt.Errorf("failed initializing otel redis tracing with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("initialized redis otel tracing")

		logger = logger.With().Str(log.KeyProcess, "initializing redis otel metric").Logger()
		logger.Info().Msg("initializing redis otel metric")
		err = redisotel.InstrumentMetrics(
			redisClient,
			redisotel.WithAttributes(semconv.DBSystemRedis),
		)
		if err != nil {
			err = fmt.Errorf("failed initializing otel redis metric with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("initialized redis otel metric")

		logger = logger.With().Str(log.KeyProcess, "pinging connection to redis").Logger()
		logger.Info().Msg("pinging connection to redis")
		err = redisClient.Ping(c).Err()
		if err != nil {
			err = fmt.Errorf("failed pinging redis with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("pinged connection to redis")
	})
	return redisClient
}

// RedisStore keeps the client state in redis, for kiosk deployments where
// several terminals share one session. Keys are namespaced per profile.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	return &RedisStore{client: client, prefix: "storefront:" + profile + ":"}
}

func (s *RedisStore) Get(c context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(c, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed getting key=%s from redis with error=%w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(c context.Context, key string, value []byte) error {
	err := s.client.Set(c, s.prefix+key, value, 0).Err()
	if err != nil {
		return fmt.Errorf("failed setting key=%s in redis with error=%w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(c context.Context, key string) error {
	err := s.client.Del(c, s.prefix+key).Err()
	if err != nil {
		return fmt.Errorf("failed deleting key=%s from redis with error=%w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(c context.Context) error {
	keys := make([]string, 0, len(Keys))
	for _, key := range Keys {
		keys = append(keys, s.prefix+key)
	}
	err := s.client.Del(c, keys...).Err()
	if err != nil {
		return fmt.Errorf("failed clearing storage keys from redis with error=%w", err)
	}
	return nil
}
