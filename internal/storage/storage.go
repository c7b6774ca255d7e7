package storage

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Storage bundles the durable store with the ephemeral queue store. Redis is
// optional: when it cannot be reached, Redis stays nil and the queue adapter
// degrades to no-ops, so the service runs without matching features.
type Storage struct {
	DB    *PostgresDB
	Redis *RedisClient
}

func NewStorage(ctx context.Context, databaseURL, redisURL string) (*Storage, error) {
	db, err := NewPostgresDB(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	var redisClient *RedisClient
	if redisURL != "" {
		redisClient, err = NewRedisClient(ctx, redisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, matching queue disabled")
			redisClient = nil
		}
	} else {
		log.Warn().Msg("REDIS_URL not configured, matching queue disabled")
	}

	return &Storage{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (s *Storage) Close() error {
	s.DB.Close()
	return s.Redis.Close()
}
