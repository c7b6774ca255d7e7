package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const matchingQueueKey = "matching_queue"

// RedisClient backs the ephemeral matching queue and the pub/sub notification
// channel. A nil *RedisClient is valid: every operation becomes a safe no-op
// so the rest of the service keeps working without Redis.
type RedisClient struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{
		client: client,
		log:    log.With().Str("component", "redis").Logger(),
	}, nil
}

func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisClient) available() bool {
	return r != nil && r.client != nil
}

// Enqueue stores a pending match request keyed by session id. Re-enqueueing
// the same session overwrites its previous entry.
func (r *RedisClient) Enqueue(ctx context.Context, req *MatchRequest) error {
	if !r.available() {
		return nil
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal match request for '%s': %w", req.SessionID, err)
	}

	return r.client.HSet(ctx, matchingQueueKey, req.SessionID, data).Err()
}

func (r *RedisClient) Dequeue(ctx context.Context, sessionID string) error {
	if !r.available() {
		return nil
	}
	return r.client.HDel(ctx, matchingQueueKey, sessionID).Err()
}

// List returns a snapshot of every pending request, ordered by enqueue time
// (session id breaks ties). Redis hashes are unordered, so the adapter is the
// authority on queue order.
func (r *RedisClient) List(ctx context.Context) ([]MatchRequest, error) {
	if !r.available() {
		return nil, nil
	}

	entries, err := r.client.HGetAll(ctx, matchingQueueKey).Result()
	if err != nil {
		return nil, err
	}

	requests := make([]MatchRequest, 0, len(entries))
	for sessionID, raw := range entries {
		var req MatchRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			r.log.Warn().Str("session_id", sessionID).Err(err).Msg("dropping unreadable queue entry")
			continue
		}
		requests = append(requests, req)
	}

	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].EnqueuedAt.Equal(requests[j].EnqueuedAt) {
			return requests[i].EnqueuedAt.Before(requests[j].EnqueuedAt)
		}
		return requests[i].SessionID < requests[j].SessionID
	})

	return requests, nil
}

func (r *RedisClient) Clear(ctx context.Context) error {
	if !r.available() {
		return nil
	}
	return r.client.Del(ctx, matchingQueueKey).Err()
}

// PublishMatchFound pushes a match notification onto the session's private
// channel. At-most-once: subscribers that are not listening miss the message
// and fall back to polling the circle endpoint.
func (r *RedisClient) PublishMatchFound(ctx context.Context, sessionID string, payload any) error {
	if !r.available() {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	channel := fmt.Sprintf("session:%s:matches", sessionID)
	return r.client.Publish(ctx, channel, data).Err()
}
