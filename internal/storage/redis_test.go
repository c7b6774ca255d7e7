package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A nil *RedisClient is the documented degrade mode when Redis is absent;
// every queue operation must be a safe no-op.
func TestNilRedisClientDegradesToNoOps(t *testing.T) {
	var client *RedisClient
	ctx := context.Background()

	require.NoError(t, client.Enqueue(ctx, &MatchRequest{SessionID: "s1"}))
	require.NoError(t, client.Dequeue(ctx, "s1"))

	entries, err := client.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, client.Clear(ctx))
	require.NoError(t, client.PublishMatchFound(ctx, "s1", map[string]string{"circle_id": "c1"}))
	require.NoError(t, client.Close())
}
