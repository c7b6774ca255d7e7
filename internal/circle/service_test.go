package circle

import (
	"context"
	"testing"

	"circle-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueueStore struct {
	entries []storage.MatchRequest
}

func (q *fakeQueueStore) Enqueue(ctx context.Context, req *storage.MatchRequest) error {
	for i, entry := range q.entries {
		if entry.SessionID == req.SessionID {
			q.entries[i] = *req
			return nil
		}
	}
	q.entries = append(q.entries, *req)
	return nil
}

func (q *fakeQueueStore) Dequeue(ctx context.Context, sessionID string) error {
	for i, entry := range q.entries {
		if entry.SessionID == sessionID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *fakeQueueStore) List(ctx context.Context) ([]storage.MatchRequest, error) {
	return q.entries, nil
}

type fakePasser struct {
	passes int
}

func (p *fakePasser) RunMatchingPass(ctx context.Context) {
	p.passes++
}

func TestSubmitMatchRequestEnqueuesAndTriggersPass(t *testing.T) {
	queue := &fakeQueueStore{}
	passer := &fakePasser{}
	service := NewService(queue, passer)

	err := service.SubmitMatchRequest(context.Background(), &storage.MatchRequest{
		SessionID: "s1",
		Theme:     "anxiety",
		Intensity: 5,
	})
	require.NoError(t, err)

	require.Len(t, queue.entries, 1)
	assert.False(t, queue.entries[0].EnqueuedAt.IsZero(), "enqueue time is stamped by the service")
	assert.Equal(t, 1, passer.passes, "a join triggers a pass immediately")
}

func TestWithdrawMatchRequest(t *testing.T) {
	queue := &fakeQueueStore{entries: []storage.MatchRequest{{SessionID: "s1"}}}
	service := NewService(queue, &fakePasser{})

	require.NoError(t, service.WithdrawMatchRequest(context.Background(), "s1"))
	assert.Empty(t, queue.entries)

	require.NoError(t, service.WithdrawMatchRequest(context.Background(), "missing"),
		"withdrawing an absent session is not an error")
}

func TestQueuePosition(t *testing.T) {
	queue := &fakeQueueStore{entries: []storage.MatchRequest{
		{SessionID: "s1"},
		{SessionID: "s2"},
		{SessionID: "s3"},
	}}
	service := NewService(queue, &fakePasser{})

	pos, err := service.QueuePosition(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, pos, "positions are 1-based")

	pos, err = service.QueuePosition(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, -1, pos)
}
