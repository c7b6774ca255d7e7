package circle

import (
	"context"
	"fmt"
	"time"

	"circle-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// QueueStore is the ephemeral queue contract the matching facade needs. All
// operations are safe no-ops when the queue store is absent.
type QueueStore interface {
	Enqueue(ctx context.Context, req *storage.MatchRequest) error
	Dequeue(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]storage.MatchRequest, error)
}

// Passer triggers a matching pass.
type Passer interface {
	RunMatchingPass(ctx context.Context)
}

// Service is what the HTTP layer calls to put sessions in and out of the
// matching queue.
type Service struct {
	queue  QueueStore
	passer Passer
	clock  func() time.Time
	log    zerolog.Logger
}

func NewService(queue QueueStore, passer Passer) *Service {
	return &Service{
		queue:  queue,
		passer: passer,
		clock:  time.Now,
		log:    log.With().Str("component", "matching-service").Logger(),
	}
}

// SubmitMatchRequest enqueues a session and immediately triggers a matching
// pass, so a join that completes a group gets its circle without waiting for
// the backstop timer.
func (s *Service) SubmitMatchRequest(ctx context.Context, req *storage.MatchRequest) error {
	req.EnqueuedAt = s.clock()

	if err := s.queue.Enqueue(ctx, req); err != nil {
		return fmt.Errorf("failed to enqueue session '%s': %w", req.SessionID, err)
	}

	s.passer.RunMatchingPass(ctx)
	return nil
}

// WithdrawMatchRequest removes a session from the queue. Removing a session
// that is not queued is not an error.
func (s *Service) WithdrawMatchRequest(ctx context.Context, sessionID string) error {
	return s.queue.Dequeue(ctx, sessionID)
}

// QueuePosition returns the session's 1-based place in queue order, or -1
// when the session is not queued.
func (s *Service) QueuePosition(ctx context.Context, sessionID string) (int, error) {
	snapshot, err := s.queue.List(ctx)
	if err != nil {
		return -1, err
	}

	for i, entry := range snapshot {
		if entry.SessionID == sessionID {
			return i + 1, nil
		}
	}

	return -1, nil
}
