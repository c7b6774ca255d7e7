package midnight

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SweepStore is the slice of the persistent store the sweeper needs.
type SweepStore interface {
	DeleteExpiredMidnightCircles(ctx context.Context, now time.Time) ([]string, error)
	DeleteSummariesForCircles(ctx context.Context, circleIDs []string) (int64, error)
}

// Sweeper deletes midnight circles past their auto-delete time, along with
// their summaries. It never propagates errors: a failed sweep is logged and
// the next scheduled run retries.
type Sweeper struct {
	store SweepStore
	clock func() time.Time
	log   zerolog.Logger
}

func NewSweeper(store SweepStore) *Sweeper {
	return &Sweeper{
		store: store,
		clock: time.Now,
		log:   log.With().Str("component", "sweeper").Logger(),
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Sweeper) WithClock(clock func() time.Time) *Sweeper {
	s.clock = clock
	return s
}

// Sweep runs one expiry pass. Idempotent: with nothing expired it is a no-op.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.clock()

	ids, err := s.store.DeleteExpiredMidnightCircles(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to delete expired midnight circles")
		return
	}

	if len(ids) == 0 {
		return
	}

	s.log.Info().Int("count", len(ids)).Msg("deleted expired midnight circles")

	deleted, err := s.store.DeleteSummariesForCircles(ctx, ids)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to delete summaries for expired circles")
		return
	}

	if deleted > 0 {
		s.log.Info().Int64("count", deleted).Msg("deleted summaries for expired circles")
	}
}
