package midnight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweepStore struct {
	expiredIDs      []string
	circleErr       error
	summaryErr      error
	circleCalls     int
	lastNow         time.Time
	summariesFor    []string
	summariesCalled bool
}

func (s *fakeSweepStore) DeleteExpiredMidnightCircles(ctx context.Context, now time.Time) ([]string, error) {
	s.circleCalls++
	s.lastNow = now
	if s.circleErr != nil {
		return nil, s.circleErr
	}
	ids := s.expiredIDs
	s.expiredIDs = nil
	return ids, nil
}

func (s *fakeSweepStore) DeleteSummariesForCircles(ctx context.Context, circleIDs []string) (int64, error) {
	s.summariesCalled = true
	if s.summaryErr != nil {
		return 0, s.summaryErr
	}
	s.summariesFor = circleIDs
	return int64(len(circleIDs)), nil
}

func TestSweepDeletesCirclesAndTheirSummaries(t *testing.T) {
	store := &fakeSweepStore{expiredIDs: []string{"c1", "c2"}}
	sweeper := NewSweeper(store)

	sweeper.Sweep(context.Background())

	require.Equal(t, []string{"c1", "c2"}, store.summariesFor)
}

func TestSweepIsIdempotent(t *testing.T) {
	store := &fakeSweepStore{}
	sweeper := NewSweeper(store)

	sweeper.Sweep(context.Background())
	sweeper.Sweep(context.Background())

	assert.Equal(t, 2, store.circleCalls)
	assert.False(t, store.summariesCalled, "no summaries touched when nothing expired")
}

func TestSweepSwallowsStoreErrors(t *testing.T) {
	store := &fakeSweepStore{circleErr: errors.New("connection refused")}
	sweeper := NewSweeper(store)

	assert.NotPanics(t, func() {
		sweeper.Sweep(context.Background())
	})
	assert.False(t, store.summariesCalled)
}

func TestSweepSwallowsSummaryErrors(t *testing.T) {
	store := &fakeSweepStore{
		expiredIDs: []string{"c1"},
		summaryErr: errors.New("connection refused"),
	}
	sweeper := NewSweeper(store)

	assert.NotPanics(t, func() {
		sweeper.Sweep(context.Background())
	})
}

func TestSweepUsesInjectedClock(t *testing.T) {
	store := &fakeSweepStore{}
	fixed := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)
	sweeper := NewSweeper(store).WithClock(func() time.Time { return fixed })

	sweeper.Sweep(context.Background())

	assert.Equal(t, fixed, store.lastNow, "expiry compares against the injected clock")
}
