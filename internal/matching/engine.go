package matching

import (
	"context"
	"sort"
	"sync"

	"circle-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxIntensitySpread bounds how far a group member's intensity may sit from
// the group's lowest-intensity anchor.
const maxIntensitySpread = 3

// QueueStore is the slice of the queue adapter the engine needs. List returns
// the full queue snapshot in queue order; both calls are safe no-ops when the
// queue store is absent.
type QueueStore interface {
	List(ctx context.Context) ([]storage.MatchRequest, error)
	Dequeue(ctx context.Context, sessionID string) error
}

// CircleCreator materializes one circle from a matched group. Persisting the
// circle and notifying participants happen behind this interface.
type CircleCreator interface {
	CreateCircle(ctx context.Context, group []storage.MatchRequest) (*storage.Circle, error)
}

// Engine drains the matching queue into circles. It is triggered both
// synchronously when a session joins the queue and by the periodic backstop
// timer; a pass lock keeps concurrent triggers from double-matching anyone.
type Engine struct {
	queue   QueueStore
	circles CircleCreator
	minSize int
	maxSize int

	mu  sync.Mutex
	log zerolog.Logger
}

func NewEngine(queue QueueStore, circles CircleCreator, minSize, maxSize int) *Engine {
	return &Engine{
		queue:   queue,
		circles: circles,
		minSize: minSize,
		maxSize: maxSize,
		log:     log.With().Str("component", "matching").Logger(),
	}
}

// RunMatchingPass reads the queue, groups compatible sessions by theme, and
// creates a circle per complete group. It never returns an error: an absent
// or failing queue store means there is nothing to do. A pass that finds the
// lock held skips instead of queueing up; duplicate matching is worse than a
// few seconds of staleness.
func (e *Engine) RunMatchingPass(ctx context.Context) {
	if !e.mu.TryLock() {
		e.log.Debug().Msg("matching pass already running, skipping")
		return
	}
	defer e.mu.Unlock()

	snapshot, err := e.queue.List(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not read matching queue")
		return
	}

	if len(snapshot) < e.minSize {
		return
	}

	for _, bucket := range bucketByTheme(snapshot) {
		e.drainBucket(ctx, bucket)
	}
}

// themeBucket keeps first-seen theme order so passes are deterministic for a
// given queue snapshot.
type themeBucket struct {
	theme   string
	entries []storage.MatchRequest
}

func bucketByTheme(snapshot []storage.MatchRequest) []themeBucket {
	index := make(map[string]int)
	var buckets []themeBucket

	for _, req := range snapshot {
		i, ok := index[req.Theme]
		if !ok {
			i = len(buckets)
			index[req.Theme] = i
			buckets = append(buckets, themeBucket{theme: req.Theme})
		}
		buckets[i].entries = append(buckets[i].entries, req)
	}

	return buckets
}

// drainBucket repeatedly carves circles out of one theme bucket until it runs
// out of demand or the head of the bucket cannot form a full group.
func (e *Engine) drainBucket(ctx context.Context, bucket themeBucket) {
	entries := bucket.entries

	for len(entries) >= e.minSize {
		head := entries[:minInt(e.maxSize, len(entries))]
		group := e.refineGroup(head)

		if len(group) < e.minSize {
			// The head of this bucket cannot agree on intensity; a later
			// slice would start from the same entries, so stop here.
			return
		}

		circle, err := e.circles.CreateCircle(ctx, group)
		if err != nil {
			// Leave every member queued so they stay eligible for the next
			// pass, and move on to the next bucket.
			e.log.Error().Str("theme", bucket.theme).Err(err).Msg("circle creation failed, members stay queued")
			return
		}

		e.log.Info().
			Str("circle_id", circle.CircleID).
			Str("theme", circle.Theme).
			Int("participants", len(group)).
			Msg("matched group into circle")

		entries = e.removeMatched(ctx, entries, group)
	}
}

// refineGroup narrows a bucket-head slice to members whose intensity sits
// within the spread of the lowest-intensity anchor. The sort is stable so
// intensity ties keep their queue order.
func (e *Engine) refineGroup(head []storage.MatchRequest) []storage.MatchRequest {
	slice := make([]storage.MatchRequest, len(head))
	copy(slice, head)

	sort.SliceStable(slice, func(i, j int) bool {
		return slice[i].Intensity < slice[j].Intensity
	})

	group := slice[:1]
	anchor := slice[0].Intensity

	for _, entry := range slice[1:] {
		if len(group) >= e.maxSize {
			break
		}
		if entry.Intensity-anchor <= maxIntensitySpread {
			group = append(group, entry)
		}
	}

	return group
}

// removeMatched drops the group's members from the in-memory bucket and from
// the queue store. Queue removal happens only after the circle persisted;
// a partial removal here is degraded but safe, since the circle exists and a
// re-enqueue overwrites any leftover entry.
func (e *Engine) removeMatched(ctx context.Context, entries, group []storage.MatchRequest) []storage.MatchRequest {
	matched := make(map[string]bool, len(group))
	for _, member := range group {
		matched[member.SessionID] = true
		if err := e.queue.Dequeue(ctx, member.SessionID); err != nil {
			e.log.Error().Str("session_id", member.SessionID).Err(err).Msg("failed to dequeue matched session")
		}
	}

	remaining := entries[:0]
	for _, entry := range entries {
		if !matched[entry.SessionID] {
			remaining = append(remaining, entry)
		}
	}

	return remaining
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
