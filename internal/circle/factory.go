// Package circle creates and manages voice circles: provisioning, persistence
// and participant notification for matched groups, plus the queue-facing
// matching facade.
package circle

import (
	"context"
	"fmt"
	"time"

	"circle-backend/internal/midnight"
	"circle-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CircleStore persists circles.
type CircleStore interface {
	CreateCircle(ctx context.Context, circle *storage.Circle) error
}

// Provisioner mints voice credentials for a circle's channel. It may fail;
// the factory substitutes placeholder credentials so the circle still exists.
type Provisioner interface {
	Provision(ctx context.Context, channelName, userID string) (storage.VoiceCredentials, error)
}

// Publisher delivers a match notification to one session's private topic.
// At-most-once, fire-and-forget: a failed publish is logged, never retried,
// and never rolls back the circle.
type Publisher interface {
	NotifyMatchFound(ctx context.Context, sessionID string, notification MatchNotification) error
}

// MatchNotification is the payload every matched participant receives.
type MatchNotification struct {
	CircleID         string                   `json:"circle_id"`
	Theme            string                   `json:"theme"`
	ParticipantCount int                      `json:"participant_count"`
	StartTime        time.Time                `json:"start_time"`
	EndTime          time.Time                `json:"end_time"`
	Voice            storage.VoiceCredentials `json:"voice"`
}

// Factory turns matched groups into persisted circles.
type Factory struct {
	store       CircleStore
	provisioner Provisioner
	publisher   Publisher
	minSize     int
	maxSize     int
	clock       func() time.Time
	log         zerolog.Logger
}

func NewFactory(store CircleStore, provisioner Provisioner, publisher Publisher, minSize, maxSize int) *Factory {
	return &Factory{
		store:       store,
		provisioner: provisioner,
		publisher:   publisher,
		minSize:     minSize,
		maxSize:     maxSize,
		clock:       time.Now,
		log:         log.With().Str("component", "circle").Logger(),
	}
}

// WithClock overrides the wall clock, for tests.
func (f *Factory) WithClock(clock func() time.Time) *Factory {
	f.clock = clock
	return f
}

// CreateCircle builds, persists and announces a circle for an already-matched
// group. The group must satisfy the size bounds; anything else is a
// programming error in the matcher and is rejected before any side effect.
// Returns an error only when persistence fails, so callers can leave the
// group queued for a later pass.
func (f *Factory) CreateCircle(ctx context.Context, group []storage.MatchRequest) (*storage.Circle, error) {
	if len(group) < f.minSize || len(group) > f.maxSize {
		return nil, fmt.Errorf("group size %d outside bounds [%d,%d]", len(group), f.minSize, f.maxSize)
	}

	now := f.clock()
	circleID := uuid.New().String()

	// All members share the same theme and duration by construction.
	theme := group[0].Theme
	duration := time.Duration(group[0].Duration) * time.Minute

	circleType := storage.CircleStandard
	var autoDeleteAt *time.Time
	if midnight.IsEligible(theme, now) {
		circleType = storage.CircleMidnight
		theme = midnight.ThemeFor(now)
		sunrise := midnight.NextSunrise(now)
		autoDeleteAt = &sunrise
		f.log.Info().Str("circle_id", circleID).Str("theme", theme).Time("auto_delete_at", sunrise).Msg("creating midnight circle")
	}

	creds, err := f.provisioner.Provision(ctx, circleID, "")
	if err != nil {
		f.log.Warn().Str("circle_id", circleID).Err(err).Msg("voice provisioning failed, using placeholder credentials")
		creds = PlaceholderCredentials(circleID)
	}

	circle := &storage.Circle{
		CircleID:          circleID,
		Participants:      sessionIDs(group),
		Theme:             theme,
		StartTime:         now,
		EndTime:           now.Add(duration),
		Status:            storage.CircleWaiting,
		Voice:             creds,
		AIModeratorActive: true,
		CircleType:        circleType,
		AutoDeleteAt:      autoDeleteAt,
		CreatedAt:         now,
	}

	if err := f.store.CreateCircle(ctx, circle); err != nil {
		return nil, fmt.Errorf("failed to persist circle %s: %w", circleID, err)
	}

	f.notifyParticipants(ctx, circle)

	return circle, nil
}

// notifyParticipants publishes one match notification per participant. The
// circle is already persisted and discoverable by polling, so publish
// failures are logged and dropped.
func (f *Factory) notifyParticipants(ctx context.Context, circle *storage.Circle) {
	notification := MatchNotification{
		CircleID:         circle.CircleID,
		Theme:            circle.Theme,
		ParticipantCount: len(circle.Participants),
		StartTime:        circle.StartTime,
		EndTime:          circle.EndTime,
		Voice:            circle.Voice,
	}

	for _, sessionID := range circle.Participants {
		if err := f.publisher.NotifyMatchFound(ctx, sessionID, notification); err != nil {
			f.log.Warn().Str("session_id", sessionID).Str("circle_id", circle.CircleID).Err(err).Msg("match notification failed")
		}
	}
}

// PlaceholderCredentials is the clearly-marked fallback used when the voice
// provider is unreachable. Clients render a degraded state from the mock
// prefix.
func PlaceholderCredentials(channelName string) storage.VoiceCredentials {
	return storage.VoiceCredentials{
		Token:       "mock_token_" + channelName,
		AppID:       "mock_app_id",
		ChannelName: channelName,
	}
}

func sessionIDs(group []storage.MatchRequest) []string {
	ids := make([]string, len(group))
	for i, member := range group {
		ids[i] = member.SessionID
	}
	return ids
}
