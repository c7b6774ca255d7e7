package circle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"circle-backend/internal/midnight"
	"circle-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCircleStore struct {
	circles []*storage.Circle
	err     error
}

func (s *fakeCircleStore) CreateCircle(ctx context.Context, circle *storage.Circle) error {
	if s.err != nil {
		return s.err
	}
	s.circles = append(s.circles, circle)
	return nil
}

type fakeProvisioner struct {
	creds storage.VoiceCredentials
	err   error
}

func (p *fakeProvisioner) Provision(ctx context.Context, channelName, userID string) (storage.VoiceCredentials, error) {
	if p.err != nil {
		return storage.VoiceCredentials{}, p.err
	}
	creds := p.creds
	creds.ChannelName = channelName
	return creds, nil
}

type fakePublisher struct {
	notified []string
	err      error
}

func (p *fakePublisher) NotifyMatchFound(ctx context.Context, sessionID string, notification MatchNotification) error {
	p.notified = append(p.notified, sessionID)
	return p.err
}

func group(theme string, intensity, size int) []storage.MatchRequest {
	members := make([]storage.MatchRequest, size)
	for i := range members {
		members[i] = storage.MatchRequest{
			SessionID: string(rune('A' + i)),
			Theme:     theme,
			Intensity: intensity,
			Duration:  30,
		}
	}
	return members
}

func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
	}
}

func newTestFactory(store *fakeCircleStore, prov *fakeProvisioner, pub *fakePublisher) *Factory {
	return NewFactory(store, prov, pub, 3, 4)
}

func TestCreateCircleStandard(t *testing.T) {
	store := &fakeCircleStore{}
	pub := &fakePublisher{}
	factory := newTestFactory(store, &fakeProvisioner{creds: storage.VoiceCredentials{Token: "tok", AppID: "app"}}, pub).
		WithClock(fixedClock(14, 0))

	circle, err := factory.CreateCircle(context.Background(), group("grief", 5, 3))
	require.NoError(t, err)

	assert.Equal(t, storage.CircleStandard, circle.CircleType)
	assert.Equal(t, "grief", circle.Theme)
	assert.Equal(t, storage.CircleWaiting, circle.Status)
	assert.Nil(t, circle.AutoDeleteAt)
	assert.True(t, circle.AIModeratorActive)
	assert.Equal(t, []string{"A", "B", "C"}, circle.Participants)
	assert.Equal(t, 30*time.Minute, circle.EndTime.Sub(circle.StartTime))

	require.Len(t, store.circles, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, pub.notified)
}

func TestCreateCircleMidnightOverride(t *testing.T) {
	store := &fakeCircleStore{}
	factory := newTestFactory(store, &fakeProvisioner{}, &fakePublisher{}).
		WithClock(fixedClock(23, 30))

	circle, err := factory.CreateCircle(context.Background(), group("loneliness", 5, 3))
	require.NoError(t, err)

	now := fixedClock(23, 30)()
	assert.Equal(t, storage.CircleMidnight, circle.CircleType)
	assert.Equal(t, midnight.ThemeFor(now), circle.Theme, "midnight circles take the rotating theme")
	require.NotNil(t, circle.AutoDeleteAt)
	assert.Equal(t, midnight.NextSunrise(now), *circle.AutoDeleteAt)
}

func TestCreateCircleDaytimeNeverMidnight(t *testing.T) {
	factory := newTestFactory(&fakeCircleStore{}, &fakeProvisioner{}, &fakePublisher{}).
		WithClock(fixedClock(15, 0))

	circle, err := factory.CreateCircle(context.Background(), group("loneliness", 5, 3))
	require.NoError(t, err)

	assert.Equal(t, storage.CircleStandard, circle.CircleType)
	assert.Equal(t, "loneliness", circle.Theme)
	assert.Nil(t, circle.AutoDeleteAt)
}

func TestCreateCircleProvisioningFallback(t *testing.T) {
	store := &fakeCircleStore{}
	factory := newTestFactory(store, &fakeProvisioner{err: errors.New("token service down")}, &fakePublisher{}).
		WithClock(fixedClock(14, 0))

	circle, err := factory.CreateCircle(context.Background(), group("anxiety", 5, 3))
	require.NoError(t, err, "provisioning failure must not abort circle creation")

	assert.True(t, strings.HasPrefix(circle.Voice.Token, "mock_token_"))
	assert.Equal(t, "mock_app_id", circle.Voice.AppID)
	assert.Equal(t, circle.CircleID, circle.Voice.ChannelName)
	assert.Len(t, store.circles, 1)
}

func TestCreateCircleNotifyFailureDoesNotRollBack(t *testing.T) {
	store := &fakeCircleStore{}
	pub := &fakePublisher{err: errors.New("channel closed")}
	factory := newTestFactory(store, &fakeProvisioner{}, pub).
		WithClock(fixedClock(14, 0))

	_, err := factory.CreateCircle(context.Background(), group("anxiety", 5, 4))
	require.NoError(t, err)

	assert.Len(t, store.circles, 1, "the circle persists even when every publish fails")
	assert.Len(t, pub.notified, 4, "every participant is still attempted")
}

func TestCreateCirclePersistFailure(t *testing.T) {
	pub := &fakePublisher{}
	factory := newTestFactory(&fakeCircleStore{err: errors.New("insert failed")}, &fakeProvisioner{}, pub).
		WithClock(fixedClock(14, 0))

	_, err := factory.CreateCircle(context.Background(), group("anxiety", 5, 3))
	require.Error(t, err)
	assert.Empty(t, pub.notified, "no notifications for a circle that never persisted")
}

func TestCreateCircleRejectsBadGroupSize(t *testing.T) {
	store := &fakeCircleStore{}
	factory := newTestFactory(store, &fakeProvisioner{}, &fakePublisher{})

	_, err := factory.CreateCircle(context.Background(), group("anxiety", 5, 2))
	require.Error(t, err)

	_, err = factory.CreateCircle(context.Background(), group("anxiety", 5, 5))
	require.Error(t, err)

	assert.Empty(t, store.circles, "invariant violations never reach the store")
}
