package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"circle-backend/internal/emotion"
	"circle-backend/internal/storage"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSummaryStore struct {
	circle    *storage.Circle
	circleErr error
	saved     *storage.SessionSummary
	saveErr   error
}

func (s *fakeSummaryStore) GetCircle(ctx context.Context, circleID string) (*storage.Circle, error) {
	if s.circleErr != nil {
		return nil, s.circleErr
	}
	return s.circle, nil
}

func (s *fakeSummaryStore) CreateSummary(ctx context.Context, summary *storage.SessionSummary) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = summary
	return nil
}

type fakeCompleter struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (c *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.content}},
		},
	}, nil
}

func testCircle() *storage.Circle {
	return &storage.Circle{
		CircleID:     "c1",
		Theme:        "anxiety",
		Participants: []string{"a", "b", "c", "d"},
	}
}

func TestGenerateSummaryWithoutModelUsesFallback(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))

	summary, err := summarizer.GenerateSummary(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, fallbackMessage, summary.ValidationMessage)
	assert.Equal(t, "positive", summary.SentimentTrend)
	assert.Contains(t, summary.CommonEmotions, "anxiety")
	assert.Equal(t, summaryTTL, summary.ExpiresAt.Sub(summary.CreatedAt))
	require.NotNil(t, store.saved, "the summary is persisted")

	total := 0
	for _, share := range summary.SpeakingBalance {
		total += share
	}
	assert.Equal(t, 100, total)
	assert.Len(t, summary.SpeakingBalance, 4)
}

func TestGenerateSummaryUsesModelOutput(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	summarizer.client = &fakeCompleter{content: "You were heard tonight."}

	summary, err := summarizer.GenerateSummary(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "You were heard tonight.", summary.ValidationMessage)
}

func TestGenerateSummaryModelFailureFallsBack(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	summarizer.client = &fakeCompleter{err: errors.New("rate limited")}

	summary, err := summarizer.GenerateSummary(context.Background(), "c1")
	require.NoError(t, err, "a model outage never fails summary generation")
	assert.Equal(t, fallbackMessage, summary.ValidationMessage)
}

func TestGenerateSummaryUnknownCircle(t *testing.T) {
	store := &fakeSummaryStore{circleErr: errors.New("no rows")}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))

	_, err := summarizer.GenerateSummary(context.Background(), "ghost")
	require.Error(t, err)
}

func TestGenerateSummaryPersistFailure(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle(), saveErr: errors.New("insert failed")}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))

	_, err := summarizer.GenerateSummary(context.Background(), "c1")
	require.Error(t, err)
}

func TestSummarizerClockIsInjectable(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	fixed := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	summarizer.clock = func() time.Time { return fixed }

	summary, err := summarizer.GenerateSummary(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, fixed, summary.CreatedAt)
}
