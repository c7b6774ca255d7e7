// Package ai generates post-session validation summaries. Language generation
// is an external collaborator; everything here degrades to a static fallback.
package ai

import (
	"context"
	"fmt"
	"time"

	"circle-backend/internal/emotion"
	"circle-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	summaryTTL       = 7 * 24 * time.Hour
	fallbackMessage  = "Thank you for sharing your experience. You were heard, and your presence mattered."
	systemPromptTmpl = `You are a compassionate assistant for an anonymous emotional support app.
Generate a brief, warm, validation-focused message for users who just completed a voice circle about %s.
The message should be 2-3 sentences, validate their emotions, avoid giving advice, be gentle and reassuring, and not mention specific details.`
)

// SummaryStore is the slice of persistence the summarizer needs.
type SummaryStore interface {
	GetCircle(ctx context.Context, circleID string) (*storage.Circle, error)
	CreateSummary(ctx context.Context, summary *storage.SessionSummary) error
}

// chatCompleter is satisfied by *openai.Client.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer produces and persists one summary per completed circle.
type Summarizer struct {
	store  SummaryStore
	client chatCompleter
	model  string
	sim    *emotion.Simulator
	clock  func() time.Time
	log    zerolog.Logger
}

// NewSummarizer builds a summarizer. An empty apiKey disables generation;
// every summary then carries the fallback message.
func NewSummarizer(store SummaryStore, apiKey, model string, sim *emotion.Simulator) *Summarizer {
	var client chatCompleter
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}

	return &Summarizer{
		store:  store,
		client: client,
		model:  model,
		sim:    sim,
		clock:  time.Now,
		log:    log.With().Str("component", "summarizer").Logger(),
	}
}

// GenerateSummary builds a summary for a circle and persists it. The
// validation message comes from the language model when one is configured and
// reachable; otherwise the fallback text is used. Speaking balance is
// simulated, since no audio analysis exists.
func (s *Summarizer) GenerateSummary(ctx context.Context, circleID string) (*storage.SessionSummary, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("circle %s not found: %w", circleID, err)
	}

	now := s.clock()
	summary := &storage.SessionSummary{
		CircleID:          circleID,
		CommonEmotions:    []string{circle.Theme, "connection", "relief"},
		SpeakingBalance:   s.sim.SpeakingBalance(len(circle.Participants)),
		SentimentTrend:    "positive",
		ValidationMessage: s.validationMessage(ctx, circle.Theme),
		CreatedAt:         now,
		ExpiresAt:         now.Add(summaryTTL),
	}

	if err := s.store.CreateSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to persist summary for circle %s: %w", circleID, err)
	}

	return summary, nil
}

func (s *Summarizer) validationMessage(ctx context.Context, theme string) string {
	if s.client == nil {
		return fallbackMessage
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTmpl, theme),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Generate a validation message for a circle about %s", theme),
			},
		},
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("summary generation failed, using fallback message")
		return fallbackMessage
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return fallbackMessage
	}

	return resp.Choices[0].Message.Content
}
