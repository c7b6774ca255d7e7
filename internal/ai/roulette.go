package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	rouletteFallback   = "If you feel comfortable, what would you like to share?"
	roulettePromptTmpl = `You are the conversation prompter for an anonymous voice circle about "%s".

Generate ONE open-ended, thought-provoking question.

RULES:
- Question depth: %s (trust level: %d/10)
- Should encourage vulnerability but not force it
- Avoid therapy-speak or clinical language
- Make it feel like a question a wise friend would ask
- Keep it under 20 words
- Don't repeat these questions: %s

Generate ONE question appropriate for trust level %d/10.`
)

// Depth bands for the progressive question game: questions get more personal
// as the group's self-reported trust level climbs.
var depthGuidelines = map[string]string{
	"low":    "surface-level, gentle, easy to answer",
	"medium": "moderately personal, thought-provoking",
	"high":   "deeply vulnerable, potentially life-changing",
}

var fallbackQuestions = map[string][]string{
	"low": {
		"What brought you to this circle today?",
		"How are you really feeling right now?",
		"What's been on your mind lately?",
	},
	"medium": {
		"What's something you wish people understood about you?",
		"When was the last time you felt truly heard?",
		"What would make today feel like a good day?",
	},
	"high": {
		"What are you most afraid to admit?",
		"What would you do if no one was watching?",
		"What truth have you been avoiding?",
	},
}

func trustDepth(trustLevel int) string {
	switch {
	case trustLevel <= 3:
		return "low"
	case trustLevel <= 7:
		return "medium"
	default:
		return "high"
	}
}

// RouletteQuestion generates one progressive icebreaker question for a
// circle. Never fails: an unknown circle gets a generic theme, and a missing
// or failing model falls back to a canned question at the right depth.
func (s *Summarizer) RouletteQuestion(ctx context.Context, circleID string, trustLevel int, previousQuestions []string) string {
	if trustLevel < 1 {
		trustLevel = 1
	}
	if trustLevel > 10 {
		trustLevel = 10
	}

	theme := "emotional support"
	if circle, err := s.store.GetCircle(ctx, circleID); err == nil {
		theme = circle.Theme
	}

	depth := trustDepth(trustLevel)

	if s.client == nil {
		return pickFallback(depth)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(roulettePromptTmpl,
					theme, depthGuidelines[depth], trustLevel,
					strings.Join(previousQuestions, ", "), trustLevel),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Theme: %s, Trust Level: %d/10", theme, trustLevel),
			},
		},
		Temperature: 0.9,
		MaxTokens:   60,
	})
	if err != nil {
		s.log.Warn().Str("circle_id", circleID).Err(err).Msg("roulette generation failed, using fallback question")
		return pickFallback(depth)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return rouletteFallback
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func pickFallback(depth string) string {
	questions := fallbackQuestions[depth]
	return questions[rand.Intn(len(questions))]
}
