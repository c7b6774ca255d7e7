package ai

import (
	"context"
	"errors"
	"testing"

	"circle-backend/internal/emotion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouletteQuestionWithoutModelUsesDepthFallback(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))

	question := summarizer.RouletteQuestion(context.Background(), "c1", 2, nil)
	assert.Contains(t, fallbackQuestions["low"], question)

	question = summarizer.RouletteQuestion(context.Background(), "c1", 5, nil)
	assert.Contains(t, fallbackQuestions["medium"], question)

	question = summarizer.RouletteQuestion(context.Background(), "c1", 9, nil)
	assert.Contains(t, fallbackQuestions["high"], question)
}

func TestRouletteQuestionUsesModelOutput(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	completer := &fakeCompleter{content: "  What do you need tonight?  "}
	summarizer.client = completer

	question := summarizer.RouletteQuestion(context.Background(), "c1", 4, []string{"What brought you here?"})

	assert.Equal(t, "What do you need tonight?", question)
	require.Len(t, completer.lastReq.Messages, 2)
	assert.Contains(t, completer.lastReq.Messages[0].Content, "anxiety", "the circle's theme drives the prompt")
	assert.Contains(t, completer.lastReq.Messages[0].Content, "What brought you here?", "previous questions are excluded")
}

func TestRouletteQuestionModelFailureFallsBack(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	summarizer.client = &fakeCompleter{err: errors.New("rate limited")}

	question := summarizer.RouletteQuestion(context.Background(), "c1", 9, nil)
	assert.Contains(t, fallbackQuestions["high"], question)
}

func TestRouletteQuestionEmptyModelOutput(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	summarizer.client = &fakeCompleter{content: "   "}

	question := summarizer.RouletteQuestion(context.Background(), "c1", 4, nil)
	assert.Equal(t, rouletteFallback, question)
}

func TestRouletteQuestionUnknownCircleUsesGenericTheme(t *testing.T) {
	store := &fakeSummaryStore{circleErr: errors.New("no rows")}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))
	completer := &fakeCompleter{content: "How has this week been?"}
	summarizer.client = completer

	question := summarizer.RouletteQuestion(context.Background(), "ghost", 1, nil)

	assert.Equal(t, "How has this week been?", question)
	assert.Contains(t, completer.lastReq.Messages[0].Content, "emotional support")
}

func TestRouletteQuestionClampsTrustLevel(t *testing.T) {
	store := &fakeSummaryStore{circle: testCircle()}
	summarizer := NewSummarizer(store, "", "gpt-4", emotion.NewSimulator(1))

	question := summarizer.RouletteQuestion(context.Background(), "c1", 25, nil)
	assert.Contains(t, fallbackQuestions["high"], question)

	question = summarizer.RouletteQuestion(context.Background(), "c1", -3, nil)
	assert.Contains(t, fallbackQuestions["low"], question)
}
