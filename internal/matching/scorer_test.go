package matching

import (
	"testing"

	"circle-backend/internal/storage"

	"github.com/stretchr/testify/assert"
)

func req(theme string, intensity int, comfort string) storage.MatchRequest {
	return storage.MatchRequest{
		SessionID:    "s",
		Theme:        theme,
		Intensity:    intensity,
		ComfortLevel: comfort,
	}
}

func TestScoreThemeIsHardGate(t *testing.T) {
	a := req("anxiety", 5, storage.ComfortComfortable)
	b := req("grief", 5, storage.ComfortComfortable)

	assert.Equal(t, 0, Score(a, b))
}

func TestScorePerfectMatch(t *testing.T) {
	a := req("anxiety", 5, storage.ComfortComfortable)
	b := req("anxiety", 5, storage.ComfortComfortable)

	// 50 theme + 30 intensity + 20 comfort
	assert.Equal(t, 100, Score(a, b))
}

func TestScoreIntensityDistance(t *testing.T) {
	tests := []struct {
		name string
		diff int
		want int
	}{
		{"identical", 0, 100},
		{"one apart", 1, 95},
		{"three apart", 3, 85},
		{"six apart", 6, 70},
		{"clipped at zero", 9, 70}, // 30 - 45 clips to 0
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := req("anxiety", 1, storage.ComfortListening)
			b := req("anxiety", 1+tt.diff, storage.ComfortListening)
			assert.Equal(t, tt.want, Score(a, b))
		})
	}
}

func TestScoreComfortTiers(t *testing.T) {
	base := func(comfortA, comfortB string) int {
		return Score(
			req("grief", 5, comfortA),
			req("grief", 5, comfortB),
		)
	}

	// 50 theme + 30 intensity, then the comfort contribution.
	assert.Equal(t, 100, base(storage.ComfortListening, storage.ComfortListening))
	assert.Equal(t, 90, base(storage.ComfortSharingSometimes, storage.ComfortComfortable))
	assert.Equal(t, 90, base(storage.ComfortComfortable, storage.ComfortSharingSometimes))
	assert.Equal(t, 80, base(storage.ComfortListening, storage.ComfortComfortable))
	assert.Equal(t, 80, base(storage.ComfortListening, storage.ComfortSharingSometimes))
}
