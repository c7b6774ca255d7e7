package matching

import (
	"circle-backend/internal/storage"
)

// Score computes pairwise compatibility on a 0-100 scale. Theme is a hard
// gate: different themes score zero regardless of everything else. The group
// refinement in the engine uses a cheaper single-pass intensity heuristic;
// both must agree on what "compatible" means, which is why the spread bound
// below matches the engine's.
func Score(a, b storage.MatchRequest) int {
	if a.Theme != b.Theme {
		return 0
	}

	score := 50 // base theme match

	intensityDiff := absInt(a.Intensity - b.Intensity)
	score += maxInt(0, 30-intensityDiff*5)

	switch {
	case a.ComfortLevel == b.ComfortLevel:
		score += 20
	case isAdjacentComfort(a.ComfortLevel, b.ComfortLevel):
		score += 10
	}

	return score
}

// isAdjacentComfort gives partial credit only to the sharing-sometimes /
// comfortable pairing. Every other mismatch scores nothing.
func isAdjacentComfort(a, b string) bool {
	return (a == storage.ComfortSharingSometimes && b == storage.ComfortComfortable) ||
		(a == storage.ComfortComfortable && b == storage.ComfortSharingSometimes)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
