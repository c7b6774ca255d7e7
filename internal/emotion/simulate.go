package emotion

import (
	"math/rand"
)

// Simulator generates stand-in data for the parts of the product that would
// need real audio analysis. It is a simulation fixture: nothing in the
// matching path calls it, only summary generation and tests.
type Simulator struct {
	rng *rand.Rand
}

func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// SpeakingBalance fabricates a per-participant speaking share, normalized so
// the shares sum to 100.
func (s *Simulator) SpeakingBalance(participants int) []int {
	if participants <= 0 {
		return nil
	}

	raw := make([]int, participants)
	total := 0
	for i := range raw {
		raw[i] = 20 + s.rng.Intn(20)
		total += raw[i]
	}

	balance := make([]int, participants)
	sum := 0
	for i, share := range raw {
		balance[i] = int(float64(share) / float64(total) * 100)
		sum += balance[i]
	}
	// Rounding drift lands on the first participant.
	balance[0] += 100 - sum

	return balance
}
