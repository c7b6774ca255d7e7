// Package emotion scores self-reported emotional profiles for the "emotional
// twin" matching feature. The profiles come from survey answers, not from
// audio analysis.
package emotion

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Axes are the six emotion dimensions every profile scores on, in the fixed
// order the twin scorer iterates them.
var Axes = []string{"Sadness", "Anxiety", "Joy", "Anger", "Fear", "Calmness"}

// Voice tone categories
const (
	ToneCalm      = "calm"
	ToneAnxious   = "anxious"
	ToneSad       = "sad"
	ToneEnergetic = "energetic"
)

// Speaking pace categories
const (
	PaceSlow   = "slow"
	PaceNormal = "normal"
	PaceFast   = "fast"
)

// Profile is one session's self-reported emotional state. Axis scores are
// normalized to [0,1]; energy is 0-100.
type Profile struct {
	SessionID      string             `json:"session_id"`
	PrimaryEmotion string             `json:"primary_emotion"`
	Scores         map[string]float64 `json:"emotion_scores"`
	Tone           string             `json:"tone"`
	Pace           string             `json:"pace"`
	Energy         float64            `json:"energy"`
	RecordedAt     time.Time          `json:"recorded_at"`
	Signature      string             `json:"signature"`
}

// TwinMatch pairs two profiles that scored above the twin threshold.
type TwinMatch struct {
	SessionID  string   `json:"session_id"`
	Score      int      `json:"score"`
	SharedAxes []string `json:"shared_axes"`
}

// TwinScore rates how emotionally similar two profiles are, 0-100:
// 30 points for an exact primary-emotion match, 25 for a tone match, up to 30
// from per-axis closeness (5 per axis) and up to 15 from energy closeness.
func TwinScore(p1, p2 *Profile) int {
	score := 0.0

	if p1.PrimaryEmotion == p2.PrimaryEmotion {
		score += 30
	}

	if p1.Tone == p2.Tone {
		score += 25
	}

	for _, axis := range Axes {
		diff := math.Abs(p1.Scores[axis] - p2.Scores[axis])
		score += (1 - diff) * 5
	}

	energyDiff := math.Abs(p1.Energy - p2.Energy)
	score += math.Max(0, 15-energyDiff/100*15)

	return int(math.Min(100, math.Max(0, math.Round(score))))
}

// SharedAxes lists the axes where both profiles score above 0.5, in fixed
// axis order.
func SharedAxes(p1, p2 *Profile) []string {
	shared := []string{}
	for _, axis := range Axes {
		if p1.Scores[axis] > 0.5 && p2.Scores[axis] > 0.5 {
			shared = append(shared, axis)
		}
	}
	return shared
}

// FindTwins returns the candidates scoring at least minScore against profile,
// best first. The sort is stable, so equal scores keep candidate order. The
// profile itself is skipped when it appears among the candidates.
func FindTwins(profile *Profile, candidates []*Profile, minScore int) []TwinMatch {
	matches := []TwinMatch{}

	for _, candidate := range candidates {
		if candidate.SessionID == profile.SessionID {
			continue
		}

		score := TwinScore(profile, candidate)
		if score < minScore {
			continue
		}

		matches = append(matches, TwinMatch{
			SessionID:  candidate.SessionID,
			Score:      score,
			SharedAxes: SharedAxes(profile, candidate),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Survey is the self-report a profile is derived from.
type Survey struct {
	SessionID string `json:"session_id"`
	Theme     string `json:"theme"`
	Intensity int    `json:"intensity"`
	Comfort   string `json:"comfort_level"`
}

var themeToEmotion = map[string]string{
	"loneliness":    "Sadness",
	"work-stress":   "Anxiety",
	"breakup":       "Sadness",
	"anxiety":       "Anxiety",
	"feeling-stuck": "Frustration",
	"grief":         "Sadness",
	"overwhelm":     "Anxiety",
}

// FromSurvey derives a profile from declarative survey answers. The mapping
// is intentionally coarse; it exists so twin matching has something to score,
// not to approximate real affect measurement.
func FromSurvey(survey Survey, now time.Time) *Profile {
	primary, ok := themeToEmotion[survey.Theme]
	if !ok {
		primary = "Mixed"
	}

	level := float64(survey.Intensity) / 10

	scores := make(map[string]float64, len(Axes))
	for _, axis := range Axes {
		scores[axis] = 0
	}
	if _, tracked := scores[primary]; tracked {
		scores[primary] = level
	}

	switch survey.Theme {
	case "loneliness":
		scores["Sadness"] = level
		scores["Fear"] = level * 0.5
		scores["Calmness"] = 1 - level
	case "anxiety", "work-stress":
		scores["Anxiety"] = level
		scores["Fear"] = level * 0.6
		scores["Calmness"] = 1 - level
	case "overwhelm":
		scores["Anxiety"] = level
		scores["Sadness"] = level * 0.4
		scores["Anger"] = level * 0.3
	}

	tone, pace, energy := deriveVoice(scores)

	switch survey.Comfort {
	case "listening":
		energy = math.Max(20, energy-20)
		pace = PaceSlow
	case "comfortable":
		energy = math.Min(80, energy+10)
	}

	return &Profile{
		SessionID:      survey.SessionID,
		PrimaryEmotion: primary,
		Scores:         scores,
		Tone:           tone,
		Pace:           pace,
		Energy:         energy,
		RecordedAt:     now,
		Signature:      fmt.Sprintf("%s-%s-%s-%d", primary, tone, pace, int(math.Round(energy))),
	}
}

func deriveVoice(scores map[string]float64) (tone, pace string, energy float64) {
	switch {
	case scores["Anxiety"] > 0.6:
		return ToneAnxious, PaceFast, 70 + scores["Anxiety"]*30
	case scores["Sadness"] > 0.6:
		return ToneSad, PaceSlow, 30 - scores["Sadness"]*20
	case scores["Calmness"] > 0.6:
		return ToneCalm, PaceNormal, 40 + scores["Calmness"]*20
	default:
		return ToneEnergetic, PaceNormal, 60
	}
}
