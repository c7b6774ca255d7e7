package api

import (
	"encoding/json"
	"net/http"

	"circle-backend/internal/emotion"
)

const defaultTwinMinScore = 70

type FindTwinsRequest struct {
	Profile    *emotion.Profile   `json:"profile"`
	Candidates []*emotion.Profile `json:"candidates"`
	MinScore   *int               `json:"min_score,omitempty"`
}

type FindTwinsResponse struct {
	Matches []emotion.TwinMatch `json:"matches"`
}

// FindTwins scores the submitted profile against the candidate profiles and
// returns the emotional twins above the threshold, best first.
func (api *APIService) FindTwins(w http.ResponseWriter, r *http.Request) {
	var req FindTwinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Profile == nil || req.Profile.SessionID == "" {
		http.Error(w, "profile with session_id is required", http.StatusBadRequest)
		return
	}

	minScore := defaultTwinMinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	writeJSON(w, http.StatusOK, FindTwinsResponse{
		Matches: emotion.FindTwins(req.Profile, req.Candidates, minScore),
	})
}
