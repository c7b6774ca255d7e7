package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"circle-backend/internal/storage"

	"github.com/go-chi/chi/v5"
)

type JoinMatchingRequest struct {
	SessionID    string `json:"session_id"`
	Theme        string `json:"theme"`
	Intensity    int    `json:"intensity"`
	ComfortLevel string `json:"comfort_level"`
	Timezone     string `json:"timezone"`
	Duration     int    `json:"duration"`
}

type JoinMatchingResponse struct {
	Message           string `json:"message"`
	QueuePosition     int    `json:"queue_position"`
	EstimatedWaitTime string `json:"estimated_wait_time"`
}

type LeaveMatchingRequest struct {
	SessionID string `json:"session_id"`
}

type MatchingStatusResponse struct {
	Status            string `json:"status"`
	QueuePosition     int    `json:"queue_position,omitempty"`
	EstimatedWaitTime string `json:"estimated_wait_time,omitempty"`
	Message           string `json:"message,omitempty"`
}

func (api *APIService) JoinMatching(w http.ResponseWriter, r *http.Request) {
	var req JoinMatchingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ok, msg := validateJoinRequest(req)
	if !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	matchReq := &storage.MatchRequest{
		SessionID:    req.SessionID,
		Theme:        req.Theme,
		Intensity:    req.Intensity,
		ComfortLevel: req.ComfortLevel,
		Timezone:     req.Timezone,
		Duration:     req.Duration,
	}

	if err := api.matchingService.SubmitMatchRequest(r.Context(), matchReq); err != nil {
		http.Error(w, "Matching temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	position, err := api.matchingService.QueuePosition(r.Context(), req.SessionID)
	if err != nil {
		position = -1
	}

	writeJSON(w, http.StatusCreated, JoinMatchingResponse{
		Message:           "Added to matching queue",
		QueuePosition:     position,
		EstimatedWaitTime: "1-2 minutes",
	})
}

func (api *APIService) LeaveMatching(w http.ResponseWriter, r *http.Request) {
	var req LeaveMatchingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if err := api.matchingService.WithdrawMatchRequest(r.Context(), req.SessionID); err != nil {
		http.Error(w, "Failed to leave matching queue", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from matching queue"})
}

func (api *APIService) MatchingStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	position, err := api.matchingService.QueuePosition(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Failed to check matching status", http.StatusInternalServerError)
		return
	}

	if position < 0 {
		writeJSON(w, http.StatusOK, MatchingStatusResponse{
			Status:  "not_in_queue",
			Message: "Not currently in matching queue",
		})
		return
	}

	writeJSON(w, http.StatusOK, MatchingStatusResponse{
		Status:            "waiting",
		QueuePosition:     position,
		EstimatedWaitTime: "1-2 minutes",
	})
}

func validateJoinRequest(req JoinMatchingRequest) (bool, string) {
	if req.SessionID == "" || req.Theme == "" || req.ComfortLevel == "" || req.Timezone == "" {
		return false, "Missing required fields: session_id, theme, comfort_level, timezone"
	}

	return validatePreferences(req.Theme, req.Intensity, req.ComfortLevel, req.Duration)
}

// validatePreferences checks the shared theme/intensity/comfort/duration
// fields used by both queue joins and session creation.
func validatePreferences(theme string, intensity int, comfortLevel string, duration int) (bool, string) {
	if !slices.Contains(storage.Themes, theme) {
		return false, fmt.Sprintf("Invalid theme '%s'", theme)
	}

	if intensity < 1 || intensity > 10 {
		return false, "intensity must be between 1 and 10"
	}

	validComfort := comfortLevel == storage.ComfortListening ||
		comfortLevel == storage.ComfortSharingSometimes ||
		comfortLevel == storage.ComfortComfortable
	if !validComfort {
		return false, fmt.Sprintf("Invalid comfort_level '%s'", comfortLevel)
	}

	if !slices.Contains(storage.Durations, duration) {
		return false, fmt.Sprintf("duration must be one of %v minutes", storage.Durations)
	}

	return true, ""
}
