package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"circle-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReportCircleRequest struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Details   string `json:"details,omitempty"`
	Severity  string `json:"severity,omitempty"`
}

type ReportCircleResponse struct {
	ReportID    string `json:"report_id"`
	Message     string `json:"message"`
	ActionTaken string `json:"action_taken"`
}

func (api *APIService) GetCircle(w http.ResponseWriter, r *http.Request) {
	circleID := chi.URLParam(r, "circleID")

	circle, err := api.circleStore.GetCircle(r.Context(), circleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "Circle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load circle", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, circle)
}

// GetCircleToken re-issues the circle's stored voice credentials, for clients
// that reconnect after losing the original match notification.
func (api *APIService) GetCircleToken(w http.ResponseWriter, r *http.Request) {
	circleID := chi.URLParam(r, "circleID")

	if r.URL.Query().Get("session_id") == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	circle, err := api.circleStore.GetCircle(r.Context(), circleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "Circle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load circle", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, circle.Voice)
}

// ReportCircle records a safety report. High-severity reports, and any report
// whose reason mentions harassment or abuse, terminate the circle on the
// spot; everything else is flagged for review.
func (api *APIService) ReportCircle(w http.ResponseWriter, r *http.Request) {
	circleID := chi.URLParam(r, "circleID")

	var req ReportCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.SessionID == "" || req.Reason == "" {
		http.Error(w, "Missing required fields: session_id, reason", http.StatusBadRequest)
		return
	}

	reason := req.Reason
	if req.Details != "" {
		reason += ": " + req.Details
	}

	report := &storage.SafetyReport{
		ReportID:          uuid.New().String(),
		CircleID:          circleID,
		ReporterSessionID: req.SessionID,
		Reason:            reason,
		CreatedAt:         time.Now().UTC(),
	}

	if err := api.circleStore.CreateSafetyReport(r.Context(), report); err != nil {
		http.Error(w, "Failed to submit safety report", http.StatusInternalServerError)
		return
	}

	actionTaken := "Report flagged for review"
	if isSevere(req.Severity, req.Reason) {
		if err := api.circleStore.UpdateCircleStatus(r.Context(), circleID, storage.CircleTerminated); err != nil {
			http.Error(w, "Failed to terminate circle", http.StatusInternalServerError)
			return
		}
		actionTaken = "Circle terminated immediately"
	}

	if err := api.circleStore.UpdateSafetyReportAction(r.Context(), report.ReportID, actionTaken); err != nil {
		http.Error(w, "Failed to update safety report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ReportCircleResponse{
		ReportID:    report.ReportID,
		Message:     "Safety report submitted",
		ActionTaken: actionTaken,
	})
}

// GetCircleSummary returns the circle's summary, generating and persisting
// one on first request.
func (api *APIService) GetCircleSummary(w http.ResponseWriter, r *http.Request) {
	circleID := chi.URLParam(r, "circleID")

	summary, err := api.circleStore.GetSummary(r.Context(), circleID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "Failed to load summary", http.StatusInternalServerError)
			return
		}

		summary, err = api.summarizer.GenerateSummary(r.Context(), circleID)
		if err != nil {
			http.Error(w, "Failed to generate summary", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]*storage.SessionSummary{"summary": summary})
}

type RouletteRequest struct {
	TrustLevel        int      `json:"trust_level"`
	PreviousQuestions []string `json:"previous_questions,omitempty"`
}

type RouletteResponse struct {
	Question        string `json:"question"`
	TrustLevel      int    `json:"trust_level"`
	AnswerTimeLimit int    `json:"answer_time_limit"`
	CanPass         bool   `json:"can_pass"`
}

// CircleRoulette hands out one progressive icebreaker question for the
// circle's theme. Answering is always optional and time-boxed client-side.
func (api *APIService) CircleRoulette(w http.ResponseWriter, r *http.Request) {
	circleID := chi.URLParam(r, "circleID")

	var req RouletteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.TrustLevel == 0 {
		req.TrustLevel = 1
	}

	question := api.summarizer.RouletteQuestion(r.Context(), circleID, req.TrustLevel, req.PreviousQuestions)

	writeJSON(w, http.StatusOK, RouletteResponse{
		Question:        question,
		TrustLevel:      req.TrustLevel,
		AnswerTimeLimit: 60,
		CanPass:         true,
	})
}

func isSevere(severity, reason string) bool {
	if strings.EqualFold(severity, "high") {
		return true
	}
	lowered := strings.ToLower(reason)
	return strings.Contains(lowered, "harassment") || strings.Contains(lowered, "abuse")
}
