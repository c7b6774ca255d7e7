package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"circle-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionTTL = 24 * time.Hour

type CreateSessionRequest struct {
	Theme        string `json:"theme"`
	Intensity    int    `json:"intensity"`
	ComfortLevel string `json:"comfort_level"`
	Timezone     string `json:"timezone"`
	Duration     int    `json:"duration"`
}

type CreateSessionResponse struct {
	Session *storage.UserSession `json:"session"`
	Message string               `json:"message"`
}

// CreateSession mints a new anonymous session with a server-generated id.
// Sessions expire after 24 hours and carry no identity beyond the stated
// preferences.
func (api *APIService) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Theme == "" || req.ComfortLevel == "" || req.Timezone == "" {
		http.Error(w, "Missing required fields: theme, comfort_level, timezone", http.StatusBadRequest)
		return
	}

	ok, msg := validatePreferences(req.Theme, req.Intensity, req.ComfortLevel, req.Duration)
	if !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	session := &storage.UserSession{
		SessionID:    uuid.New().String(),
		Theme:        req.Theme,
		Intensity:    req.Intensity,
		ComfortLevel: req.ComfortLevel,
		Timezone:     req.Timezone,
		Duration:     req.Duration,
		CreatedAt:    now,
		ExpiresAt:    now.Add(sessionTTL),
	}

	if err := api.sessionStore.CreateUserSession(r.Context(), session); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		Session: session,
		Message: "Session created successfully",
	})
}

func (api *APIService) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := api.sessionStore.GetUserSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "Session not found or expired", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*storage.UserSession{"session": session})
}

func (api *APIService) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := api.sessionStore.DeleteUserSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}
