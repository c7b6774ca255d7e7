package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"circle-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type MatchingService interface {
	SubmitMatchRequest(ctx context.Context, req *storage.MatchRequest) error
	WithdrawMatchRequest(ctx context.Context, sessionID string) error
	QueuePosition(ctx context.Context, sessionID string) (int, error)
}

type CircleStore interface {
	GetCircle(ctx context.Context, circleID string) (*storage.Circle, error)
	UpdateCircleStatus(ctx context.Context, circleID, status string) error
	GetSummary(ctx context.Context, circleID string) (*storage.SessionSummary, error)
	CreateSafetyReport(ctx context.Context, report *storage.SafetyReport) error
	UpdateSafetyReportAction(ctx context.Context, reportID, actionTaken string) error
}

type SessionStore interface {
	CreateUserSession(ctx context.Context, session *storage.UserSession) error
	GetUserSession(ctx context.Context, sessionID string) (*storage.UserSession, error)
	DeleteUserSession(ctx context.Context, sessionID string) error
}

type Summarizer interface {
	GenerateSummary(ctx context.Context, circleID string) (*storage.SessionSummary, error)
	RouletteQuestion(ctx context.Context, circleID string, trustLevel int, previousQuestions []string) string
}

type WebSocketHandler interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

type APIService struct {
	matchingService MatchingService
	circleStore     CircleStore
	sessionStore    SessionStore
	summarizer      Summarizer
	wsHandler       WebSocketHandler
}

func NewAPIService(matchingService MatchingService, circleStore CircleStore, sessionStore SessionStore, summarizer Summarizer, wsHandler WebSocketHandler) *APIService {
	return &APIService{
		matchingService: matchingService,
		circleStore:     circleStore,
		sessionStore:    sessionStore,
		summarizer:      summarizer,
		wsHandler:       wsHandler,
	}
}

func NewRouter(apiService *APIService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", apiService.Health)

	r.Route("/api/matching", func(r chi.Router) {
		r.Post("/join", apiService.JoinMatching)
		r.Delete("/leave", apiService.LeaveMatching)
		r.Get("/status/{sessionID}", apiService.MatchingStatus)
		r.Post("/twins", apiService.FindTwins)
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/create", apiService.CreateSession)
		r.Get("/{sessionID}", apiService.GetSession)
		r.Delete("/{sessionID}", apiService.DeleteSession)
	})

	r.Route("/api/circles", func(r chi.Router) {
		r.Get("/{circleID}", apiService.GetCircle)
		r.Get("/{circleID}/token", apiService.GetCircleToken)
		r.Post("/{circleID}/report", apiService.ReportCircle)
		r.Get("/{circleID}/summary", apiService.GetCircleSummary)
		r.Post("/{circleID}/roulette", apiService.CircleRoulette)
	})

	r.HandleFunc("/ws", apiService.wsHandler.HandleWebSocket)

	return r
}

func (api *APIService) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "circle-backend",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
