package notify

import (
	"context"

	"circle-backend/internal/circle"
	"circle-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service fans one match notification out to both push channels: the
// session's Redis channel and its websocket connection, when either exists.
type Service struct {
	redis *storage.RedisClient
	ws    *WSManager
	log   zerolog.Logger
}

func NewService(redis *storage.RedisClient, ws *WSManager) *Service {
	return &Service{
		redis: redis,
		ws:    ws,
		log:   log.With().Str("component", "notify").Logger(),
	}
}

// NotifyMatchFound implements circle.Publisher. Each channel is best-effort;
// the first failure is returned so the caller can log it, but delivery on the
// other channel is still attempted.
func (s *Service) NotifyMatchFound(ctx context.Context, sessionID string, notification circle.MatchNotification) error {
	pubErr := s.redis.PublishMatchFound(ctx, sessionID, notification)
	if pubErr != nil {
		s.log.Warn().Str("session_id", sessionID).Err(pubErr).Msg("pub/sub notification failed")
	}

	wsErr := s.ws.Send(sessionID, Message{
		Type: "match_found",
		Data: notification,
	})
	if wsErr != nil {
		s.log.Warn().Str("session_id", sessionID).Err(wsErr).Msg("websocket notification failed")
	}

	if pubErr != nil {
		return pubErr
	}
	return wsErr
}
