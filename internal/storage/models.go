package storage

import (
	"time"
)

// UserSession is one anonymous 24-hour session record. It carries the user's
// stated preferences so clients can restore them; nothing about identity is
// stored.
type UserSession struct {
	SessionID    string    `json:"session_id"`
	Theme        string    `json:"theme"`
	Intensity    int       `json:"intensity"`
	ComfortLevel string    `json:"comfort_level"`
	Timezone     string    `json:"timezone"`
	Duration     int       `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// MatchRequest is one pending entry in the matching queue. It lives in Redis
// until the session is matched into a circle or the user leaves the queue.
type MatchRequest struct {
	SessionID    string    `json:"session_id"`
	Theme        string    `json:"theme"`
	Intensity    int       `json:"intensity"`
	ComfortLevel string    `json:"comfort_level"`
	Timezone     string    `json:"timezone"`
	Duration     int       `json:"duration"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// VoiceCredentials is the RTC token bundle handed to every participant of a
// circle. Placeholder values are stored when the provisioning service is down.
type VoiceCredentials struct {
	Token         string `json:"token"`
	AppID         string `json:"app_id"`
	ChannelName   string `json:"channel_name"`
	ParticipantID int    `json:"participant_id"`
}

type Circle struct {
	CircleID          string           `json:"circle_id"`
	Participants      []string         `json:"participants"`
	Theme             string           `json:"theme"`
	StartTime         time.Time        `json:"start_time"`
	EndTime           time.Time        `json:"end_time"`
	Status            string           `json:"status"`
	Voice             VoiceCredentials `json:"voice"`
	AIModeratorActive bool             `json:"ai_moderator_active"`
	CircleType        string           `json:"circle_type"`
	AutoDeleteAt      *time.Time       `json:"auto_delete_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

type SessionSummary struct {
	CircleID          string    `json:"circle_id"`
	CommonEmotions    []string  `json:"common_emotions"`
	SpeakingBalance   []int     `json:"speaking_balance"`
	SentimentTrend    string    `json:"sentiment_trend"`
	ValidationMessage string    `json:"validation_message"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type SafetyReport struct {
	ReportID          string    `json:"report_id"`
	CircleID          string    `json:"circle_id"`
	ReporterSessionID string    `json:"reporter_session_id"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
	ActionTaken       string    `json:"action_taken,omitempty"`
}

// Circle statuses
const (
	CircleWaiting    = "waiting"
	CircleActive     = "active"
	CircleCompleted  = "completed"
	CircleTerminated = "terminated"
)

// Circle types
const (
	CircleStandard = "standard"
	CircleMidnight = "midnight"
)

// Comfort levels
const (
	ComfortListening        = "listening"
	ComfortSharingSometimes = "sharing-sometimes"
	ComfortComfortable      = "comfortable"
)

// Themes is the closed set of emotional topics a session can queue under.
var Themes = []string{
	"loneliness",
	"work-stress",
	"breakup",
	"anxiety",
	"feeling-stuck",
	"grief",
	"overwhelm",
}

// Durations lists the allowed circle lengths in minutes.
var Durations = []int{20, 30}
