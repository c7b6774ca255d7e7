package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 20
	config.MaxConnIdleTime = 30 * time.Minute
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	db.pool.Close()
}

// Bootstrap creates the tables the service needs if they do not exist yet.
func (db *PostgresDB) Bootstrap(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_sessions (
			session_id VARCHAR(255) PRIMARY KEY,
			theme VARCHAR(50) NOT NULL,
			intensity INTEGER NOT NULL CHECK (intensity BETWEEN 1 AND 10),
			comfort_level VARCHAR(50) NOT NULL,
			timezone VARCHAR(100) NOT NULL,
			duration INTEGER NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS circle_sessions (
			circle_id VARCHAR(255) PRIMARY KEY,
			participants TEXT[] NOT NULL,
			theme VARCHAR(50) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL,
			voice_token TEXT,
			voice_app_id VARCHAR(255),
			voice_channel_name VARCHAR(255),
			voice_participant_id INTEGER,
			ai_moderator_active BOOLEAN DEFAULT true,
			circle_type VARCHAR(50) DEFAULT 'standard',
			auto_delete_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS session_summaries (
			summary_id SERIAL PRIMARY KEY,
			circle_id VARCHAR(255) NOT NULL,
			common_emotions TEXT[] NOT NULL,
			speaking_balance INTEGER[] NOT NULL,
			sentiment_trend VARCHAR(20) NOT NULL,
			validation_message TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS safety_reports (
			report_id VARCHAR(255) PRIMARY KEY,
			circle_id VARCHAR(255) NOT NULL,
			reporter_session_id VARCHAR(255) NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			action_taken TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

func (db *PostgresDB) CreateUserSession(ctx context.Context, session *UserSession) error {
	query := `
		INSERT INTO user_sessions
		(session_id, theme, intensity, comfort_level, timezone, duration, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.pool.Exec(ctx, query,
		session.SessionID, session.Theme, session.Intensity, session.ComfortLevel,
		session.Timezone, session.Duration, session.CreatedAt, session.ExpiresAt)

	return err
}

// GetUserSession returns a session only while it is still alive; expired rows
// behave as if they were already deleted.
func (db *PostgresDB) GetUserSession(ctx context.Context, sessionID string) (*UserSession, error) {
	session := &UserSession{}
	query := `
		SELECT session_id, theme, intensity, comfort_level, timezone, duration,
		       created_at, expires_at
		FROM user_sessions WHERE session_id = $1 AND expires_at > NOW()`

	err := db.pool.QueryRow(ctx, query, sessionID).Scan(
		&session.SessionID, &session.Theme, &session.Intensity,
		&session.ComfortLevel, &session.Timezone, &session.Duration,
		&session.CreatedAt, &session.ExpiresAt,
	)

	return session, err
}

func (db *PostgresDB) DeleteUserSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM user_sessions WHERE session_id = $1`
	_, err := db.pool.Exec(ctx, query, sessionID)
	return err
}

func (db *PostgresDB) CreateCircle(ctx context.Context, circle *Circle) error {
	query := `
		INSERT INTO circle_sessions
		(circle_id, participants, theme, start_time, end_time, status,
		 voice_token, voice_app_id, voice_channel_name, voice_participant_id,
		 ai_moderator_active, circle_type, auto_delete_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := db.pool.Exec(ctx, query,
		circle.CircleID, circle.Participants, circle.Theme, circle.StartTime,
		circle.EndTime, circle.Status, circle.Voice.Token, circle.Voice.AppID,
		circle.Voice.ChannelName, circle.Voice.ParticipantID,
		circle.AIModeratorActive, circle.CircleType, circle.AutoDeleteAt,
		circle.CreatedAt)

	return err
}

func (db *PostgresDB) GetCircle(ctx context.Context, circleID string) (*Circle, error) {
	circle := &Circle{}
	query := `
		SELECT circle_id, participants, theme, start_time, end_time, status,
		       voice_token, voice_app_id, voice_channel_name, voice_participant_id,
		       ai_moderator_active, circle_type, auto_delete_at, created_at
		FROM circle_sessions WHERE circle_id = $1`

	err := db.pool.QueryRow(ctx, query, circleID).Scan(
		&circle.CircleID, &circle.Participants, &circle.Theme,
		&circle.StartTime, &circle.EndTime, &circle.Status,
		&circle.Voice.Token, &circle.Voice.AppID, &circle.Voice.ChannelName,
		&circle.Voice.ParticipantID, &circle.AIModeratorActive,
		&circle.CircleType, &circle.AutoDeleteAt, &circle.CreatedAt,
	)

	return circle, err
}

func (db *PostgresDB) UpdateCircleStatus(ctx context.Context, circleID, status string) error {
	query := `UPDATE circle_sessions SET status = $2 WHERE circle_id = $1`
	_, err := db.pool.Exec(ctx, query, circleID, status)
	return err
}

// DeleteExpiredMidnightCircles removes every midnight circle whose
// auto-delete time has passed and returns the deleted circle ids. Standard
// circles are never touched.
func (db *PostgresDB) DeleteExpiredMidnightCircles(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		DELETE FROM circle_sessions
		WHERE circle_type = 'midnight' AND auto_delete_at < $1
		RETURNING circle_id`

	rows, err := db.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (db *PostgresDB) DeleteSummariesForCircles(ctx context.Context, circleIDs []string) (int64, error) {
	if len(circleIDs) == 0 {
		return 0, nil
	}

	query := `DELETE FROM session_summaries WHERE circle_id = ANY($1)`
	tag, err := db.pool.Exec(ctx, query, circleIDs)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (db *PostgresDB) CreateSummary(ctx context.Context, summary *SessionSummary) error {
	query := `
		INSERT INTO session_summaries
		(circle_id, common_emotions, speaking_balance, sentiment_trend,
		 validation_message, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.pool.Exec(ctx, query,
		summary.CircleID, summary.CommonEmotions, summary.SpeakingBalance,
		summary.SentimentTrend, summary.ValidationMessage, summary.CreatedAt,
		summary.ExpiresAt)

	return err
}

func (db *PostgresDB) GetSummary(ctx context.Context, circleID string) (*SessionSummary, error) {
	summary := &SessionSummary{}
	query := `
		SELECT circle_id, common_emotions, speaking_balance, sentiment_trend,
		       validation_message, created_at, expires_at
		FROM session_summaries WHERE circle_id = $1
		ORDER BY created_at DESC LIMIT 1`

	err := db.pool.QueryRow(ctx, query, circleID).Scan(
		&summary.CircleID, &summary.CommonEmotions, &summary.SpeakingBalance,
		&summary.SentimentTrend, &summary.ValidationMessage,
		&summary.CreatedAt, &summary.ExpiresAt,
	)

	return summary, err
}

func (db *PostgresDB) CreateSafetyReport(ctx context.Context, report *SafetyReport) error {
	query := `
		INSERT INTO safety_reports
		(report_id, circle_id, reporter_session_id, reason, created_at, action_taken)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := db.pool.Exec(ctx, query,
		report.ReportID, report.CircleID, report.ReporterSessionID,
		report.Reason, report.CreatedAt, report.ActionTaken)

	return err
}

func (db *PostgresDB) UpdateSafetyReportAction(ctx context.Context, reportID, actionTaken string) error {
	query := `UPDATE safety_reports SET action_taken = $2 WHERE report_id = $1`
	_, err := db.pool.Exec(ctx, query, reportID, actionTaken)
	return err
}
