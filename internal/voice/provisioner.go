// Package voice talks to the external RTC provisioning service that mints
// time-bounded channel credentials for circles.
package voice

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"circle-backend/internal/storage"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config carries the provisioning endpoint and app identity.
type Config struct {
	TokenEndpoint  string
	AppID          string
	AppCertificate string
	TokenTTL       time.Duration
}

// Client requests RTC tokens from the token endpoint. Failures surface as
// errors; the caller decides on the fallback.
type Client struct {
	http *resty.Client
	cfg  Config
	log  zerolog.Logger
}

func NewClient(cfg Config) *Client {
	http := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(1)

	return &Client{
		http: http,
		cfg:  cfg,
		log:  log.With().Str("component", "voice").Logger(),
	}
}

type tokenRequest struct {
	AppID       string `json:"app_id"`
	Certificate string `json:"certificate"`
	ChannelName string `json:"channel_name"`
	UID         int    `json:"uid"`
	TTLSeconds  int    `json:"ttl_seconds"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Provision requests credentials for a circle's channel. The channel name is
// the circle id; userID is optional and only influences the numeric
// participant id.
func (c *Client) Provision(ctx context.Context, channelName, userID string) (storage.VoiceCredentials, error) {
	if c.cfg.TokenEndpoint == "" || c.cfg.AppID == "" {
		return storage.VoiceCredentials{}, fmt.Errorf("voice provisioning not configured")
	}

	uid := ParticipantID(userID)

	var tokenResp tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(tokenRequest{
			AppID:       c.cfg.AppID,
			Certificate: c.cfg.AppCertificate,
			ChannelName: channelName,
			UID:         uid,
			TTLSeconds:  int(c.cfg.TokenTTL.Seconds()),
		}).
		SetResult(&tokenResp).
		Post(c.cfg.TokenEndpoint)

	if err != nil {
		return storage.VoiceCredentials{}, fmt.Errorf("token request failed: %w", err)
	}
	if resp.IsError() {
		return storage.VoiceCredentials{}, fmt.Errorf("token endpoint returned %s", resp.Status())
	}
	if tokenResp.Token == "" {
		return storage.VoiceCredentials{}, fmt.Errorf("token endpoint returned empty token")
	}

	c.log.Debug().Str("channel", channelName).Int("uid", uid).Msg("provisioned voice credentials")

	return storage.VoiceCredentials{
		Token:         tokenResp.Token,
		AppID:         c.cfg.AppID,
		ChannelName:   channelName,
		ParticipantID: uid,
	}, nil
}

// ParticipantID derives a numeric RTC uid from the digits of a user id, or
// picks a random one when the id carries no usable digits.
func ParticipantID(userID string) int {
	digits := strings.Builder{}
	for _, r := range userID {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == 9 {
				break
			}
		}
	}

	if digits.Len() > 0 {
		uid := 0
		for _, r := range digits.String() {
			uid = uid*10 + int(r-'0')
		}
		if uid > 0 {
			return uid
		}
	}

	return 1 + rand.Intn(100000)
}
