package db

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Settings is the per-chat moderation configuration. Owned by chat admins
// through the management surface; the enforcement core only reads it.
type Settings struct {
	ID                   int64  `db:"id"`
	Title                string `db:"title"`
	Language             string `db:"language"`
	LockWarnEnabled      bool   `db:"lock_warn_enabled"`
	MaxWarnings          int    `db:"max_warnings"`
	WarningTTLNS         int64  `db:"warning_ttl_ns"`
	ThresholdAction      string `db:"threshold_action"`
	ThresholdDurationNS  int64  `db:"threshold_duration_ns"`
	CleanServiceEnabled  bool   `db:"clean_service_enabled"`
	AntiFloodEnabled     bool   `db:"antiflood_enabled"`
	AntiFloodMaxMessages int    `db:"antiflood_max_messages"`
	AntiFloodWindowNS    int64  `db:"antiflood_window_ns"`
	AntiFloodAction      string `db:"antiflood_action"`
	AntiFloodDurationNS  int64  `db:"antiflood_duration_ns"`
	LogChannelID         int64  `db:"log_channel_id"`
}

const (
	DefaultMaxWarnings       = 3
	DefaultWarningTTL        = 24 * time.Hour
	DefaultThresholdAction   = "mute"
	DefaultAntiFloodMessages = 5
	DefaultAntiFloodWindow   = 10 * time.Second
	DefaultAntiFloodAction   = "mute"
)

func DefaultSettings(chatID int64) *Settings {
	return &Settings{
		ID:                   chatID,
		Language:             "en",
		LockWarnEnabled:      false,
		MaxWarnings:          DefaultMaxWarnings,
		WarningTTLNS:         DefaultWarningTTL.Nanoseconds(),
		ThresholdAction:      DefaultThresholdAction,
		AntiFloodEnabled:     false,
		AntiFloodMaxMessages: DefaultAntiFloodMessages,
		AntiFloodWindowNS:    DefaultAntiFloodWindow.Nanoseconds(),
		AntiFloodAction:      DefaultAntiFloodAction,
	}
}

// Normalize backfills zero values with the documented defaults, so a chat
// with a partially edited row still behaves sanely.
func (s *Settings) Normalize() *Settings {
	if s.MaxWarnings < 1 {
		s.MaxWarnings = DefaultMaxWarnings
	}
	if s.WarningTTLNS < 0 {
		s.WarningTTLNS = DefaultWarningTTL.Nanoseconds()
	}
	if s.ThresholdAction == "" {
		s.ThresholdAction = DefaultThresholdAction
	}
	if s.AntiFloodMaxMessages < 1 {
		s.AntiFloodMaxMessages = DefaultAntiFloodMessages
	}
	if s.AntiFloodWindowNS <= 0 {
		s.AntiFloodWindowNS = DefaultAntiFloodWindow.Nanoseconds()
	}
	if s.AntiFloodAction == "" {
		s.AntiFloodAction = DefaultAntiFloodAction
	}
	return s
}

func (s *Settings) WarningTTL() time.Duration {
	return time.Duration(s.WarningTTLNS)
}

func (s *Settings) AntiFloodWindow() time.Duration {
	return time.Duration(s.AntiFloodWindowNS)
}
