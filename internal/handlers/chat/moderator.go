package handlers

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/bot"
	"github.com/iamwavecut/chatwarden/internal/config"
	"github.com/iamwavecut/chatwarden/internal/db"
	"github.com/iamwavecut/chatwarden/internal/moderation"
	"github.com/iamwavecut/chatwarden/internal/observability"
)

// platformOps is the slice of platform operations the handler needs beyond
// what the moderation core drives itself.
type platformOps interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	Unrestrict(ctx context.Context, chatID, userID int64) error
	Unban(ctx context.Context, chatID, userID int64) error
}

// Moderator routes group messages through flood detection and lock
// enforcement, and serves the admin moderation commands.
type Moderator struct {
	s         bot.Service
	pipeline  *moderation.Pipeline
	antiFlood *moderation.AntiFlood
	ladder    *moderation.WarningLadder
	executor  *moderation.Executor
	platform  platformOps
}

func NewModerator(
	s bot.Service,
	pipeline *moderation.Pipeline,
	antiFlood *moderation.AntiFlood,
	ladder *moderation.WarningLadder,
	executor *moderation.Executor,
	platform platformOps,
) *Moderator {
	m := &Moderator{
		s:         s,
		pipeline:  pipeline,
		antiFlood: antiFlood,
		ladder:    ladder,
		executor:  executor,
		platform:  platform,
	}
	m.getLogEntry().Debug("created new moderator")
	return m
}

func (m *Moderator) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	entry := m.getLogEntry().WithField("method", "Handle")
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if u == nil {
		return false, errors.New("nil update")
	}
	if u.Message == nil && u.EditedMessage == nil {
		return true, nil
	}
	if chat == nil || chat.IsPrivate() {
		return true, nil
	}
	if user != nil && user.ID == m.s.GetBot().Self.ID {
		return true, nil
	}

	settings, err := m.getOrCreateSettings(ctx, chat)
	if err != nil {
		return false, err
	}

	if u.Message != nil && u.Message.IsCommand() {
		consumed, err := m.handleCommand(ctx, u.Message, chat, user, settings)
		if err != nil {
			entry.WithField("error", err.Error()).Error("error handling command")
			return true, err
		}
		if consumed {
			return true, nil
		}
		// Anything else that merely looks like a command is ordinary
		// content: it still goes through flood and lock enforcement.
	}

	if user != nil {
		isAdmin, err := m.s.IsAdmin(ctx, chat.ID, user.ID)
		if err != nil {
			entry.WithField("error", err.Error()).Error("failed to check admin status, treating as non-admin")
		} else if isAdmin {
			return true, nil
		}
	}

	ev := bot.BuildContentEvent(u)
	if ev == nil {
		return true, nil
	}
	ev.ChatTitle = chat.Title

	if ev.IsServiceEvent && settings.CleanServiceEnabled {
		if err := m.platform.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			entry.WithField("error", err.Error()).Warn("failed to clean service message")
		}
	}

	punished, err := m.antiFlood.CheckAndMaybePunish(ctx, ev)
	if err != nil {
		entry.WithField("error", err.Error()).Error("flood check failed")
	}
	if punished {
		// Flood handling owns the event; lock classification is skipped.
		return true, nil
	}

	done := observability.StartEnforcement()
	result, err := m.pipeline.Enforce(ctx, ev)
	if err != nil {
		done("error")
		return true, errors.WithMessage(err, "enforcement failed")
	}
	done(string(result.Outcome))

	return true, nil
}

func (m *Moderator) getOrCreateSettings(ctx context.Context, chat *api.Chat) (*db.Settings, error) {
	settings, err := m.s.GetSettings(ctx, chat.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if settings == nil || errors.Is(err, db.ErrNotFound) {
		settings = newChatSettings(chat)
		if err := m.s.SetSettings(ctx, settings); err != nil {
			return nil, err
		}
	}
	return settings.Normalize(), nil
}

// newChatSettings seeds a first-seen chat from the instance-wide defaults;
// admins override per chat from there. Normalize backfills anything the
// environment left at zero.
func newChatSettings(chat *api.Chat) *db.Settings {
	settings := db.DefaultSettings(chat.ID)
	settings.Title = chat.Title
	cfg, err := config.Load()
	if err != nil {
		return settings.Normalize()
	}
	if cfg.DefaultLanguage != "" {
		settings.Language = cfg.DefaultLanguage
	}
	settings.MaxWarnings = cfg.Moderation.MaxWarnings
	settings.WarningTTLNS = cfg.Moderation.WarningTTL.Nanoseconds()
	settings.ThresholdAction = cfg.Moderation.ThresholdAction
	settings.LogChannelID = cfg.Moderation.LogChannelID
	settings.AntiFloodEnabled = cfg.AntiFlood.Enabled
	settings.AntiFloodMaxMessages = cfg.AntiFlood.MaxMessages
	settings.AntiFloodWindowNS = cfg.AntiFlood.Window.Nanoseconds()
	settings.AntiFloodAction = cfg.AntiFlood.Action
	return settings.Normalize()
}

func (m *Moderator) getLogEntry() *log.Entry {
	return log.WithField("object", "Moderator")
}
