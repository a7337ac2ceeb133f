package moderation

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/db"
)

type PunishmentType string

const (
	PunishWarn PunishmentType = "warn"
	PunishMute PunishmentType = "mute"
	PunishBan  PunishmentType = "ban"
	PunishKick PunishmentType = "kick"
)

func ParsePunishmentType(s string) (PunishmentType, bool) {
	switch PunishmentType(s) {
	case PunishWarn, PunishMute, PunishBan, PunishKick:
		return PunishmentType(s), true
	}
	return "", false
}

// PunishmentSource is the provenance of a punishment: who or what decided it.
type PunishmentSource string

const (
	SourceManual    PunishmentSource = "manual"
	SourceThreshold PunishmentSource = "threshold"
	SourceFlood     PunishmentSource = "flood"
	// SourceLock marks warnings issued by lock enforcement rather than an
	// admin command; it never appears on a PunishmentRecord.
	SourceLock PunishmentSource = "lock"
)

type PunishmentRequest struct {
	ChatID    int64
	ChatTitle string
	UserID    int64
	// IssuedBy is the acting admin's id, 0 when the system decided.
	IssuedBy int64
	Type     PunishmentType
	// Duration of 0 means indefinite (mute) or permanent (ban).
	Duration time.Duration
	Reason   string
	Source   PunishmentSource
}

// Executor applies punishments and records them. The audit record is written
// even when the platform rejects the restriction, so the trail reflects
// attempted actions; the platform failure is still returned to the caller.
type Executor struct {
	platform Platform
	store    punishmentStore
	notifier Notifier
	now      func() time.Time
}

func NewExecutor(platform Platform, store punishmentStore, notifier Notifier) *Executor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Executor{
		platform: platform,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func (e *Executor) Execute(ctx context.Context, req PunishmentRequest) (*db.PunishmentRecord, error) {
	entry := e.getLogEntry().WithFields(log.Fields{
		"chat_id": req.ChatID,
		"user_id": req.UserID,
		"type":    req.Type,
		"source":  req.Source,
	})

	platformErr := e.apply(ctx, req)
	if platformErr != nil {
		entry.WithField("error", platformErr.Error()).Error("failed to apply punishment")
	}

	record := &db.PunishmentRecord{
		ChatID:     req.ChatID,
		ChatTitle:  req.ChatTitle,
		UserID:     req.UserID,
		IssuedBy:   req.IssuedBy,
		Type:       string(req.Type),
		DurationNS: req.Duration.Nanoseconds(),
		Reason:     req.Reason,
		Source:     string(req.Source),
		CreatedAt:  e.now(),
	}
	if platformErr != nil {
		record.Note = platformErr.Error()
	}

	record, err := e.store.AddPunishment(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record punishment: %w", err)
	}
	recordPunishment(string(req.Type), string(req.Source))

	e.notifier.Notify(ctx, &LogEntry{
		ChatID:    req.ChatID,
		ChatTitle: req.ChatTitle,
		UserID:    req.UserID,
		ActorID:   req.IssuedBy,
		Action:    actionForType(req.Type),
		Reason:    req.Reason,
		Source:    req.Source,
		Note:      record.Note,
		At:        record.CreatedAt,
	})

	if platformErr != nil {
		return record, fmt.Errorf("failed to apply %s: %w", req.Type, platformErr)
	}
	entry.Debug("punishment applied")
	return record, nil
}

func (e *Executor) apply(ctx context.Context, req PunishmentRequest) error {
	var until time.Time
	if req.Duration > 0 {
		until = e.now().Add(req.Duration)
	}

	switch req.Type {
	case PunishWarn:
		// The warning itself is the ladder's business; nothing to apply.
		return nil
	case PunishMute:
		return e.platform.Restrict(ctx, req.ChatID, req.UserID, until)
	case PunishBan:
		return e.platform.Ban(ctx, req.ChatID, req.UserID, until)
	case PunishKick:
		if err := e.platform.Ban(ctx, req.ChatID, req.UserID, time.Time{}); err != nil {
			return err
		}
		return e.platform.Unban(ctx, req.ChatID, req.UserID)
	default:
		return fmt.Errorf("unknown punishment type %q", req.Type)
	}
}

func actionForType(t PunishmentType) ActionType {
	switch t {
	case PunishMute:
		return ActionMute
	case PunishBan:
		return ActionBan
	case PunishKick:
		return ActionKick
	default:
		return ActionWarn
	}
}

func (e *Executor) getLogEntry() *log.Entry {
	return log.WithField("object", "Executor")
}
