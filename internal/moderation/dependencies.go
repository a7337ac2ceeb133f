package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/iamwavecut/chatwarden/internal/db"
)

// Store contracts are consumer-side: the sqlite client satisfies all of them,
// tests plug in small fakes.

type policyStore interface {
	GetLocks(ctx context.Context, chatID int64) ([]*db.LockConfig, error)
	GetExemptions(ctx context.Context, chatID int64) ([]*db.Exemption, error)
	GetAllowlist(ctx context.Context, chatID int64, kind string) ([]string, error)
}

type settingsStore interface {
	GetSettings(ctx context.Context, chatID int64) (*db.Settings, error)
}

type warningStore interface {
	InsertWarningAndCountActive(ctx context.Context, warning *db.Warning) (int, error)
	DeleteWarnings(ctx context.Context, chatID, userID int64) (int64, error)
}

type punishmentStore interface {
	AddPunishment(ctx context.Context, record *db.PunishmentRecord) (*db.PunishmentRecord, error)
}

// AdminChecker resolves chat admin status. Implementations are expected to
// cache: the pipeline asks on every event.
type AdminChecker interface {
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

// Platform is the messaging-platform side effect surface. All calls are
// expected to be bounded by their context.
type Platform interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	Restrict(ctx context.Context, chatID, userID int64, until time.Time) error
	Ban(ctx context.Context, chatID, userID int64, until time.Time) error
	Unban(ctx context.Context, chatID, userID int64) error
}

// Notifier consumes moderation log entries. The core never formats or sends
// chat text itself; whatever is plugged in here owns presentation.
type Notifier interface {
	Notify(ctx context.Context, entry *LogEntry)
}

// NopNotifier discards entries.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *LogEntry) {}

type ActionType string

const (
	ActionViolation       ActionType = "violation"
	ActionWarn            ActionType = "warn"
	ActionWarningsCleared ActionType = "warnings_cleared"
	ActionMute            ActionType = "mute"
	ActionBan             ActionType = "ban"
	ActionKick            ActionType = "kick"
)

// LogEntry is the audit value handed to the Notifier.
type LogEntry struct {
	ChatID    int64
	ChatTitle string
	UserID    int64
	ActorID   int64
	Action    ActionType
	Category  Category
	Reason    string
	Source    PunishmentSource
	Note      string
	At        time.Time
}

// effectiveSettings reads the chat's settings, falling back to documented
// defaults when the chat has no row. Missing configuration is not an error.
func effectiveSettings(ctx context.Context, store settingsStore, chatID int64) (*db.Settings, error) {
	settings, err := store.GetSettings(ctx, chatID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.DefaultSettings(chatID), nil
		}
		return nil, err
	}
	if settings == nil {
		return db.DefaultSettings(chatID), nil
	}
	return settings.Normalize(), nil
}
