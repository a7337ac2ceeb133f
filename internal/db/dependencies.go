package db

import (
	"context"
	"time"
)

// Client is the storage contract the moderation core consumes. Implementations
// must make InsertWarningAndCountActive atomic: two concurrent inserts for the
// same (chat, user) may never both observe a pre-insert count.
type Client interface {
	Close() error

	GetSettings(ctx context.Context, chatID int64) (*Settings, error)
	SetSettings(ctx context.Context, settings *Settings) error

	GetLocks(ctx context.Context, chatID int64) ([]*LockConfig, error)
	SetLock(ctx context.Context, lock *LockConfig) error

	GetExemptions(ctx context.Context, chatID int64) ([]*Exemption, error)
	AddExemption(ctx context.Context, exemption *Exemption) error
	RemoveExemption(ctx context.Context, exemption *Exemption) error

	GetAllowlist(ctx context.Context, chatID int64, kind string) ([]string, error)
	AddAllowlistEntry(ctx context.Context, entry *AllowlistEntry) error
	RemoveAllowlistEntry(ctx context.Context, entry *AllowlistEntry) error

	InsertWarningAndCountActive(ctx context.Context, warning *Warning) (int, error)
	CountActiveWarnings(ctx context.Context, chatID, userID int64, now time.Time) (int, error)
	DeleteWarnings(ctx context.Context, chatID, userID int64) (int64, error)

	AddPunishment(ctx context.Context, record *PunishmentRecord) (*PunishmentRecord, error)
	ListPunishments(ctx context.Context, chatID, userID int64, limit int) ([]*PunishmentRecord, error)
}
