package db

import "time"

const (
	ExemptionKindUser = "user"
	ExemptionKindBot  = "bot"

	AllowlistKindURL     = "url"
	AllowlistKindDomain  = "domain"
	AllowlistKindCommand = "command"
)

// LockConfig is one per-chat, per-category policy flag. Absence of a row
// means the category is unlocked. Reason is only meaningful while locked.
type LockConfig struct {
	ChatID   int64  `db:"chat_id"`
	Category string `db:"category"`
	Locked   bool   `db:"locked"`
	Reason   string `db:"reason"`
}

// Exemption excuses a subject from lock enforcement. A nil Category means
// the exemption covers every category for that subject.
type Exemption struct {
	ChatID   int64   `db:"chat_id"`
	Category *string `db:"category"`
	Kind     string  `db:"kind"`
	Value    string  `db:"value"`
}

type AllowlistEntry struct {
	ChatID int64  `db:"chat_id"`
	Kind   string `db:"kind"`
	Value  string `db:"value"`
}

// Warning is one issued warning. Rows are never mutated; a warning stops
// counting once ExpiresAt passes and is only physically removed by an
// explicit admin clear.
type Warning struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	IssuedBy  int64     `db:"issued_by"`
	Reason    string    `db:"reason"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// PunishmentRecord is the append-only audit trail of applied (or attempted)
// punishments. Source records why the action happened; Note carries a
// platform failure description when the restriction could not be applied.
type PunishmentRecord struct {
	ID         int64     `db:"id"`
	ChatID     int64     `db:"chat_id"`
	ChatTitle  string    `db:"chat_title"`
	UserID     int64     `db:"user_id"`
	IssuedBy   int64     `db:"issued_by"`
	Type       string    `db:"type"`
	DurationNS int64     `db:"duration_ns"`
	Reason     string    `db:"reason"`
	Source     string    `db:"source"`
	Note       string    `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
}
