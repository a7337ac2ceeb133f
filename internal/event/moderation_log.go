package event

import (
	"context"
	"time"

	"github.com/iamwavecut/chatwarden/internal/moderation"
)

const TypeModerationLog = "moderation_log"

const moderationLogTTL = time.Minute

// ModerationLog carries one audit entry from the enforcement core to
// whatever subscriber records or forwards it.
type ModerationLog struct {
	*Base
	Entry *moderation.LogEntry
}

func NewModerationLog(entry *moderation.LogEntry) *ModerationLog {
	return &ModerationLog{
		Base:  CreateBase(TypeModerationLog, time.Now().Add(moderationLogTTL)),
		Entry: entry,
	}
}

// Notifier feeds moderation log entries onto the bus, decoupling enforcement
// from however the entries get consumed.
type Notifier struct{}

func (Notifier) Notify(_ context.Context, entry *moderation.LogEntry) {
	if entry == nil {
		return
	}
	Bus.Enqueue(NewModerationLog(entry))
}
