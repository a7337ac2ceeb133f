package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/db"
)

// WarnReceipt is what one Issue call decided.
type WarnReceipt struct {
	ActiveCount        int
	MaxWarnings        int
	ExpiresAt          time.Time
	ThresholdTriggered bool
	Action             PunishmentType
}

// WarningLadder accumulates warnings and escalates once the chat's maximum is
// reached. Issuance and threshold evaluation happen as one unit under a
// per-(chat,user) lock, so two concurrent messages can never both observe
// "one below threshold".
type WarningLadder struct {
	store    warningStore
	settings settingsStore
	executor *Executor
	notifier Notifier
	now      func() time.Time

	mu   sync.Mutex
	keys map[string]*userLock
}

// userLock is refcounted so entries can be dropped as soon as nobody holds
// or waits on them, keeping the key map bounded by concurrency, not by how
// many members the bot has ever warned.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewWarningLadder(store warningStore, settings settingsStore, executor *Executor, notifier Notifier) *WarningLadder {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &WarningLadder{
		store:    store,
		settings: settings,
		executor: executor,
		notifier: notifier,
		now:      time.Now,
		keys:     make(map[string]*userLock),
	}
}

// Issue records a warning and evaluates the threshold in the same call. It
// never refuses a warning because the ladder is "full": the count keeps
// growing until an explicit admin clear.
func (l *WarningLadder) Issue(ctx context.Context, chatID, userID, issuedBy int64, reason string) (*WarnReceipt, error) {
	unlock := l.lockKey(chatID, userID)
	defer unlock()

	settings, err := effectiveSettings(ctx, l.settings, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat settings: %w", err)
	}

	now := l.now()
	warning := &db.Warning{
		ChatID:    chatID,
		UserID:    userID,
		IssuedBy:  issuedBy,
		Reason:    reason,
		IssuedAt:  now,
		ExpiresAt: now.Add(settings.WarningTTL()),
	}
	activeCount, err := l.store.InsertWarningAndCountActive(ctx, warning)
	if err != nil {
		return nil, fmt.Errorf("failed to record warning: %w", err)
	}
	recordWarning()

	receipt := &WarnReceipt{
		ActiveCount: activeCount,
		MaxWarnings: settings.MaxWarnings,
		ExpiresAt:   warning.ExpiresAt,
	}

	warnSource := SourceManual
	if issuedBy == 0 {
		warnSource = SourceLock
	}
	l.notifier.Notify(ctx, &LogEntry{
		ChatID:    chatID,
		ChatTitle: settings.Title,
		UserID:    userID,
		ActorID:   issuedBy,
		Action:    ActionWarn,
		Reason:    reason,
		Source:    warnSource,
		At:        now,
	})

	if activeCount < settings.MaxWarnings {
		return receipt, nil
	}

	action, ok := ParsePunishmentType(settings.ThresholdAction)
	if !ok {
		l.getLogEntry().WithFields(log.Fields{
			"chat_id": chatID,
			"action":  settings.ThresholdAction,
		}).Warn("unknown threshold action, falling back to mute")
		action = PunishMute
	}
	receipt.ThresholdTriggered = true
	receipt.Action = action

	record, err := l.executor.Execute(ctx, PunishmentRequest{
		ChatID:    chatID,
		ChatTitle: settings.Title,
		UserID:    userID,
		IssuedBy:  0,
		Type:      action,
		Duration:  time.Duration(settings.ThresholdDurationNS),
		Reason:    fmt.Sprintf("warning limit reached (%d/%d): %s", activeCount, settings.MaxWarnings, reason),
		Source:    SourceThreshold,
	})
	if err != nil {
		if record == nil {
			// The audit row never made it to storage; the escalation is
			// unaccounted for and the caller must see the failure.
			return nil, fmt.Errorf("failed to record threshold punishment: %w", err)
		}
		// Punishment is on record; only the platform call failed. The
		// threshold decision stands.
		l.getLogEntry().WithFields(log.Fields{
			"chat_id": chatID,
			"user_id": userID,
			"error":   err.Error(),
		}).Error("threshold punishment failed on platform")
	}

	return receipt, nil
}

// RemoveWarnings clears all warnings for the user. This is the only path
// that physically deletes warning rows; the acting admin is kept for audit.
func (l *WarningLadder) RemoveWarnings(ctx context.Context, chatID, userID, removedBy int64) error {
	unlock := l.lockKey(chatID, userID)
	defer unlock()

	removed, err := l.store.DeleteWarnings(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to clear warnings: %w", err)
	}

	l.getLogEntry().WithFields(log.Fields{
		"chat_id":    chatID,
		"user_id":    userID,
		"removed_by": removedBy,
		"removed":    removed,
	}).Info("warnings cleared")

	l.notifier.Notify(ctx, &LogEntry{
		ChatID:  chatID,
		UserID:  userID,
		ActorID: removedBy,
		Action:  ActionWarningsCleared,
		Source:  SourceManual,
		At:      l.now(),
	})
	return nil
}

func (l *WarningLadder) lockKey(chatID, userID int64) func() {
	key := fmt.Sprintf("%d/%d", chatID, userID)
	l.mu.Lock()
	entry, ok := l.keys[key]
	if !ok {
		entry = &userLock{}
		l.keys[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.keys, key)
		}
		l.mu.Unlock()
	}
}

func (l *WarningLadder) getLogEntry() *log.Entry {
	return log.WithField("object", "WarningLadder")
}
