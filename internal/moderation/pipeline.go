package moderation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/db"
)

type Outcome string

const (
	OutcomeIgnored         Outcome = "ignored"
	OutcomeExempt          Outcome = "exempt"
	OutcomeViolationSilent Outcome = "violation_silent"
	OutcomeViolationWarned Outcome = "violation_warned"
)

// EnforcementResult is what one event's evaluation decided. Category is the
// primary (first matched) violation; Categories lists every enabled lock the
// event matched.
type EnforcementResult struct {
	Outcome    Outcome
	Matched    bool
	Category   Category
	Categories []Category
	Reason     string
	Deleted    bool
	Warned     bool
	Receipt    *WarnReceipt
}

// Pipeline evaluates inbound events against the chat's locks: exemption
// resolution first, then per-category classification with allowlist context,
// then side effects (delete, warn). It never double-applies a side effect.
type Pipeline struct {
	registry *Registry
	store    policyStore
	settings settingsStore
	admins   AdminChecker
	platform Platform
	ladder   *WarningLadder
	notifier Notifier
}

func NewPipeline(
	registry *Registry,
	store policyStore,
	settings settingsStore,
	admins AdminChecker,
	platform Platform,
	ladder *WarningLadder,
	notifier Notifier,
) *Pipeline {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Pipeline{
		registry: registry,
		store:    store,
		settings: settings,
		admins:   admins,
		platform: platform,
		ladder:   ladder,
		notifier: notifier,
	}
}

func (p *Pipeline) Enforce(ctx context.Context, ev *ContentEvent) (*EnforcementResult, error) {
	result := &EnforcementResult{Outcome: OutcomeIgnored}
	if ev == nil || ev.ChatID == 0 {
		return result, nil
	}
	entry := p.getLogEntry().WithFields(log.Fields{
		"chat_id": ev.ChatID,
		"user_id": ev.UserID,
	})

	locks, err := p.store.GetLocks(ctx, ev.ChatID)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read locks")
	}
	lockByCategory := make(map[Category]*db.LockConfig, len(locks))
	anyLocked := false
	for _, lock := range locks {
		if !lock.Locked {
			continue
		}
		category, ok := ParseCategory(lock.Category)
		if !ok {
			entry.WithField("category", lock.Category).Warn("unknown locked category, skipping")
			continue
		}
		lockByCategory[category] = lock
		anyLocked = true
	}
	if !anyLocked {
		return result, nil
	}

	exempt, skipCategories, err := p.resolveExemption(ctx, ev)
	if err != nil {
		return nil, err
	}
	if exempt {
		result.Outcome = OutcomeExempt
		return result, nil
	}

	// Anonymous channel posts cannot be attributed to a punishable user:
	// unless the chat locks them explicitly, nothing else applies either.
	if (ev.IsFromLinkedChannel || ev.SenderIsChannel) && lockByCategory[CategoryAnonChannel] == nil {
		result.Outcome = OutcomeExempt
		return result, nil
	}

	ectx, err := p.buildEvalContext(ctx, ev.ChatID, lockByCategory)
	if err != nil {
		return nil, err
	}

	for _, category := range p.registry.Categories() {
		lock := lockByCategory[category]
		if lock == nil {
			continue
		}
		if _, skip := skipCategories[category]; skip {
			continue
		}
		if !p.registry.classify(category, ev, ectx) {
			continue
		}
		result.Categories = append(result.Categories, category)
		if !result.Matched {
			result.Matched = true
			result.Category = category
			result.Reason = lockReason(lock, category)
		}
		recordViolation(string(category))
		entry.WithField("category", category).Debug("lock violation")
	}
	if !result.Matched {
		return result, nil
	}

	if err := p.platform.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		entry.WithFields(log.Fields{
			"message_id": ev.MessageID,
			"error":      err.Error(),
		}).Error("failed to delete violating message")
	} else {
		result.Deleted = true
	}

	settings, err := effectiveSettings(ctx, p.settings, ev.ChatID)
	if err != nil {
		return result, errors.WithMessage(err, "failed to read chat settings")
	}

	p.notifier.Notify(ctx, &LogEntry{
		ChatID:    ev.ChatID,
		ChatTitle: ev.ChatTitle,
		UserID:    ev.UserID,
		Action:    ActionViolation,
		Category:  result.Category,
		Reason:    result.Reason,
		Source:    SourceLock,
		At:        time.Now(),
	})

	if !settings.LockWarnEnabled || ev.UserID == 0 {
		result.Outcome = OutcomeViolationSilent
		return result, nil
	}

	receipt, err := p.ladder.Issue(ctx, ev.ChatID, ev.UserID, 0, result.Reason)
	if err != nil {
		// An unrecorded warning is a correctness bug, not a degraded feature.
		return result, errors.WithMessage(err, "failed to issue warning")
	}
	result.Warned = true
	result.Receipt = receipt
	result.Outcome = OutcomeViolationWarned
	return result, nil
}

// resolveExemption decides whether the sender bypasses the pipeline entirely
// (admin, globally exempt user or bot) and which categories a scoped
// exemption removes from evaluation.
func (p *Pipeline) resolveExemption(ctx context.Context, ev *ContentEvent) (bool, map[Category]struct{}, error) {
	if ev.UserID != 0 {
		isAdmin, err := p.admins.IsAdmin(ctx, ev.ChatID, ev.UserID)
		if err != nil {
			p.getLogEntry().WithFields(log.Fields{
				"chat_id": ev.ChatID,
				"user_id": ev.UserID,
				"error":   err.Error(),
			}).Error("failed to check admin status, treating as non-admin")
		} else if isAdmin {
			return true, nil, nil
		}
	}

	exemptions, err := p.store.GetExemptions(ctx, ev.ChatID)
	if err != nil {
		return false, nil, errors.WithMessage(err, "failed to read exemptions")
	}
	skip := make(map[Category]struct{})
	for _, exemption := range exemptions {
		if !exemptionMatchesSender(exemption, ev) {
			continue
		}
		if exemption.Category == nil {
			return true, nil, nil
		}
		if category, ok := ParseCategory(*exemption.Category); ok {
			skip[category] = struct{}{}
		}
	}
	return false, skip, nil
}

func exemptionMatchesSender(exemption *db.Exemption, ev *ContentEvent) bool {
	switch exemption.Kind {
	case db.ExemptionKindUser:
		return !ev.SenderIsBot && exemption.Value == formatUserID(ev.UserID)
	case db.ExemptionKindBot:
		if !ev.SenderIsBot || ev.SenderUsername == "" {
			return false
		}
		return strings.EqualFold(
			strings.TrimPrefix(exemption.Value, "@"),
			strings.TrimPrefix(ev.SenderUsername, "@"),
		)
	}
	return false
}

// buildEvalContext fetches allowlists only when a lock that consults them is
// enabled; every other classifier ignores the context.
func (p *Pipeline) buildEvalContext(ctx context.Context, chatID int64, locks map[Category]*db.LockConfig) (*EvalContext, error) {
	ectx := &EvalContext{}
	if locks[CategoryLink] != nil {
		urls, err := p.store.GetAllowlist(ctx, chatID, db.AllowlistKindURL)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to read url allowlist")
		}
		domains, err := p.store.GetAllowlist(ctx, chatID, db.AllowlistKindDomain)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to read domain allowlist")
		}
		ectx.AllowedURLs = urls
		ectx.AllowedDomains = domains
	}
	if locks[CategoryCommands] != nil {
		commands, err := p.store.GetAllowlist(ctx, chatID, db.AllowlistKindCommand)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to read command allowlist")
		}
		ectx.AllowedCommands = commands
	}
	return ectx, nil
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func lockReason(lock *db.LockConfig, category Category) string {
	if lock.Reason != "" {
		return lock.Reason
	}
	return DefaultLockReason(category)
}

func (p *Pipeline) getLogEntry() *log.Entry {
	return log.WithField("object", "Pipeline")
}
