package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	floodSweepInterval = time.Minute
	// Windows idle for this long get dropped by the sweeper.
	floodWindowRetention = 10 * time.Minute
)

// AntiFlood keeps an in-memory sliding window of message timestamps per
// (chat, user). The state is best-effort and rebuilt from zero on restart;
// flood detection is not an audit record.
type AntiFlood struct {
	settings settingsStore
	executor *Executor
	platform Platform
	now      func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewAntiFlood(settings settingsStore, executor *Executor, platform Platform) *AntiFlood {
	return &AntiFlood{
		settings: settings,
		executor: executor,
		platform: platform,
		now:      time.Now,
		windows:  make(map[string][]time.Time),
	}
}

// CheckAndMaybePunish appends the event to the sender's window, prunes it to
// the configured time span and punishes when the count exceeds the limit.
// On trigger the window is cleared so subsequent messages do not re-trigger
// while the punishment propagates. Returns true if a punishment was issued.
func (f *AntiFlood) CheckAndMaybePunish(ctx context.Context, ev *ContentEvent) (bool, error) {
	if ev == nil || ev.UserID == 0 {
		return false, nil
	}

	settings, err := effectiveSettings(ctx, f.settings, ev.ChatID)
	if err != nil {
		return false, fmt.Errorf("failed to read chat settings: %w", err)
	}
	if !settings.AntiFloodEnabled {
		return false, nil
	}

	if !f.track(ev.ChatID, ev.UserID, settings.AntiFloodWindow(), settings.AntiFloodMaxMessages) {
		return false, nil
	}
	recordFloodTrigger()

	entry := f.getLogEntry().WithFields(log.Fields{
		"chat_id": ev.ChatID,
		"user_id": ev.UserID,
	})
	entry.Info("flood detected")

	if err := f.platform.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		entry.WithField("error", err.Error()).Error("failed to delete flooding message")
	}

	action, ok := ParsePunishmentType(settings.AntiFloodAction)
	if !ok || action == PunishWarn {
		action = PunishMute
	}
	if _, err := f.executor.Execute(ctx, PunishmentRequest{
		ChatID:    ev.ChatID,
		ChatTitle: ev.ChatTitle,
		UserID:    ev.UserID,
		IssuedBy:  0,
		Type:      action,
		Duration:  time.Duration(settings.AntiFloodDurationNS),
		Reason:    fmt.Sprintf("flooding: more than %d messages in %s", settings.AntiFloodMaxMessages, settings.AntiFloodWindow()),
		Source:    SourceFlood,
	}); err != nil {
		entry.WithField("error", err.Error()).Error("flood punishment failed")
	}

	return true, nil
}

// track records one message and reports whether the window tripped. The
// window is cleared on trigger.
func (f *AntiFlood) track(chatID, userID int64, window time.Duration, maxMessages int) bool {
	key := fmt.Sprintf("%d/%d", chatID, userID)
	now := f.now()
	cutoff := now.Add(-window)

	f.mu.Lock()
	defer f.mu.Unlock()

	timestamps := append(f.windows[key], now)
	pruned := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}
	if len(pruned) > maxMessages {
		delete(f.windows, key)
		return true
	}
	f.windows[key] = pruned
	return false
}

// Forget drops the window for one (chat, user); used when an admin lifts a
// punishment and expects a clean slate.
func (f *AntiFlood) Forget(chatID, userID int64) {
	f.mu.Lock()
	delete(f.windows, fmt.Sprintf("%d/%d", chatID, userID))
	f.mu.Unlock()
}

func (f *AntiFlood) Start(ctx context.Context) error {
	f.runMutex.Lock()
	defer f.runMutex.Unlock()
	if f.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.runCancel = cancel

	f.workersWg.Add(1)
	go func() {
		defer f.workersWg.Done()
		ticker := time.NewTicker(floodSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				f.sweep()
			}
		}
	}()

	f.started = true
	return nil
}

func (f *AntiFlood) Stop(ctx context.Context) error {
	f.runMutex.Lock()
	if !f.started {
		f.runMutex.Unlock()
		return nil
	}
	f.started = false
	cancel := f.runCancel
	f.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.workersWg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// sweep bounds memory for inactive users by dropping stale windows.
func (f *AntiFlood) sweep() {
	cutoff := f.now().Add(-floodWindowRetention)

	f.mu.Lock()
	defer f.mu.Unlock()
	for key, timestamps := range f.windows {
		if len(timestamps) == 0 || timestamps[len(timestamps)-1].Before(cutoff) {
			delete(f.windows, key)
		}
	}
}

func (f *AntiFlood) getLogEntry() *log.Entry {
	return log.WithField("object", "AntiFlood")
}
