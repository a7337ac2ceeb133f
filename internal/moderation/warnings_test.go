package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iamwavecut/chatwarden/internal/db"
)

func newTestLadder(store *fakeStore, platform *fakePlatform, notifier Notifier) *WarningLadder {
	executor := NewExecutor(platform, store, notifier)
	return NewWarningLadder(store, store, executor, notifier)
}

func TestIssueBelowThreshold(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	platform := &fakePlatform{}
	ladder := newTestLadder(store, platform, nil)

	receipt, err := ladder.Issue(context.Background(), 1, 2, 99, "spamming")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if receipt.ActiveCount != 1 || receipt.ThresholdTriggered {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if receipt.MaxWarnings != db.DefaultMaxWarnings {
		t.Fatalf("MaxWarnings = %d, want default %d", receipt.MaxWarnings, db.DefaultMaxWarnings)
	}
	if store.punishmentCount() != 0 {
		t.Fatal("no punishment expected below threshold")
	}
}

func TestIssueThresholdEscalates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.settings[1] = &db.Settings{
		ID:                  1,
		MaxWarnings:         3,
		WarningTTLNS:        int64(24 * time.Hour),
		ThresholdAction:     "ban",
		ThresholdDurationNS: int64(48 * time.Hour),
	}
	platform := &fakePlatform{}
	notifier := &fakeNotifier{}
	ladder := newTestLadder(store, platform, notifier)

	var receipt *WarnReceipt
	var err error
	for i := 0; i < 3; i++ {
		receipt, err = ladder.Issue(context.Background(), 1, 2, 0, "lock violation")
		if err != nil {
			t.Fatalf("Issue %d: %v", i, err)
		}
	}

	if !receipt.ThresholdTriggered || receipt.Action != PunishBan {
		t.Fatalf("third warning should trigger ban, got %+v", receipt)
	}
	record := store.lastPunishment()
	if record == nil {
		t.Fatal("threshold punishment not recorded")
	}
	if record.Source != string(SourceThreshold) {
		t.Fatalf("punishment source = %s, want threshold", record.Source)
	}
	if record.IssuedBy != 0 {
		t.Fatalf("threshold punishment IssuedBy = %d, want 0", record.IssuedBy)
	}
	if record.DurationNS != int64(48*time.Hour) {
		t.Fatalf("punishment duration = %d", record.DurationNS)
	}

	// Warnings stay on the books after escalation.
	if len(store.warnings) != 3 {
		t.Fatalf("warnings were reset: %d left", len(store.warnings))
	}

	// A fourth warning keeps counting and escalates again.
	receipt, err = ladder.Issue(context.Background(), 1, 2, 0, "again")
	if err != nil {
		t.Fatalf("fourth Issue: %v", err)
	}
	if receipt.ActiveCount != 4 || !receipt.ThresholdTriggered {
		t.Fatalf("fourth warning receipt: %+v", receipt)
	}
}

func TestIssueZeroTTLNeverAccumulates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.settings[1] = &db.Settings{
		ID:              1,
		MaxWarnings:     3,
		WarningTTLNS:    0,
		ThresholdAction: "mute",
	}
	// Zero TTL is kept as-is: warnings expire the moment they are issued.
	platform := &fakePlatform{}
	ladder := newTestLadder(store, platform, nil)

	for i := 0; i < 5; i++ {
		receipt, err := ladder.Issue(context.Background(), 1, 2, 0, "x")
		if err != nil {
			t.Fatalf("Issue %d: %v", i, err)
		}
		if receipt.ThresholdTriggered {
			t.Fatalf("immediately expiring warnings must never reach the threshold (iteration %d)", i)
		}
	}
}

func TestIssueStoreFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.warningErr = errors.New("disk full")
	ladder := newTestLadder(store, &fakePlatform{}, nil)

	if _, err := ladder.Issue(context.Background(), 1, 2, 0, "x"); err == nil {
		t.Fatal("store failure must surface as an error")
	}
}

func TestIssueConcurrentSameUser(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.settings[1] = &db.Settings{
		ID:              1,
		MaxWarnings:     3,
		WarningTTLNS:    int64(24 * time.Hour),
		ThresholdAction: "mute",
	}
	platform := &fakePlatform{}
	ladder := newTestLadder(store, platform, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ladder.Issue(context.Background(), 1, 2, 0, "burst")
		}()
	}
	wg.Wait()

	if len(store.warnings) != 6 {
		t.Fatalf("recorded %d warnings, want 6", len(store.warnings))
	}
	// Counts must be strictly increasing under the per-user lock, so the
	// threshold fires on the third insert and every one after it.
	if store.punishmentCount() != 4 {
		t.Fatalf("threshold punishments = %d, want 4", store.punishmentCount())
	}
}

func TestRemoveWarnings(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	ladder := newTestLadder(store, &fakePlatform{}, notifier)

	for i := 0; i < 2; i++ {
		if _, err := ladder.Issue(context.Background(), 1, 2, 0, "x"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
	}
	if _, err := ladder.Issue(context.Background(), 1, 3, 0, "other user"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := ladder.RemoveWarnings(context.Background(), 1, 2, 99); err != nil {
		t.Fatalf("RemoveWarnings: %v", err)
	}
	if len(store.warnings) != 1 {
		t.Fatalf("expected only the other user's warning to remain, got %d", len(store.warnings))
	}

	cleared := false
	for _, action := range notifier.actions() {
		if action == ActionWarningsCleared {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("clear must be notified")
	}

	// A fresh warning starts the ladder from one again.
	receipt, err := ladder.Issue(context.Background(), 1, 2, 0, "fresh")
	if err != nil {
		t.Fatalf("Issue after clear: %v", err)
	}
	if receipt.ActiveCount != 1 {
		t.Fatalf("count after clear = %d, want 1", receipt.ActiveCount)
	}
}

func TestIssueThresholdPersistFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.settings[1] = &db.Settings{
		ID:              1,
		MaxWarnings:     1,
		WarningTTLNS:    int64(24 * time.Hour),
		ThresholdAction: "mute",
	}
	store.punishErr = errors.New("disk full")
	ladder := newTestLadder(store, &fakePlatform{}, nil)

	if _, err := ladder.Issue(context.Background(), 1, 2, 0, "x"); err == nil {
		t.Fatal("unrecorded threshold punishment must surface as an error")
	}
}

func TestIssueThresholdPlatformFailureKeepsReceipt(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.settings[1] = &db.Settings{
		ID:              1,
		MaxWarnings:     1,
		WarningTTLNS:    int64(24 * time.Hour),
		ThresholdAction: "mute",
	}
	platform := &fakePlatform{restrictErr: errors.New("not enough rights")}
	ladder := newTestLadder(store, platform, nil)

	receipt, err := ladder.Issue(context.Background(), 1, 2, 0, "x")
	if err != nil {
		t.Fatalf("platform-only failure must not fail the issue: %v", err)
	}
	if !receipt.ThresholdTriggered {
		t.Fatalf("threshold decision must stand: %+v", receipt)
	}
	if last := store.lastPunishment(); last == nil || last.Note == "" {
		t.Fatalf("punishment must be on record with a failure note, got %+v", last)
	}
}

func TestIssueReleasesPerUserLocks(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	ladder := newTestLadder(store, &fakePlatform{}, nil)

	for userID := int64(1); userID <= 20; userID++ {
		if _, err := ladder.Issue(context.Background(), 1, userID, 0, "x"); err != nil {
			t.Fatalf("Issue for %d: %v", userID, err)
		}
	}
	if err := ladder.RemoveWarnings(context.Background(), 1, 1, 99); err != nil {
		t.Fatalf("RemoveWarnings: %v", err)
	}

	ladder.mu.Lock()
	remaining := len(ladder.keys)
	ladder.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("%d lock entries left behind after all holders released", remaining)
	}
}
