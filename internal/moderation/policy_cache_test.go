package moderation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/iamwavecut/chatwarden/internal/db"
)

type countingStore struct {
	*fakeStore
	lockReads      atomic.Int64
	exemptionReads atomic.Int64
	allowlistReads atomic.Int64
	settingsReads  atomic.Int64
}

func (s *countingStore) GetLocks(ctx context.Context, chatID int64) ([]*db.LockConfig, error) {
	s.lockReads.Add(1)
	return s.fakeStore.GetLocks(ctx, chatID)
}

func (s *countingStore) GetExemptions(ctx context.Context, chatID int64) ([]*db.Exemption, error) {
	s.exemptionReads.Add(1)
	return s.fakeStore.GetExemptions(ctx, chatID)
}

func (s *countingStore) GetAllowlist(ctx context.Context, chatID int64, kind string) ([]string, error) {
	s.allowlistReads.Add(1)
	return s.fakeStore.GetAllowlist(ctx, chatID, kind)
}

func (s *countingStore) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	s.settingsReads.Add(1)
	return s.fakeStore.GetSettings(ctx, chatID)
}

func TestPolicyCacheCollapsesRepeatedReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &countingStore{fakeStore: newFakeStore()}
	store.lock(1, CategoryLink)
	store.allow(1, db.AllowlistKindDomain, "example.com")
	store.settings[1] = &db.Settings{ID: 1, MaxWarnings: 3}
	cache := NewPolicyCache(store)

	for i := 0; i < 5; i++ {
		if _, err := cache.GetLocks(ctx, 1); err != nil {
			t.Fatalf("GetLocks %d: %v", i, err)
		}
		if _, err := cache.GetExemptions(ctx, 1); err != nil {
			t.Fatalf("GetExemptions %d: %v", i, err)
		}
		if _, err := cache.GetAllowlist(ctx, 1, db.AllowlistKindDomain); err != nil {
			t.Fatalf("GetAllowlist %d: %v", i, err)
		}
		if _, err := cache.GetSettings(ctx, 1); err != nil {
			t.Fatalf("GetSettings %d: %v", i, err)
		}
	}

	if n := store.lockReads.Load(); n != 1 {
		t.Fatalf("lock reads = %d, want 1", n)
	}
	if n := store.exemptionReads.Load(); n != 1 {
		t.Fatalf("exemption reads = %d, want 1", n)
	}
	if n := store.allowlistReads.Load(); n != 1 {
		t.Fatalf("allowlist reads = %d, want 1", n)
	}
	if n := store.settingsReads.Load(); n != 1 {
		t.Fatalf("settings reads = %d, want 1", n)
	}

	locks, err := cache.GetLocks(ctx, 1)
	if err != nil {
		t.Fatalf("GetLocks: %v", err)
	}
	if len(locks) != 1 || locks[0].Category != string(CategoryLink) {
		t.Fatalf("cached locks lost content: %+v", locks)
	}
}

func TestPolicyCacheKeysAllowlistByKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &countingStore{fakeStore: newFakeStore()}
	store.allow(1, db.AllowlistKindDomain, "example.com")
	store.allow(1, db.AllowlistKindCommand, "help")
	cache := NewPolicyCache(store)

	domains, err := cache.GetAllowlist(ctx, 1, db.AllowlistKindDomain)
	if err != nil {
		t.Fatalf("GetAllowlist domains: %v", err)
	}
	commands, err := cache.GetAllowlist(ctx, 1, db.AllowlistKindCommand)
	if err != nil {
		t.Fatalf("GetAllowlist commands: %v", err)
	}
	if len(domains) != 1 || domains[0] != "example.com" {
		t.Fatalf("domains: %v", domains)
	}
	if len(commands) != 1 || commands[0] != "help" {
		t.Fatalf("commands: %v", commands)
	}
	if n := store.allowlistReads.Load(); n != 2 {
		t.Fatalf("allowlist reads = %d, want one per kind", n)
	}
}

func TestPolicyCacheDoesNotCacheSettingsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &countingStore{fakeStore: newFakeStore()}
	cache := NewPolicyCache(store)

	if _, err := cache.GetSettings(ctx, 7); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("missing chat: got %v, want ErrNotFound", err)
	}

	store.settings[7] = &db.Settings{ID: 7, MaxWarnings: 2}
	settings, err := cache.GetSettings(ctx, 7)
	if err != nil {
		t.Fatalf("GetSettings after create: %v", err)
	}
	if settings.MaxWarnings != 2 {
		t.Fatalf("stale miss served: %+v", settings)
	}
}
