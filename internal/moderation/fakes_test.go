package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/iamwavecut/chatwarden/internal/db"
)

// fakeStore is an in-memory stand-in for the sqlite client, covering every
// store contract the moderation core consumes.
type fakeStore struct {
	mu sync.Mutex

	settings    map[int64]*db.Settings
	locks       map[int64][]*db.LockConfig
	exemptions  map[int64][]*db.Exemption
	allowlists  map[int64]map[string][]string
	warnings    []*db.Warning
	punishments []*db.PunishmentRecord

	settingsErr error
	warningErr  error
	punishErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings:   make(map[int64]*db.Settings),
		locks:      make(map[int64][]*db.LockConfig),
		exemptions: make(map[int64][]*db.Exemption),
		allowlists: make(map[int64]map[string][]string),
	}
}

func (s *fakeStore) GetSettings(_ context.Context, chatID int64) (*db.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settingsErr != nil {
		return nil, s.settingsErr
	}
	settings, ok := s.settings[chatID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return settings, nil
}

func (s *fakeStore) GetLocks(_ context.Context, chatID int64) ([]*db.LockConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[chatID], nil
}

func (s *fakeStore) GetExemptions(_ context.Context, chatID int64) ([]*db.Exemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exemptions[chatID], nil
}

func (s *fakeStore) GetAllowlist(_ context.Context, chatID int64, kind string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKind, ok := s.allowlists[chatID]
	if !ok {
		return nil, nil
	}
	return byKind[kind], nil
}

func (s *fakeStore) InsertWarningAndCountActive(_ context.Context, warning *db.Warning) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warningErr != nil {
		return 0, s.warningErr
	}
	warning.ID = int64(len(s.warnings) + 1)
	s.warnings = append(s.warnings, warning)

	count := 0
	for _, w := range s.warnings {
		if w.ChatID == warning.ChatID && w.UserID == warning.UserID && w.ExpiresAt.After(warning.IssuedAt) {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) DeleteWarnings(_ context.Context, chatID, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.warnings[:0]
	var removed int64
	for _, w := range s.warnings {
		if w.ChatID == chatID && w.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	s.warnings = kept
	return removed, nil
}

func (s *fakeStore) AddPunishment(_ context.Context, record *db.PunishmentRecord) (*db.PunishmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.punishErr != nil {
		return nil, s.punishErr
	}
	record.ID = int64(len(s.punishments) + 1)
	s.punishments = append(s.punishments, record)
	return record, nil
}

func (s *fakeStore) lock(chatID int64, category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[chatID] = append(s.locks[chatID], &db.LockConfig{
		ChatID:   chatID,
		Category: string(category),
		Locked:   true,
	})
}

func (s *fakeStore) allow(chatID int64, kind, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKind, ok := s.allowlists[chatID]
	if !ok {
		byKind = make(map[string][]string)
		s.allowlists[chatID] = byKind
	}
	byKind[kind] = append(byKind[kind], value)
}

func (s *fakeStore) punishmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.punishments)
}

func (s *fakeStore) lastPunishment() *db.PunishmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.punishments) == 0 {
		return nil
	}
	return s.punishments[len(s.punishments)-1]
}

type platformCall struct {
	op        string
	chatID    int64
	userID    int64
	messageID int
	until     time.Time
}

// fakePlatform records platform calls and optionally fails them.
type fakePlatform struct {
	mu    sync.Mutex
	calls []platformCall

	deleteErr   error
	restrictErr error
	banErr      error
	unbanErr    error
}

func (p *fakePlatform) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, platformCall{op: "delete", chatID: chatID, messageID: messageID})
	return p.deleteErr
}

func (p *fakePlatform) Restrict(_ context.Context, chatID, userID int64, until time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, platformCall{op: "restrict", chatID: chatID, userID: userID, until: until})
	return p.restrictErr
}

func (p *fakePlatform) Ban(_ context.Context, chatID, userID int64, until time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, platformCall{op: "ban", chatID: chatID, userID: userID, until: until})
	return p.banErr
}

func (p *fakePlatform) Unban(_ context.Context, chatID, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, platformCall{op: "unban", chatID: chatID, userID: userID})
	return p.unbanErr
}

func (p *fakePlatform) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.op)
	}
	return out
}

type fakeAdmins struct {
	admins map[int64]bool
	err    error
}

func (a *fakeAdmins) IsAdmin(_ context.Context, _ int64, userID int64) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.admins[userID], nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	entries []*LogEntry
}

func (n *fakeNotifier) Notify(_ context.Context, entry *LogEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry)
}

func (n *fakeNotifier) actions() []ActionType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ActionType, 0, len(n.entries))
	for _, e := range n.entries {
		out = append(out, e.Action)
	}
	return out
}
