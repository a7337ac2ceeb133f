package sqlite

import (
	"context"

	"github.com/iamwavecut/chatwarden/internal/db"
)

func (s *sqliteClient) GetLocks(ctx context.Context, chatID int64) ([]*db.LockConfig, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var locks []*db.LockConfig
	err := s.db.SelectContext(ctx, &locks, `SELECT * FROM locks WHERE chat_id = ?`, chatID)
	return locks, err
}

func (s *sqliteClient) SetLock(ctx context.Context, lock *db.LockConfig) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO locks (chat_id, category, locked, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id, category) DO UPDATE SET
		locked = excluded.locked,
		reason = excluded.reason
	`
	_, err := s.db.ExecContext(ctx, query, lock.ChatID, lock.Category, lock.Locked, lock.Reason)
	return err
}

func (s *sqliteClient) GetExemptions(ctx context.Context, chatID int64) ([]*db.Exemption, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var exemptions []*db.Exemption
	err := s.db.SelectContext(ctx, &exemptions, `SELECT * FROM exemptions WHERE chat_id = ?`, chatID)
	return exemptions, err
}

func (s *sqliteClient) AddExemption(ctx context.Context, exemption *db.Exemption) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `INSERT OR IGNORE INTO exemptions (chat_id, category, kind, value) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, exemption.ChatID, exemption.Category, exemption.Kind, exemption.Value)
	return err
}

func (s *sqliteClient) RemoveExemption(ctx context.Context, exemption *db.Exemption) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if exemption.Category == nil {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM exemptions WHERE chat_id = ? AND kind = ? AND value = ? AND category IS NULL`,
			exemption.ChatID, exemption.Kind, exemption.Value)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM exemptions WHERE chat_id = ? AND kind = ? AND value = ? AND category = ?`,
		exemption.ChatID, exemption.Kind, exemption.Value, *exemption.Category)
	return err
}

func (s *sqliteClient) GetAllowlist(ctx context.Context, chatID int64, kind string) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var values []string
	err := s.db.SelectContext(ctx, &values, `SELECT value FROM allowlist WHERE chat_id = ? AND kind = ?`, chatID, kind)
	return values, err
}

func (s *sqliteClient) AddAllowlistEntry(ctx context.Context, entry *db.AllowlistEntry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `INSERT OR IGNORE INTO allowlist (chat_id, kind, value) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, entry.ChatID, entry.Kind, entry.Value)
	return err
}

func (s *sqliteClient) RemoveAllowlistEntry(ctx context.Context, entry *db.AllowlistEntry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM allowlist WHERE chat_id = ? AND kind = ? AND value = ?`,
		entry.ChatID, entry.Kind, entry.Value)
	return err
}
