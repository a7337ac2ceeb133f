package sqlite

import (
	"context"

	"github.com/iamwavecut/chatwarden/internal/db"
)

func (s *sqliteClient) AddPunishment(ctx context.Context, record *db.PunishmentRecord) (*db.PunishmentRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO punishments (chat_id, chat_title, user_id, issued_by, type, duration_ns, reason, source, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		record.ChatID,
		record.ChatTitle,
		record.UserID,
		record.IssuedBy,
		record.Type,
		record.DurationNS,
		record.Reason,
		record.Source,
		record.Note,
		record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	record.ID = id
	return record, nil
}

func (s *sqliteClient) ListPunishments(ctx context.Context, chatID, userID int64, limit int) ([]*db.PunishmentRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit < 1 {
		limit = 50
	}
	var records []*db.PunishmentRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT * FROM punishments
		WHERE chat_id = ? AND user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, chatID, userID, limit)
	return records, err
}
