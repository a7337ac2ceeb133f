package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/db"
)

// InsertWarningAndCountActive inserts the warning and counts the user's
// active warnings in one transaction, so concurrent issuances for the same
// (chat, user) cannot both observe a pre-insert count.
func (s *sqliteClient) InsertWarningAndCountActive(ctx context.Context, warning *db.Warning) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	rollback := true
	defer func() {
		if rollback {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.WithError(err).Error("failed to rollback transaction")
			}
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO warnings (chat_id, user_id, issued_by, reason, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, warning.ChatID, warning.UserID, warning.IssuedBy, warning.Reason, warning.IssuedAt, warning.ExpiresAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert warning: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		warning.ID = id
	}

	var count int
	err = tx.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM warnings
		WHERE chat_id = ? AND user_id = ? AND expires_at > ?
	`, warning.ChatID, warning.UserID, warning.IssuedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to count active warnings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	rollback = false
	return count, nil
}

func (s *sqliteClient) CountActiveWarnings(ctx context.Context, chatID, userID int64, now time.Time) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM warnings
		WHERE chat_id = ? AND user_id = ? AND expires_at > ?
	`, chatID, userID, now)
	return count, err
}

func (s *sqliteClient) DeleteWarnings(ctx context.Context, chatID, userID int64) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
