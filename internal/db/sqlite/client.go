package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/chatwarden/internal/db"
	"github.com/iamwavecut/chatwarden/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

func NewSQLiteClient(ctx context.Context, workDir, dbName string) (*sqliteClient, error) {
	dbx, err := sqlx.Open("sqlite", filepath.Join(workDir, dbName))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	dbx.SetMaxOpenConns(42)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.ExecContext(ctx, dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("migrate up failed: %w", err)
	}
	if n > 0 {
		log.Infof("applied %d migrations!", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (s *sqliteClient) Close() error {
	return s.db.Close()
}

func (s *sqliteClient) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	settings := &db.Settings{}
	err := s.db.GetContext(ctx, settings, `SELECT * FROM chats WHERE id = ?`, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	return settings, nil
}

func (s *sqliteClient) SetSettings(ctx context.Context, settings *db.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chats (
			id, title, language, lock_warn_enabled, max_warnings, warning_ttl_ns,
			threshold_action, threshold_duration_ns, clean_service_enabled,
			antiflood_enabled, antiflood_max_messages, antiflood_window_ns,
			antiflood_action, antiflood_duration_ns, log_channel_id
		) VALUES (
			:id, :title, :language, :lock_warn_enabled, :max_warnings, :warning_ttl_ns,
			:threshold_action, :threshold_duration_ns, :clean_service_enabled,
			:antiflood_enabled, :antiflood_max_messages, :antiflood_window_ns,
			:antiflood_action, :antiflood_duration_ns, :log_channel_id
		)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			language=excluded.language,
			lock_warn_enabled=excluded.lock_warn_enabled,
			max_warnings=excluded.max_warnings,
			warning_ttl_ns=excluded.warning_ttl_ns,
			threshold_action=excluded.threshold_action,
			threshold_duration_ns=excluded.threshold_duration_ns,
			clean_service_enabled=excluded.clean_service_enabled,
			antiflood_enabled=excluded.antiflood_enabled,
			antiflood_max_messages=excluded.antiflood_max_messages,
			antiflood_window_ns=excluded.antiflood_window_ns,
			antiflood_action=excluded.antiflood_action,
			antiflood_duration_ns=excluded.antiflood_duration_ns,
			log_channel_id=excluded.log_channel_id;
	`
	_, err := s.db.NamedExecContext(ctx, query, settings)
	return err
}
