// Package settings persists launcher key/value settings in SQLite. It backs
// the SetRegistryKey and GetRegistryKey script functions.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/neutonm/Amber-Launcher-sub000/internal/collab/settings/migrations"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/storage/sqlitemigrate"
	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/timeouts"
	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed settings table.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the settings database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	key, err := s.checkKey(key)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC().UnixMilli())
	if err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeCollaborator, "put setting "+key,
			map[string]string{"Action": "Saving setting " + key}, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	key, err := s.checkKey(key)
	if err != nil {
		return "", false, err
	}
	var value string
	err = s.sqlDB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, apperrors.WrapWithMetadata(apperrors.CodeCollaborator, "get setting "+key,
			map[string]string{"Action": "Reading setting " + key}, err)
	}
	return value, true, nil
}

// Delete removes key. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	key, err := s.checkKey(key)
	if err != nil {
		return false, err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, err)
	}
	return n > 0, nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("settings store is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SetKey is Put with a bounded background context, for script callers.
func (s *Store) SetKey(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SettingsCall)
	defer cancel()
	return s.Put(ctx, key, value)
}

// GetKey is Get with a bounded background context, for script callers.
func (s *Store) GetKey(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SettingsCall)
	defer cancel()
	return s.Get(ctx, key)
}

func (s *Store) checkKey(key string) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("settings store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("setting key is required")
	}
	return key, nil
}
