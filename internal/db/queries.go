package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/T-Lind/health-frontend/internal/errors"
)

// GetValue reads the value stored under key.
// found is false (with a nil error) when the key has never been written.
func GetValue(ctx context.Context, db *sql.DB, key string) (value string, found bool, err error) {
	row := db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key)
	err = row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// SetValue writes value under key, replacing any previous value.
func SetValue(ctx context.Context, db *sql.DB, key, value string) error {
	query := `
		INSERT INTO local_storage (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LocalStorage adapts the local_storage table to the byte-oriented
// key/value interface the session layer persists through.
type LocalStorage struct {
	db *sql.DB
}

// NewLocalStorage wraps an initialized database handle.
func NewLocalStorage(database *sql.DB) *LocalStorage {
	return &LocalStorage{db: database}
}

// Get returns the value for key, or found=false if absent.
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, found, err := GetValue(ctx, s.db, key)
	if err != nil || !found {
		return nil, found, err
	}
	return []byte(v), true, nil
}

// Set stores value under key.
func (s *LocalStorage) Set(ctx context.Context, key string, value []byte) error {
	return SetValue(ctx, s.db, key, string(value))
}

// Delete removes key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	return DeleteValue(ctx, s.db, key)
}
