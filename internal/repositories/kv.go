package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// KVRepository implements [Store] on the SQLite kv table.
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new [KVRepository] with the given database connection.
//
// The kv table must exist; see shared.RunMigrations.
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves the value stored under key.
func (r *KVRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return value, true, nil
}

// Set upserts a single key.
func (r *KVRepository) Set(key, value string) error {
	return r.SetMany(map[string]string{key: value})
}

// SetMany upserts all values in one transaction.
func (r *KVRepository) SetMany(values map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return storageErr("begin", "", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now()
	for key, value := range values {
		if _, err := tx.Exec(query, key, value, now); err != nil {
			return storageErr("set", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", "", err)
	}
	return nil
}

// Delete removes all keys in one transaction.
func (r *KVRepository) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	tx, err := r.db.Begin()
	if err != nil {
		return storageErr("begin", "", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM kv WHERE key IN ("+placeholders+")", args...); err != nil {
		return storageErr("delete", strings.Join(keys, ","), err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", "", err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (r *KVRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM kv ORDER BY key ASC")
	if err != nil {
		return nil, storageErr("list", "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, storageErr("scan", "", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("list", "", err)
	}
	return keys, nil
}
