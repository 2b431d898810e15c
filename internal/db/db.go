package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite-backed key/value store. Each key holds one durable slot.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath. The file is not encrypted.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Get returns the value stored under key. ok is false when the slot is absent.
func (db *DB) Get(key string) (value string, ok bool, err error) {
	err = db.conn.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, true, nil
}

// Put overwrites the slot under key.
func (db *DB) Put(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO slots (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// Keys lists slot keys starting with prefix.
func (db *DB) Keys(prefix string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT key FROM slots WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PurgeOldSlots deletes slots whose key starts with prefix and that were
// last written before the cutoff.
func (db *DB) PurgeOldSlots(prefix string, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := db.conn.Exec(
		`DELETE FROM slots WHERE key LIKE ? ESCAPE '\' AND updated_at < ?`,
		escapeLike(prefix)+"%", cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
