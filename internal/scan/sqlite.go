package scan

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const slotsSchema = `CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteSlots implements the Slots interface using SQLite
type SQLiteSlots struct {
	db *sql.DB
}

// NewSQLiteSlots opens (or creates) the SQLite database at path
func NewSQLiteSlots(path string) (*SQLiteSlots, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(slotsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteSlots{db: db}, nil
}

// Get returns the value stored under key
func (s *SQLiteSlots) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT value FROM slots WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return data, nil
}

// Set overwrites the value stored under key
func (s *SQLiteSlots) Set(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("set slot: %w", err)
	}
	return nil
}

// Remove deletes the value stored under key
func (s *SQLiteSlots) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("remove slot: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteSlots) Close() error {
	return s.db.Close()
}
