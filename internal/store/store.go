// Package store persists client-side view settings (zoom, window policy,
// selected project) between sessions. Domain data is never cached here; the
// backend is the only source of truth for projects and tasks.
package store

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Store wraps the settings database
type Store struct {
	*sql.DB
}

// New opens the settings database in the user's data directory and
// initializes the schema.
func New() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open opens the settings database at an explicit path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// defaultPath returns the path to the settings database file
func defaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "pland")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(appDir, "pland.db"), nil
}

// Setting keys.
const (
	KeyZoom         = "timeline_zoom"
	KeyRangePolicy  = "timeline_range_policy"
	KeyCustomStart  = "timeline_custom_start"
	KeyCustomEnd    = "timeline_custom_end"
	KeyProjectScope = "project_scope"
	KeyDirection    = "timeline_direction"
)

// GetSetting retrieves a setting value by key
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (s *Store) SetSetting(key, value string) error {
	_, err := s.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetFloat retrieves a numeric setting, returning fallback when unset or
// unparsable.
func (s *Store) GetFloat(key string, fallback float64) float64 {
	raw, err := s.GetSetting(key)
	if err != nil || raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// SetFloat stores a numeric setting.
func (s *Store) SetFloat(key string, value float64) error {
	return s.SetSetting(key, strconv.FormatFloat(value, 'f', -1, 64))
}
