// file: internal/database/store.go
// version: 2.0.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidybooks/tidybooks/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Operation records an async job (scan, import, tag) for the web UI.
type Operation struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status"` // queued, running, completed, failed, canceled
	Progress   int        `json:"progress"`
	Total      int        `json:"total"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// OperationLog is one log line attached to an operation.
type OperationLog struct {
	OperationID string    `json:"operation_id"`
	Level       string    `json:"level"`
	Message     string    `json:"message"`
	Details     *string   `json:"details,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store defines the persistence interface for the processed-history log,
// saved bundles, settings, and operation records. This abstraction supports
// both PebbleDB (default) and SQLite3 (opt-in).
type Store interface {
	// Lifecycle
	Close() error
	Reset() error

	// Processed-history log
	CreateHistoryEntry(entry *models.HistoryEntry) (*models.HistoryEntry, error) // generates ULID if empty
	GetHistoryEntry(id string) (*models.HistoryEntry, error)
	GetHistoryByFingerprint(fingerprint string) (*models.HistoryEntry, error)
	GetHistoryByNormalizedName(name string) (*models.HistoryEntry, error)
	ListHistory(limit, offset int) ([]models.HistoryEntry, error)
	DeleteHistoryEntry(id string) error
	CountHistory() (int, error)

	// Manual bundles
	CreateBundle(bundle *models.Bundle) (*models.Bundle, error)
	GetBundle(id string) (*models.Bundle, error)
	ListBundles() ([]models.Bundle, error)
	DeleteBundle(id string) error

	// Settings
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error

	// Operations
	SaveOperation(op *Operation) error
	GetOperation(id string) (*Operation, error)
	ListOperations(limit int) ([]Operation, error)
	AppendOperationLog(entry *OperationLog) error
	GetOperationLogs(operationID string) ([]OperationLog, error)
}

// GlobalStore is the process-wide store instance.
var GlobalStore Store

// InitializeStore opens the configured backend and assigns GlobalStore.
func InitializeStore(dbType, path string, enableSQLite bool) error {
	var err error

	switch dbType {
	case "sqlite", "sqlite3":
		if !enableSQLite {
			return fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended database")
		}
		GlobalStore, err = NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble", "":
		GlobalStore, err = NewPebbleStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database type: %s (supported: pebble, sqlite)", dbType)
	}

	return nil
}

// CloseStore closes the global store if set.
func CloseStore() error {
	if GlobalStore == nil {
		return nil
	}
	err := GlobalStore.Close()
	GlobalStore = nil
	return err
}
