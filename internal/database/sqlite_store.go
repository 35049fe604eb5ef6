// file: internal/database/sqlite_store.go
// version: 2.0.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	ulid "github.com/oklog/ulid/v2"

	"github.com/tidybooks/tidybooks/internal/models"
)

// SQLiteStore implements the Store interface using SQLite3.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			candidate_name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			fingerprint TEXT,
			source_path TEXT NOT NULL,
			library_path TEXT NOT NULL,
			author TEXT,
			title TEXT,
			series TEXT,
			narrator TEXT,
			tagged INTEGER NOT NULL DEFAULT 0,
			cover_path TEXT,
			file_count INTEGER NOT NULL DEFAULT 0,
			total_size INTEGER NOT NULL DEFAULT 0,
			imported_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_fingerprint ON history(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_history_normalized ON history(normalized_name)`,
		`CREATE TABLE IF NOT EXISTS bundles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			paths TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS operations (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			message TEXT,
			error TEXT,
			created_at TIMESTAMP NOT NULL,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS operation_logs (
			operation_id TEXT NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			details TEXT,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_oplogs_operation ON operation_logs(operation_id, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Reset deletes all rows from all tables.
func (s *SQLiteStore) Reset() error {
	for _, table := range []string{"history", "bundles", "settings", "operations", "operation_logs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return nil
}

// --- History ---

const historyColumns = `id, candidate_name, normalized_name, fingerprint, source_path,
	library_path, author, title, series, narrator, tagged, cover_path,
	file_count, total_size, imported_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(scanner rowScanner, e *models.HistoryEntry) error {
	var fingerprint, author, title, series, narrator, coverPath sql.NullString
	err := scanner.Scan(
		&e.ID, &e.CandidateName, &e.NormalizedName, &fingerprint, &e.SourcePath,
		&e.LibraryPath, &author, &title, &series, &narrator, &e.Tagged,
		&coverPath, &e.FileCount, &e.TotalSize, &e.ImportedAt,
	)
	if err != nil {
		return err
	}
	e.Fingerprint = fingerprint.String
	e.Author = author.String
	e.Title = title.String
	e.Series = series.String
	e.Narrator = narrator.String
	e.CoverPath = coverPath.String
	return nil
}

func (s *SQLiteStore) CreateHistoryEntry(entry *models.HistoryEntry) (*models.HistoryEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("nil history entry")
	}
	e := *entry
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.ImportedAt.IsZero() {
		e.ImportedAt = time.Now().UTC()
	}
	// Upsert so re-saving an entry with its existing ID (the tagger does
	// this to persist the Tagged flag) updates the row, matching the
	// pebble backend's Set semantics.
	_, err := s.db.Exec(
		`INSERT INTO history (`+historyColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			candidate_name = excluded.candidate_name,
			normalized_name = excluded.normalized_name,
			fingerprint = excluded.fingerprint,
			source_path = excluded.source_path,
			library_path = excluded.library_path,
			author = excluded.author,
			title = excluded.title,
			series = excluded.series,
			narrator = excluded.narrator,
			tagged = excluded.tagged,
			cover_path = excluded.cover_path,
			file_count = excluded.file_count,
			total_size = excluded.total_size,
			imported_at = excluded.imported_at`,
		e.ID, e.CandidateName, e.NormalizedName, nullable(e.Fingerprint), e.SourcePath,
		e.LibraryPath, nullable(e.Author), nullable(e.Title), nullable(e.Series),
		nullable(e.Narrator), e.Tagged, nullable(e.CoverPath),
		e.FileCount, e.TotalSize, e.ImportedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save history entry: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) getHistoryWhere(where string, args ...any) (*models.HistoryEntry, error) {
	row := s.db.QueryRow(`SELECT `+historyColumns+` FROM history WHERE `+where, args...)
	var e models.HistoryEntry
	if err := scanHistory(row, &e); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) GetHistoryEntry(id string) (*models.HistoryEntry, error) {
	return s.getHistoryWhere("id = ?", id)
}

func (s *SQLiteStore) GetHistoryByFingerprint(fingerprint string) (*models.HistoryEntry, error) {
	return s.getHistoryWhere("fingerprint = ?", fingerprint)
}

func (s *SQLiteStore) GetHistoryByNormalizedName(name string) (*models.HistoryEntry, error) {
	return s.getHistoryWhere("normalized_name = ?", name)
}

func (s *SQLiteStore) ListHistory(limit, offset int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT `+historyColumns+` FROM history ORDER BY imported_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := scanHistory(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) DeleteHistoryEntry(id string) error {
	res, err := s.db.Exec("DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CountHistory() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count)
	return count, err
}

// --- Bundles ---

func (s *SQLiteStore) CreateBundle(bundle *models.Bundle) (*models.Bundle, error) {
	if bundle == nil {
		return nil, fmt.Errorf("nil bundle")
	}
	b := *bundle
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	paths, err := json.Marshal(b.Paths)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		"INSERT INTO bundles (id, name, paths, created_at) VALUES (?,?,?,?)",
		b.ID, b.Name, string(paths), b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bundle: %w", err)
	}
	return &b, nil
}

func scanBundle(scanner rowScanner, b *models.Bundle) error {
	var paths string
	if err := scanner.Scan(&b.ID, &b.Name, &paths, &b.CreatedAt); err != nil {
		return err
	}
	return json.Unmarshal([]byte(paths), &b.Paths)
}

func (s *SQLiteStore) GetBundle(id string) (*models.Bundle, error) {
	row := s.db.QueryRow("SELECT id, name, paths, created_at FROM bundles WHERE id = ?", id)
	var b models.Bundle
	if err := scanBundle(row, &b); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *SQLiteStore) ListBundles() ([]models.Bundle, error) {
	rows, err := s.db.Query("SELECT id, name, paths, created_at FROM bundles ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bundles := []models.Bundle{}
	for rows.Next() {
		var b models.Bundle
		if err := scanBundle(rows, &b); err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

func (s *SQLiteStore) DeleteBundle(id string) error {
	res, err := s.db.Exec("DELETE FROM bundles WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Settings ---

func (s *SQLiteStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?,?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// --- Operations ---

func (s *SQLiteStore) SaveOperation(op *Operation) error {
	if op == nil || op.ID == "" {
		return fmt.Errorf("operation requires an ID")
	}
	_, err := s.db.Exec(
		`INSERT INTO operations (id, type, status, progress, total, message, error, created_at, started_at, finished_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, progress = excluded.progress, total = excluded.total,
			message = excluded.message, error = excluded.error,
			started_at = excluded.started_at, finished_at = excluded.finished_at`,
		op.ID, op.Type, op.Status, op.Progress, op.Total,
		nullable(op.Message), nullable(op.Error), op.CreatedAt, op.StartedAt, op.FinishedAt,
	)
	return err
}

func (s *SQLiteStore) GetOperation(id string) (*Operation, error) {
	row := s.db.QueryRow(
		"SELECT id, type, status, progress, total, message, error, created_at, started_at, finished_at FROM operations WHERE id = ?",
		id,
	)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return op, err
}

func scanOperation(scanner rowScanner) (*Operation, error) {
	var op Operation
	var message, errMsg sql.NullString
	err := scanner.Scan(
		&op.ID, &op.Type, &op.Status, &op.Progress, &op.Total,
		&message, &errMsg, &op.CreatedAt, &op.StartedAt, &op.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	op.Message = message.String
	op.Error = errMsg.String
	return &op, nil
}

func (s *SQLiteStore) ListOperations(limit int) ([]Operation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT id, type, status, progress, total, message, error, created_at, started_at, finished_at FROM operations ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ops := []Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	return ops, rows.Err()
}

func (s *SQLiteStore) AppendOperationLog(entry *OperationLog) error {
	if entry == nil || entry.OperationID == "" {
		return fmt.Errorf("operation log requires an operation ID")
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(
		"INSERT INTO operation_logs (operation_id, level, message, details, timestamp) VALUES (?,?,?,?,?)",
		entry.OperationID, entry.Level, entry.Message, entry.Details, ts,
	)
	return err
}

func (s *SQLiteStore) GetOperationLogs(operationID string) ([]OperationLog, error) {
	rows, err := s.db.Query(
		"SELECT operation_id, level, message, details, timestamp FROM operation_logs WHERE operation_id = ? ORDER BY timestamp",
		operationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []OperationLog{}
	for rows.Next() {
		var e OperationLog
		if err := rows.Scan(&e.OperationID, &e.Level, &e.Message, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
