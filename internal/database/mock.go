// file: internal/database/mock.go
// version: 2.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package database

import (
	"fmt"
	"sort"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"github.com/tidybooks/tidybooks/internal/models"
)

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mu         sync.RWMutex
	history    map[string]models.HistoryEntry
	bundles    map[string]models.Bundle
	settings   map[string]string
	operations map[string]Operation
	oplogs     map[string][]OperationLog
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		history:    make(map[string]models.HistoryEntry),
		bundles:    make(map[string]models.Bundle),
		settings:   make(map[string]string),
		operations: make(map[string]Operation),
		oplogs:     make(map[string][]OperationLog),
	}
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = make(map[string]models.HistoryEntry)
	m.bundles = make(map[string]models.Bundle)
	m.settings = make(map[string]string)
	m.operations = make(map[string]Operation)
	m.oplogs = make(map[string][]OperationLog)
	return nil
}

func (m *MockStore) CreateHistoryEntry(entry *models.HistoryEntry) (*models.HistoryEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("nil history entry")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *entry
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.ImportedAt.IsZero() {
		e.ImportedAt = time.Now().UTC()
	}
	m.history[e.ID] = e
	return &e, nil
}

func (m *MockStore) GetHistoryEntry(id string) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.history[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MockStore) GetHistoryByFingerprint(fingerprint string) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.history {
		if e.Fingerprint != "" && e.Fingerprint == fingerprint {
			out := e
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetHistoryByNormalizedName(name string) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.history {
		if e.NormalizedName != "" && e.NormalizedName == name {
			out := e
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) ListHistory(limit, offset int) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]models.HistoryEntry, 0, len(m.history))
	for _, e := range m.history {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ImportedAt.After(entries[j].ImportedAt)
	})
	if offset >= len(entries) {
		return []models.HistoryEntry{}, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MockStore) DeleteHistoryEntry(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[id]; !ok {
		return ErrNotFound
	}
	delete(m.history, id)
	return nil
}

func (m *MockStore) CountHistory() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history), nil
}

func (m *MockStore) CreateBundle(bundle *models.Bundle) (*models.Bundle, error) {
	if bundle == nil {
		return nil, fmt.Errorf("nil bundle")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := *bundle
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bundles[b.ID] = b
	return &b, nil
}

func (m *MockStore) GetBundle(id string) (*models.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bundles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *MockStore) ListBundles() ([]models.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bundles := make([]models.Bundle, 0, len(m.bundles))
	for _, b := range m.bundles {
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].CreatedAt.After(bundles[j].CreatedAt)
	})
	return bundles, nil
}

func (m *MockStore) DeleteBundle(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bundles[id]; !ok {
		return ErrNotFound
	}
	delete(m.bundles, id)
	return nil
}

func (m *MockStore) GetSetting(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MockStore) SetSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MockStore) SaveOperation(op *Operation) error {
	if op == nil || op.ID == "" {
		return fmt.Errorf("operation requires an ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[op.ID] = *op
	return nil
}

func (m *MockStore) GetOperation(id string) (*Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.operations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &op, nil
}

func (m *MockStore) ListOperations(limit int) ([]Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ops := make([]Operation, 0, len(m.operations))
	for _, op := range m.operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].CreatedAt.After(ops[j].CreatedAt)
	})
	if limit > 0 && limit < len(ops) {
		ops = ops[:limit]
	}
	return ops, nil
}

func (m *MockStore) AppendOperationLog(entry *OperationLog) error {
	if entry == nil || entry.OperationID == "" {
		return fmt.Errorf("operation log requires an operation ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *entry
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.oplogs[e.OperationID] = append(m.oplogs[e.OperationID], e)
	return nil
}

func (m *MockStore) GetOperationLogs(operationID string) ([]OperationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	logs := make([]OperationLog, len(m.oplogs[operationID]))
	copy(logs, m.oplogs[operationID])
	return logs, nil
}
