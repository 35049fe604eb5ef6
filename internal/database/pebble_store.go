// file: internal/database/pebble_store.go
// version: 2.0.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package database

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/pebble/v2"
	ulid "github.com/oklog/ulid/v2"

	"github.com/tidybooks/tidybooks/internal/models"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - hist:<id>            -> HistoryEntry JSON
// - histfp:<fingerprint> -> history id
// - histname:<name>      -> history id (normalized candidate name)
// - bundle:<id>          -> Bundle JSON
// - setting:<key>        -> raw value
// - op:<id>              -> Operation JSON
// - oplog:<op_id>:<ts>   -> OperationLog JSON
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore creates a new PebbleDB store.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

// Reset deletes all records.
func (p *PebbleStore) Reset() error {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	batch := p.db.NewBatch()
	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			iter.Close()
			batch.Close()
			return err
		}
	}
	if err := iter.Close(); err != nil {
		batch.Close()
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleStore) get(key string, out any) error {
	data, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(data, out)
}

func (p *PebbleStore) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.db.Set([]byte(key), data, pebble.Sync)
}

// iterPrefix collects all values under a key prefix.
func (p *PebbleStore) iterPrefix(prefix string, fn func(key string, value []byte) error) error {
	upper := append([]byte(prefix[:len(prefix)-1]), prefix[len(prefix)-1]+1)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upper,
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(string(iter.Key()), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// --- History ---

// CreateHistoryEntry stores a history record, generating a ULID when the ID
// is empty, and maintains the fingerprint and name lookup keys.
func (p *PebbleStore) CreateHistoryEntry(entry *models.HistoryEntry) (*models.HistoryEntry, error) {
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

	batch := p.db.NewBatch()
	data, err := json.Marshal(&e)
	if err != nil {
		return nil, err
	}
	if err := batch.Set([]byte("hist:"+e.ID), data, nil); err != nil {
		return nil, err
	}
	if e.Fingerprint != "" {
		if err := batch.Set([]byte("histfp:"+e.Fingerprint), []byte(e.ID), nil); err != nil {
			return nil, err
		}
	}
	if e.NormalizedName != "" {
		if err := batch.Set([]byte("histname:"+e.NormalizedName), []byte(e.ID), nil); err != nil {
			return nil, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to commit history entry: %w", err)
	}
	return &e, nil
}

// GetHistoryEntry fetches a history record by ID.
func (p *PebbleStore) GetHistoryEntry(id string) (*models.HistoryEntry, error) {
	var e models.HistoryEntry
	if err := p.get("hist:"+id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (p *PebbleStore) getHistoryByLookup(key string) (*models.HistoryEntry, error) {
	data, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	id := string(data)
	closer.Close()
	return p.GetHistoryEntry(id)
}

// GetHistoryByFingerprint looks up a history record by content fingerprint.
func (p *PebbleStore) GetHistoryByFingerprint(fingerprint string) (*models.HistoryEntry, error) {
	return p.getHistoryByLookup("histfp:" + fingerprint)
}

// GetHistoryByNormalizedName looks up a history record by normalized name.
func (p *PebbleStore) GetHistoryByNormalizedName(name string) (*models.HistoryEntry, error) {
	return p.getHistoryByLookup("histname:" + name)
}

// ListHistory returns history records sorted by import time descending.
func (p *PebbleStore) ListHistory(limit, offset int) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := p.iterPrefix("hist:", func(_ string, value []byte) error {
		var e models.HistoryEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
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

// DeleteHistoryEntry removes a history record and its lookup keys.
func (p *PebbleStore) DeleteHistoryEntry(id string) error {
	entry, err := p.GetHistoryEntry(id)
	if err != nil {
		return err
	}
	batch := p.db.NewBatch()
	if err := batch.Delete([]byte("hist:"+id), nil); err != nil {
		return err
	}
	if entry.Fingerprint != "" {
		if err := batch.Delete([]byte("histfp:"+entry.Fingerprint), nil); err != nil {
			return err
		}
	}
	if entry.NormalizedName != "" {
		if err := batch.Delete([]byte("histname:"+entry.NormalizedName), nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// CountHistory returns the number of history records.
func (p *PebbleStore) CountHistory() (int, error) {
	count := 0
	err := p.iterPrefix("hist:", func(_ string, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// --- Bundles ---

// CreateBundle stores a manual bundle, generating a ULID when needed.
func (p *PebbleStore) CreateBundle(bundle *models.Bundle) (*models.Bundle, error) {
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
	if err := p.set("bundle:"+b.ID, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBundle fetches a bundle by ID.
func (p *PebbleStore) GetBundle(id string) (*models.Bundle, error) {
	var b models.Bundle
	if err := p.get("bundle:"+id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBundles returns all bundles sorted by creation time descending.
func (p *PebbleStore) ListBundles() ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := p.iterPrefix("bundle:", func(_ string, value []byte) error {
		var b models.Bundle
		if err := json.Unmarshal(value, &b); err != nil {
			return err
		}
		bundles = append(bundles, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].CreatedAt.After(bundles[j].CreatedAt)
	})
	return bundles, nil
}

// DeleteBundle removes a bundle.
func (p *PebbleStore) DeleteBundle(id string) error {
	if _, err := p.GetBundle(id); err != nil {
		return err
	}
	return p.db.Delete([]byte("bundle:"+id), pebble.Sync)
}

// --- Settings ---

// GetSetting returns a raw setting value.
func (p *PebbleStore) GetSetting(key string) (string, error) {
	data, closer, err := p.db.Get([]byte("setting:" + key))
	if err == pebble.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(data), nil
}

// SetSetting stores a raw setting value.
func (p *PebbleStore) SetSetting(key, value string) error {
	return p.db.Set([]byte("setting:"+key), []byte(value), pebble.Sync)
}

// --- Operations ---

// SaveOperation upserts an operation record.
func (p *PebbleStore) SaveOperation(op *Operation) error {
	if op == nil || op.ID == "" {
		return fmt.Errorf("operation requires an ID")
	}
	return p.set("op:"+op.ID, op)
}

// GetOperation fetches an operation by ID.
func (p *PebbleStore) GetOperation(id string) (*Operation, error) {
	var op Operation
	if err := p.get("op:"+id, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// ListOperations returns operations sorted by creation time descending.
func (p *PebbleStore) ListOperations(limit int) ([]Operation, error) {
	var ops []Operation
	err := p.iterPrefix("op:", func(_ string, value []byte) error {
		var op Operation
		if err := json.Unmarshal(value, &op); err != nil {
			return err
		}
		ops = append(ops, op)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].CreatedAt.After(ops[j].CreatedAt)
	})
	if limit > 0 && limit < len(ops) {
		ops = ops[:limit]
	}
	return ops, nil
}

// AppendOperationLog stores one log line, keyed by timestamp for ordering.
func (p *PebbleStore) AppendOperationLog(entry *OperationLog) error {
	if entry == nil || entry.OperationID == "" {
		return fmt.Errorf("operation log requires an operation ID")
	}
	e := *entry
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	key := fmt.Sprintf("oplog:%s:%020d", e.OperationID, e.Timestamp.UnixNano())
	return p.set(key, &e)
}

// GetOperationLogs returns an operation's log lines in append order.
func (p *PebbleStore) GetOperationLogs(operationID string) ([]OperationLog, error) {
	var logs []OperationLog
	err := p.iterPrefix("oplog:"+operationID+":", func(key string, value []byte) error {
		if !strings.HasPrefix(key, "oplog:"+operationID+":") {
			return nil
		}
		var e OperationLog
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		logs = append(logs, e)
		return nil
	})
	return logs, err
}
