// file: internal/database/store_test.go
// version: 1.1.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidybooks/tidybooks/internal/models"
)

// storeFactories builds each backend against a temp directory so the same
// assertions run across all implementations.
func storeFactories(t *testing.T) map[string]Store {
	t.Helper()
	pebbleStore, err := NewPebbleStore(filepath.Join(t.TempDir(), "pebble"))
	require.NoError(t, err)
	t.Cleanup(func() { pebbleStore.Close() })

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tidybooks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"pebble": pebbleStore,
		"sqlite": sqliteStore,
		"mock":   NewMockStore(),
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.CreateHistoryEntry(&models.HistoryEntry{
				CandidateName:  "Andy Weir - Project Hail Mary",
				NormalizedName: "andy weir project hail mary",
				Fingerprint:    "abc123",
				SourcePath:     "/downloads/Andy Weir - Project Hail Mary",
				LibraryPath:    "/library/Andy Weir/Project Hail Mary",
				Author:         "Andy Weir",
				Title:          "Project Hail Mary",
				Tagged:         true,
				FileCount:      3,
				TotalSize:      1024,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.False(t, created.ImportedAt.IsZero())

			got, err := store.GetHistoryEntry(created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Project Hail Mary", got.Title)
			assert.True(t, got.Tagged)

			byFP, err := store.GetHistoryByFingerprint("abc123")
			require.NoError(t, err)
			assert.Equal(t, created.ID, byFP.ID)

			byName, err := store.GetHistoryByNormalizedName("andy weir project hail mary")
			require.NoError(t, err)
			assert.Equal(t, created.ID, byName.ID)

			count, err := store.CountHistory()
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			require.NoError(t, store.DeleteHistoryEntry(created.ID))
			_, err = store.GetHistoryEntry(created.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = store.GetHistoryByFingerprint("abc123")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestHistoryResaveUpdatesEntry(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.CreateHistoryEntry(&models.HistoryEntry{
				CandidateName:  "Frank Herbert - Dune",
				NormalizedName: "frank herbert dune",
				SourcePath:     "/downloads/dune",
				LibraryPath:    "/library/Frank Herbert/Dune",
			})
			require.NoError(t, err)
			assert.False(t, created.Tagged)

			// The tagger re-saves the entry with its existing ID to
			// persist the Tagged flag; this must update, not error.
			created.Tagged = true
			created.CoverPath = "/library/Frank Herbert/Dune/cover.jpg"
			_, err = store.CreateHistoryEntry(created)
			require.NoError(t, err)

			got, err := store.GetHistoryEntry(created.ID)
			require.NoError(t, err)
			assert.True(t, got.Tagged)
			assert.Equal(t, created.CoverPath, got.CoverPath)

			count, err := store.CountHistory()
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestListHistoryOrderAndPaging(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().UTC().Add(-time.Hour)
			for i := 0; i < 5; i++ {
				_, err := store.CreateHistoryEntry(&models.HistoryEntry{
					CandidateName:  "Book",
					NormalizedName: "book " + string(rune('a'+i)),
					SourcePath:     "/downloads/b",
					LibraryPath:    "/library/b",
					ImportedAt:     base.Add(time.Duration(i) * time.Minute),
				})
				require.NoError(t, err)
			}

			entries, err := store.ListHistory(2, 0)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.True(t, entries[0].ImportedAt.After(entries[1].ImportedAt))

			rest, err := store.ListHistory(0, 3)
			require.NoError(t, err)
			assert.Len(t, rest, 2)

			empty, err := store.ListHistory(10, 100)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestBundleRoundTrip(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.CreateBundle(&models.Bundle{
				Name:  "Mistborn Era One",
				Paths: []string{"/downloads/mistborn1", "/downloads/mistborn2"},
			})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)

			got, err := store.GetBundle(created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.Paths, got.Paths)

			bundles, err := store.ListBundles()
			require.NoError(t, err)
			assert.Len(t, bundles, 1)

			require.NoError(t, store.DeleteBundle(created.ID))
			assert.ErrorIs(t, store.DeleteBundle(created.ID), ErrNotFound)
		})
	}
}

func TestSettings(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetSetting("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.SetSetting("theme", "dark"))
			require.NoError(t, store.SetSetting("theme", "light"))
			v, err := store.GetSetting("theme")
			require.NoError(t, err)
			assert.Equal(t, "light", v)
		})
	}
}

func TestOperationsAndLogs(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			op := &Operation{
				ID:        "op-1",
				Type:      "import",
				Status:    "queued",
				CreatedAt: time.Now().UTC(),
			}
			require.NoError(t, store.SaveOperation(op))

			op.Status = "running"
			op.Progress = 3
			op.Total = 10
			require.NoError(t, store.SaveOperation(op))

			got, err := store.GetOperation("op-1")
			require.NoError(t, err)
			assert.Equal(t, "running", got.Status)
			assert.Equal(t, 3, got.Progress)

			require.NoError(t, store.AppendOperationLog(&OperationLog{
				OperationID: "op-1", Level: "info", Message: "started",
			}))
			require.NoError(t, store.AppendOperationLog(&OperationLog{
				OperationID: "op-1", Level: "warn", Message: "skipped file",
				Timestamp: time.Now().UTC().Add(time.Second),
			}))

			logs, err := store.GetOperationLogs("op-1")
			require.NoError(t, err)
			require.Len(t, logs, 2)
			assert.Equal(t, "started", logs[0].Message)

			ops, err := store.ListOperations(10)
			require.NoError(t, err)
			assert.Len(t, ops, 1)
		})
	}
}

func TestReset(t *testing.T) {
	for name, store := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.CreateHistoryEntry(&models.HistoryEntry{
				CandidateName: "x", NormalizedName: "x",
				SourcePath: "/d/x", LibraryPath: "/l/x",
			})
			require.NoError(t, err)
			require.NoError(t, store.SetSetting("k", "v"))

			require.NoError(t, store.Reset())

			count, err := store.CountHistory()
			require.NoError(t, err)
			assert.Zero(t, count)
			_, err = store.GetSetting("k")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
