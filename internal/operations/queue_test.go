// file: internal/operations/queue_test.go
// version: 1.0.0
// guid: 3d4e5f6a-7b8c-9d0e-1f2a-3b4c5d6e7f8a

package operations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidybooks/tidybooks/internal/database"
)

func waitForStatus(t *testing.T, store database.Store, id string, want string) *database.Operation {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := store.GetOperation(id)
		if err == nil && rec != nil && rec.Status == want {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("operation %s never reached status %q", id, want)
	return nil
}

func TestEnqueueRunsOperation(t *testing.T) {
	store := database.NewMockStore()
	q := NewQueue(store, 1)
	defer q.Shutdown(time.Second)

	done := make(chan struct{})
	id, err := q.Enqueue("scan", func(ctx context.Context, progress ProgressReporter) error {
		progress.UpdateProgress(1, 2, "halfway")
		progress.Log("info", "working")
		progress.UpdateProgress(2, 2, "done")
		close(done)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("operation never ran")
	}

	rec := waitForStatus(t, store, id, "completed")
	assert.Equal(t, 2, rec.Progress)
	assert.Equal(t, 2, rec.Total)

	logs, err := store.GetOperationLogs(id)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "working", logs[0].Message)
}

func TestFailedOperationRecordsError(t *testing.T) {
	store := database.NewMockStore()
	q := NewQueue(store, 1)
	defer q.Shutdown(time.Second)

	id, err := q.Enqueue("import", func(ctx context.Context, progress ProgressReporter) error {
		return fmt.Errorf("disk full")
	})
	require.NoError(t, err)

	rec := waitForStatus(t, store, id, "failed")
	assert.Contains(t, rec.Error, "disk full")
	assert.NotNil(t, rec.FinishedAt)
}

func TestCancelStopsOperation(t *testing.T) {
	store := database.NewMockStore()
	q := NewQueue(store, 1)
	defer q.Shutdown(time.Second)

	started := make(chan struct{})
	id, err := q.Enqueue("scan", func(ctx context.Context, progress ProgressReporter) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("operation never started")
	}

	require.NoError(t, q.Cancel(id))
	waitForStatus(t, store, id, "canceled")
}

func TestCancelUnknownOperation(t *testing.T) {
	q := NewQueue(database.NewMockStore(), 1)
	defer q.Shutdown(time.Second)

	assert.Error(t, q.Cancel("no-such-id"))
}

func TestActiveOperations(t *testing.T) {
	store := database.NewMockStore()
	q := NewQueue(store, 1)
	defer q.Shutdown(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	id, err := q.Enqueue("tag", func(ctx context.Context, progress ProgressReporter) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)

	<-started
	active := q.ActiveOperations()
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Equal(t, "tag", active[0].Type)

	close(release)
	waitForStatus(t, store, id, "completed")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(q.ActiveOperations()) > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Empty(t, q.ActiveOperations())
}

func TestShutdownCancelsRunning(t *testing.T) {
	store := database.NewMockStore()
	q := NewQueue(store, 2)

	started := make(chan struct{})
	_, err := q.Enqueue("scan", func(ctx context.Context, progress ProgressReporter) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	<-started
	assert.NoError(t, q.Shutdown(2*time.Second))
}
