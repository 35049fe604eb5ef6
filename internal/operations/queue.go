// file: internal/operations/queue.go
// version: 1.0.0
// guid: 2c3d4e5f-6a7b-8c9d-0e1f-2a3b4c5d6e7f

package operations

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/metrics"
	"github.com/tidybooks/tidybooks/internal/realtime"
)

// OperationFunc is the body of an async operation.
type OperationFunc func(ctx context.Context, progress ProgressReporter) error

// ProgressReporter lets an operation publish progress and log lines.
type ProgressReporter interface {
	UpdateProgress(current, total int, message string) error
	Log(level, message string) error
	IsCanceled() bool
}

// QueuedOperation is one scheduled operation.
type QueuedOperation struct {
	ID      string
	Type    string
	Func    OperationFunc
	Context context.Context
	Cancel  context.CancelFunc
}

// Queue runs scan, import, and tag operations on a small worker pool,
// persisting their state through the store and streaming progress over the
// event hub.
type Queue struct {
	mu         sync.RWMutex
	operations map[string]*QueuedOperation
	pending    chan *QueuedOperation
	store      database.Store
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewQueue creates an operation queue with the given number of workers.
func NewQueue(store database.Store, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		operations: make(map[string]*QueuedOperation),
		pending:    make(chan *QueuedOperation, 100),
		store:      store,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// Enqueue schedules a new operation and returns its ID.
func (q *Queue) Enqueue(opType string, fn OperationFunc) (string, error) {
	id := ulid.Make().String()

	q.mu.Lock()
	defer q.mu.Unlock()

	ctx, cancel := context.WithCancel(q.ctx)
	op := &QueuedOperation{
		ID:      id,
		Type:    opType,
		Func:    fn,
		Context: ctx,
		Cancel:  cancel,
	}
	q.operations[id] = op

	if q.store != nil {
		record := &database.Operation{
			ID:        id,
			Type:      opType,
			Status:    "queued",
			CreatedAt: time.Now().UTC(),
		}
		if err := q.store.SaveOperation(record); err != nil {
			cancel()
			delete(q.operations, id)
			return "", fmt.Errorf("failed to persist operation: %w", err)
		}
	}

	select {
	case q.pending <- op:
	default:
		cancel()
		delete(q.operations, id)
		return "", fmt.Errorf("operation queue is full")
	}

	log.Printf("Operation %s (%s) enqueued", id, opType)
	return id, nil
}

// Cancel requests cancellation of a queued or running operation.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, exists := q.operations[id]
	if !exists {
		return fmt.Errorf("operation %s not found", id)
	}
	op.Cancel()

	q.updateStatus(id, func(rec *database.Operation) {
		rec.Status = "canceled"
		rec.Message = "operation canceled by user"
		now := time.Now().UTC()
		rec.FinishedAt = &now
	})

	log.Printf("Operation %s canceled", id)
	return nil
}

// GetStatus returns the persisted record of an operation.
func (q *Queue) GetStatus(id string) (*database.Operation, error) {
	if q.store == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	return q.store.GetOperation(id)
}

// ActiveOperation is lightweight info about an in-flight operation.
type ActiveOperation struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ActiveOperations returns a snapshot of queued and running operations.
func (q *Queue) ActiveOperations() []ActiveOperation {
	if q == nil {
		return []ActiveOperation{}
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	results := make([]ActiveOperation, 0, len(q.operations))
	for id, op := range q.operations {
		results = append(results, ActiveOperation{ID: id, Type: op.Type})
	}
	return results
}

// updateStatus loads, mutates, and re-saves an operation record.
func (q *Queue) updateStatus(id string, mutate func(*database.Operation)) {
	if q.store == nil {
		return
	}
	rec, err := q.store.GetOperation(id)
	if err != nil || rec == nil {
		return
	}
	mutate(rec)
	if err := q.store.SaveOperation(rec); err != nil {
		log.Printf("Warning: could not update operation %s: %v", id, err)
	}
}

// worker processes operations from the queue.
func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case op := <-q.pending:
			if op == nil {
				continue
			}
			q.run(op)
		}
	}
}

// run executes one operation and records its outcome.
func (q *Queue) run(op *QueuedOperation) {
	start := time.Now()
	metrics.IncOperationStarted(op.Type)

	q.updateStatus(op.ID, func(rec *database.Operation) {
		rec.Status = "running"
		rec.Message = "operation started"
		now := time.Now().UTC()
		rec.StartedAt = &now
	})
	if realtime.GlobalHub != nil {
		realtime.GlobalHub.SendOperationStatus(op.ID, "running", nil)
	}

	reporter := &progressReporter{operationID: op.ID, queue: q}
	err := op.Func(op.Context, reporter)

	now := time.Now().UTC()
	switch {
	case op.Context.Err() != nil || reporter.canceled:
		metrics.IncOperationCanceled(op.Type)
		q.updateStatus(op.ID, func(rec *database.Operation) {
			rec.Status = "canceled"
			rec.FinishedAt = &now
		})
		if realtime.GlobalHub != nil {
			realtime.GlobalHub.SendOperationStatus(op.ID, "canceled", nil)
		}
		log.Printf("Operation %s was canceled", op.ID)
	case err != nil:
		metrics.IncOperationFailed(op.Type)
		q.updateStatus(op.ID, func(rec *database.Operation) {
			rec.Status = "failed"
			rec.Error = err.Error()
			rec.FinishedAt = &now
		})
		if realtime.GlobalHub != nil {
			realtime.GlobalHub.SendOperationStatus(op.ID, "failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		log.Printf("Operation %s failed: %v", op.ID, err)
	default:
		metrics.IncOperationCompleted(op.Type)
		q.updateStatus(op.ID, func(rec *database.Operation) {
			rec.Status = "completed"
			rec.Message = "operation completed"
			rec.Progress = reporter.current
			rec.Total = reporter.total
			rec.FinishedAt = &now
		})
		if realtime.GlobalHub != nil {
			realtime.GlobalHub.SendOperationStatus(op.ID, "completed", map[string]interface{}{
				"current": reporter.current,
				"total":   reporter.total,
			})
		}
		log.Printf("Operation %s completed", op.ID)
	}

	metrics.ObserveOperationDuration(op.Type, time.Since(start))

	q.mu.Lock()
	delete(q.operations, op.ID)
	q.mu.Unlock()
}

// Shutdown cancels in-flight operations and waits for the workers.
func (q *Queue) Shutdown(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}

// progressReporter implements ProgressReporter.
type progressReporter struct {
	operationID string
	queue       *Queue
	current     int
	total       int
	canceled    bool
}

func (r *progressReporter) UpdateProgress(current, total int, message string) error {
	r.current = current
	r.total = total

	r.queue.updateStatus(r.operationID, func(rec *database.Operation) {
		rec.Progress = current
		rec.Total = total
		rec.Message = message
	})

	if realtime.GlobalHub != nil {
		realtime.GlobalHub.SendOperationProgress(r.operationID, current, total, message)
	}
	return nil
}

func (r *progressReporter) Log(level, message string) error {
	if r.queue.store != nil {
		entry := &database.OperationLog{
			OperationID: r.operationID,
			Level:       level,
			Message:     message,
			Timestamp:   time.Now().UTC(),
		}
		if err := r.queue.store.AppendOperationLog(entry); err != nil {
			return err
		}
	}
	if realtime.GlobalHub != nil {
		realtime.GlobalHub.SendOperationLog(r.operationID, level, message)
	}
	return nil
}

func (r *progressReporter) IsCanceled() bool {
	if r.canceled {
		return true
	}
	if r.queue.store != nil {
		rec, err := r.queue.store.GetOperation(r.operationID)
		if err == nil && rec != nil && rec.Status == "canceled" {
			r.canceled = true
		}
	}
	return r.canceled
}

// GlobalQueue is the process-wide operation queue.
var GlobalQueue *Queue

// InitializeQueue initializes the global operation queue.
func InitializeQueue(store database.Store, workers int) {
	if GlobalQueue != nil {
		return
	}
	GlobalQueue = NewQueue(store, workers)
	log.Printf("Operation queue initialized with %d workers", workers)
}

// ShutdownQueue shuts down the global operation queue.
func ShutdownQueue(timeout time.Duration) error {
	if GlobalQueue == nil {
		return nil
	}
	err := GlobalQueue.Shutdown(timeout)
	GlobalQueue = nil
	return err
}
