// file: internal/metrics/metrics_test.go
// version: 1.0.0
// guid: 9f0a1b2c-3d4e-5f6a-7b8c-9d0e1f2a3b4c

package metrics

import (
	"testing"
	"time"
)

func TestRegisterIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestOperationLifecycle(t *testing.T) {
	opType := "test_lifecycle"
	IncOperationStarted(opType)
	start := time.Now()
	time.Sleep(10 * time.Millisecond)
	ObserveOperationDuration(opType, time.Since(start))
	IncOperationCompleted(opType)
	IncOperationFailed(opType)
	IncOperationCanceled(opType)
}

func TestImportCounters(t *testing.T) {
	AddFilesImported(3)
	AddBytesImported(1024 * 1024)
}

func TestGauges(t *testing.T) {
	SetCandidates("new", 12)
	SetCandidates("imported", 4)
	SetLibraryEntries(100)
	SetHistoryEntries(42)
}
