// file: internal/server/scan_service.go
// version: 1.1.0
// guid: 6c9d2e5f-8a1b-4c4d-9e7f-0a3b6c9d2e5f

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/models"
	"github.com/tidybooks/tidybooks/internal/operations"
	"github.com/tidybooks/tidybooks/internal/realtime"
)

// listCandidates returns the candidates from the most recent scan, optionally
// filtered by status.
func (s *Server) listCandidates(c *gin.Context) {
	statusFilter := c.Query("status")

	cands := s.snapshotCandidates()
	if statusFilter != "" {
		filtered := cands[:0]
		for _, cand := range cands {
			if string(cand.Status) == statusFilter {
				filtered = append(filtered, cand)
			}
		}
		cands = filtered
	}

	s.mu.RLock()
	lastScan := s.lastScan
	s.mu.RUnlock()

	if lastScan.IsZero() {
		c.JSON(http.StatusOK, gin.H{
			"items":   []models.Candidate{},
			"count":   0,
			"scanned": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     cands,
		"count":     len(cands),
		"scanned":   true,
		"last_scan": lastScan,
	})
}

func (s *Server) getCandidate(c *gin.Context) {
	cand, ok := s.lookupCandidate(c.Param("id"))
	if !ok {
		RespondWithNotFound(c, "candidate", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, ItemResponse{Data: cand})
}

// getCandidateMatches ranks library entries against the candidate name. The
// min_score query parameter defaults to 0 so the UI can show weak matches.
func (s *Server) getCandidateMatches(c *gin.Context) {
	cand, ok := s.lookupCandidate(c.Param("id"))
	if !ok {
		RespondWithNotFound(c, "candidate", c.Param("id"))
		return
	}

	minScore := 0
	if raw := c.Query("min_score"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 100 {
			RespondWithValidationError(c, "min_score", "must be an integer between 0 and 100")
			return
		}
		minScore = parsed
	}

	matches, err := s.index.Match(cand.Name, minScore)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("library match failed: %v", err))
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: matches, Count: len(matches)})
}

// rescanCandidate re-runs status classification for a single candidate,
// picking up library or history changes without a full rescan.
func (s *Server) rescanCandidate(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	cand, ok := s.candidates[id]
	if !ok {
		s.mu.Unlock()
		RespondWithNotFound(c, "candidate", id)
		return
	}
	err := s.scanner.Classify(cand)
	copied := *cand
	s.mu.Unlock()

	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("classify failed: %v", err))
		return
	}

	if realtime.GlobalHub != nil {
		realtime.GlobalHub.SendCandidateUpdated(copied.ID, string(copied.Status))
	}
	c.JSON(http.StatusOK, ItemResponse{Data: copied})
}

// startScan enqueues a full downloads scan as a background operation.
func (s *Server) startScan(c *gin.Context) {
	if operations.GlobalQueue == nil {
		RespondWithServiceUnavailable(c, "operation queue not initialized")
		return
	}

	id, err := s.EnqueueScan()
	if err != nil {
		RespondWithServiceUnavailable(c, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, OperationResponse{
		OperationID: id,
		Type:        "scan",
		Status:      "queued",
	})
}

// EnqueueScan queues a full downloads scan. The downloads watcher calls
// this directly when the tree changes.
func (s *Server) EnqueueScan() (string, error) {
	if operations.GlobalQueue == nil {
		return "", fmt.Errorf("operation queue not initialized")
	}
	return operations.GlobalQueue.Enqueue("scan", func(ctx context.Context, progress operations.ProgressReporter) error {
		_ = progress.Log("info", "scanning downloads directory")

		cands, err := s.scanner.Scan(ctx)
		if err != nil {
			return err
		}
		s.setCandidates(cands)

		byStatus := make(map[models.Status]int)
		for _, cand := range cands {
			byStatus[cand.Status]++
		}
		_ = progress.UpdateProgress(len(cands), len(cands),
			fmt.Sprintf("found %d candidates (%d new, %d matched, %d imported)",
				len(cands), byStatus[models.StatusNew],
				byStatus[models.StatusMatched]+byStatus[models.StatusTagged],
				byStatus[models.StatusImported]))
		return nil
	})
}
