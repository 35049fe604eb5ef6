// file: internal/server/import_service.go
// version: 1.2.0
// guid: 2e5f8a1b-4c7d-4e0f-a3b6-c9d2e5f8a1b4

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/metadata"
	"github.com/tidybooks/tidybooks/internal/metrics"
	"github.com/tidybooks/tidybooks/internal/models"
	"github.com/tidybooks/tidybooks/internal/operations"
	"github.com/tidybooks/tidybooks/internal/realtime"
)

// ImportRequest selects candidates to copy into the library.
type ImportRequest struct {
	CandidateIDs  []string `json:"candidate_ids" binding:"required"`
	FetchMetadata bool     `json:"fetch_metadata"`
	WriteTags     bool     `json:"write_tags"`
}

// TagRequest selects processed-history entries to (re)tag.
type TagRequest struct {
	HistoryIDs []string `json:"history_ids" binding:"required"`
}

// startImport enqueues a background import of the selected candidates.
// Copies never overwrite existing library files; collisions are skipped
// and reported through the operation log.
func (s *Server) startImport(c *gin.Context) {
	if operations.GlobalQueue == nil {
		RespondWithServiceUnavailable(c, "operation queue not initialized")
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.CandidateIDs) == 0 {
		RespondWithValidationError(c, "candidate_ids", "must not be empty")
		return
	}

	// Resolve up front so unknown IDs fail the request, not the operation.
	cands := make([]*models.Candidate, 0, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		cand, ok := s.lookupCandidate(id)
		if !ok {
			RespondWithNotFound(c, "candidate", id)
			return
		}
		if cand.Status == models.StatusImported {
			RespondWithConflict(c, fmt.Sprintf("candidate already imported: %s", cand.Name))
			return
		}
		cands = append(cands, cand)
	}

	id, err := operations.GlobalQueue.Enqueue("import", func(ctx context.Context, progress operations.ProgressReporter) error {
		total := len(cands)
		var failed int

		for i, cand := range cands {
			if progress.IsCanceled() {
				return ctx.Err()
			}
			_ = progress.UpdateProgress(i, total, fmt.Sprintf("importing %s", cand.Name))

			if err := s.importOne(ctx, cand, req, progress); err != nil {
				failed++
				_ = progress.Log("error", fmt.Sprintf("%s: %v", cand.Name, err))
				continue
			}

			s.mu.Lock()
			if cached, ok := s.candidates[cand.ID]; ok {
				cached.Status = models.StatusImported
			}
			s.mu.Unlock()
			if realtime.GlobalHub != nil {
				realtime.GlobalHub.SendCandidateUpdated(cand.ID, string(models.StatusImported))
			}
		}

		_ = progress.UpdateProgress(total, total, fmt.Sprintf("imported %d of %d", total-failed, total))
		if failed == total && total > 0 {
			return errors.New("all imports failed")
		}
		return nil
	})
	if err != nil {
		RespondWithServiceUnavailable(c, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, OperationResponse{
		OperationID: id,
		Type:        "import",
		Status:      "queued",
	})
}

func (s *Server) importOne(ctx context.Context, cand *models.Candidate, req ImportRequest, progress operations.ProgressReporter) error {
	var meta *metadata.BookMetadata

	if req.FetchMetadata {
		s.enrichCandidateWithAI(ctx, cand)

		title := cand.Title
		if title == "" {
			title = cand.Name
		}
		found, err := s.assembler.Lookup(ctx, title, cand.Author)
		if err != nil {
			return err
		}
		if found == nil {
			_ = progress.Log("warn", fmt.Sprintf("no metadata found for %s", cand.Name))
		}
		meta = found
	}

	result, err := s.importer.Import(ctx, cand, meta)
	if err != nil {
		return err
	}

	for _, skipped := range result.Skipped {
		_ = progress.Log("warn", fmt.Sprintf("already in library, skipped: %s", skipped))
	}
	metrics.AddFilesImported(result.Copied)
	metrics.AddBytesImported(cand.TotalSize)
	_ = progress.Log("info", fmt.Sprintf("placed %d files in %s", result.Copied, result.LibraryPath))

	if req.WriteTags && meta != nil {
		tagResult, err := s.tagger.TagLibraryPath(ctx, result.LibraryPath, *meta)
		if err != nil {
			if errors.Is(err, metadata.ErrTaglibUnavailable) {
				_ = progress.Log("warn", err.Error())
				return nil
			}
			return err
		}
		_ = progress.Log("info", fmt.Sprintf("tagged %d files", tagResult.Tagged))
	}
	return nil
}

// enrichCandidateWithAI fills parsed fields from the AI name parser when
// folder-name parsing came up short. Failures are silent; the heuristic
// parse is always available as a fallback.
func (s *Server) enrichCandidateWithAI(ctx context.Context, cand *models.Candidate) {
	if s.parser == nil || !s.parser.IsEnabled() {
		return
	}
	if cand.Title != "" && cand.Author != "" {
		return
	}

	parsed, err := s.parser.ParseName(ctx, cand.Name)
	if err != nil || parsed == nil || parsed.Confidence == "low" {
		return
	}
	if cand.Title == "" {
		cand.Title = parsed.Title
	}
	if cand.Author == "" {
		cand.Author = parsed.Author
	}
	if cand.Series == "" {
		cand.Series = parsed.Series
		cand.Sequence = parsed.SeriesNum
	}
}

// startTag enqueues metadata fetch plus tag writing for already imported
// history entries.
func (s *Server) startTag(c *gin.Context) {
	if operations.GlobalQueue == nil {
		RespondWithServiceUnavailable(c, "operation queue not initialized")
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.HistoryIDs) == 0 {
		RespondWithValidationError(c, "history_ids", "must not be empty")
		return
	}

	entries := make([]*models.HistoryEntry, 0, len(req.HistoryIDs))
	for _, id := range req.HistoryIDs {
		entry, err := s.store.GetHistoryEntry(id)
		if err != nil {
			RespondWithNotFound(c, "history entry", id)
			return
		}
		entries = append(entries, entry)
	}

	id, err := operations.GlobalQueue.Enqueue("tag", func(ctx context.Context, progress operations.ProgressReporter) error {
		total := len(entries)
		var failed int

		for i, entry := range entries {
			if progress.IsCanceled() {
				return ctx.Err()
			}
			_ = progress.UpdateProgress(i, total, fmt.Sprintf("tagging %s", entry.CandidateName))

			title := entry.Title
			if title == "" {
				title = entry.CandidateName
			}
			meta, err := s.assembler.Lookup(ctx, title, entry.Author)
			if err != nil {
				failed++
				_ = progress.Log("error", fmt.Sprintf("%s: %v", entry.CandidateName, err))
				continue
			}
			if meta == nil {
				failed++
				_ = progress.Log("warn", fmt.Sprintf("no metadata found for %s", entry.CandidateName))
				continue
			}

			if _, err := s.tagger.TagHistoryEntry(ctx, entry, *meta); err != nil {
				if errors.Is(err, metadata.ErrTaglibUnavailable) {
					return err
				}
				failed++
				_ = progress.Log("error", fmt.Sprintf("%s: %v", entry.CandidateName, err))
			}
		}

		_ = progress.UpdateProgress(total, total, fmt.Sprintf("tagged %d of %d", total-failed, total))
		if failed == total && total > 0 {
			return errors.New("all tag passes failed")
		}
		return nil
	})
	if err != nil {
		RespondWithServiceUnavailable(c, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, OperationResponse{
		OperationID: id,
		Type:        "tag",
		Status:      "queued",
	})
}
