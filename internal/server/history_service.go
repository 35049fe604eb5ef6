// file: internal/server/history_service.go
// version: 1.0.0
// guid: 8e1f4a7b-0c3d-4e6f-a9b2-c5d8e1f4a7b0

package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// listHistory pages through the processed-history log, newest first.
func (s *Server) listHistory(c *gin.Context) {
	limit := 50
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			RespondWithValidationError(c, "limit", "must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			RespondWithValidationError(c, "offset", "must be a non-negative integer")
			return
		}
		offset = parsed
	}

	entries, err := s.store.ListHistory(limit, offset)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("list history: %v", err))
		return
	}
	total, err := s.store.CountHistory()
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("count history: %v", err))
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:  entries,
		Count:  len(entries),
		Limit:  limit,
		Offset: offset,
		Total:  total,
	})
}

func (s *Server) getHistoryEntry(c *gin.Context) {
	entry, err := s.store.GetHistoryEntry(c.Param("id"))
	if err != nil {
		RespondWithNotFound(c, "history entry", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, ItemResponse{Data: entry})
}

// deleteHistoryEntry forgets one import. The next scan reclassifies the
// matching candidate as new or matched; library files are untouched.
func (s *Server) deleteHistoryEntry(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.store.GetHistoryEntry(id); err != nil {
		RespondWithNotFound(c, "history entry", id)
		return
	}
	if err := s.store.DeleteHistoryEntry(id); err != nil {
		RespondWithInternalError(c, fmt.Sprintf("delete history entry: %v", err))
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Deleted: true, ID: id})
}
