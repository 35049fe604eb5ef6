// file: internal/server/library_service.go
// version: 1.0.0
// guid: 2c5d8e1f-4a7b-4c0d-9e3f-6a9b2c5d8e1f

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/realtime"
)

// listLibrary returns the cached library index entries.
func (s *Server) listLibrary(c *gin.Context) {
	entries, err := s.index.Entries()
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("library index: %v", err))
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: entries, Count: len(entries)})
}

// refreshLibrary invalidates the index cache and rebuilds it immediately.
func (s *Server) refreshLibrary(c *gin.Context) {
	s.index.Refresh()
	entries, err := s.index.Entries()
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("library index: %v", err))
		return
	}

	if realtime.GlobalHub != nil {
		realtime.GlobalHub.SendLibraryRefreshed(len(entries))
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "library index refreshed",
		"entries": len(entries),
	})
}
