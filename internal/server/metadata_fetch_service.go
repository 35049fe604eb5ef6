// file: internal/server/metadata_fetch_service.go
// version: 1.1.0
// guid: 6a9b2c5d-8e1f-4a4b-b7c0-d3e6f9a2b5c8

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ParseNameRequest asks the AI parser to break a release name into fields.
type ParseNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// searchMetadata queries every enabled provider and returns the raw results
// so the user can pick, rather than the merged best guess imports use.
func (s *Server) searchMetadata(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		RespondWithValidationError(c, "title", "query parameter required")
		return
	}
	author := c.Query("author")

	results, err := s.assembler.Search(c.Request.Context(), title, author)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("metadata search: %v", err))
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: results, Count: len(results)})
}

// fetchCandidateMetadata resolves one candidate to merged provider
// metadata without importing it. The AI parser cleans up the name first
// when enabled.
func (s *Server) fetchCandidateMetadata(c *gin.Context) {
	cand, ok := s.lookupCandidate(c.Param("id"))
	if !ok {
		RespondWithNotFound(c, "candidate", c.Param("id"))
		return
	}

	s.enrichCandidateWithAI(c.Request.Context(), cand)

	title := cand.Title
	if title == "" {
		title = cand.Name
	}
	meta, err := s.assembler.Lookup(c.Request.Context(), title, cand.Author)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("metadata lookup: %v", err))
		return
	}
	if meta == nil {
		RespondWithNotFound(c, "metadata for candidate", cand.Name)
		return
	}

	c.JSON(http.StatusOK, ItemResponse{Data: meta})
}

func (s *Server) parseNameWithAI(c *gin.Context) {
	if s.parser == nil || !s.parser.IsEnabled() {
		RespondWithServiceUnavailable(c, "AI parsing is not enabled")
		return
	}

	var req ParseNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	parsed, err := s.parser.ParseName(c.Request.Context(), req.Name)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("parse name: %v", err))
		return
	}
	c.JSON(http.StatusOK, ItemResponse{Data: parsed})
}

func (s *Server) testAIConnection(c *gin.Context) {
	if s.parser == nil || !s.parser.IsEnabled() {
		RespondWithServiceUnavailable(c, "AI parsing is not enabled")
		return
	}

	if err := s.parser.TestConnection(c.Request.Context()); err != nil {
		RespondWithError(c, http.StatusBadGateway, fmt.Sprintf("connection test failed: %v", err), "UPSTREAM_ERROR")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "connection ok"})
}
