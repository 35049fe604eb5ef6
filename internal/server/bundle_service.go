// file: internal/server/bundle_service.go
// version: 1.1.0
// guid: 0e3f6a9b-2c5d-4e8f-a1b4-c7d0e3f6a9b2

package server

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/models"
)

// BundleRequest groups multiple download paths into one logical candidate.
type BundleRequest struct {
	Name  string   `json:"name" binding:"required"`
	Paths []string `json:"paths" binding:"required"`
}

func (s *Server) listBundles(c *gin.Context) {
	bundles, err := s.store.ListBundles()
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("list bundles: %v", err))
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: bundles, Count: len(bundles)})
}

// createBundle persists a manual bundle. Members must live inside the
// downloads directory; the bundle survives rescans and is folded into one
// candidate by the scanner.
func (s *Server) createBundle(c *gin.Context) {
	var req BundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Paths) < 2 {
		RespondWithValidationError(c, "paths", "a bundle needs at least two members")
		return
	}

	resolved := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		abs, err := resolveUnderRoot(config.AppConfig.DownloadsDir, p)
		if err != nil {
			RespondWithValidationError(c, "paths", err.Error())
			return
		}
		if _, err := os.Stat(abs); err != nil {
			RespondWithValidationError(c, "paths", fmt.Sprintf("not accessible: %s", p))
			return
		}
		resolved = append(resolved, abs)
	}

	bundle, err := s.store.CreateBundle(&models.Bundle{
		Name:  req.Name,
		Paths: resolved,
	})
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("create bundle: %v", err))
		return
	}

	c.JSON(http.StatusCreated, CreateResponse{ID: bundle.ID, Data: bundle})
}

func (s *Server) deleteBundle(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.store.GetBundle(id); err != nil {
		RespondWithNotFound(c, "bundle", id)
		return
	}
	if err := s.store.DeleteBundle(id); err != nil {
		RespondWithInternalError(c, fmt.Sprintf("delete bundle: %v", err))
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Deleted: true, ID: id})
}
