// file: internal/server/filesystem_service.go
// version: 1.1.0
// guid: 4c7d0e3f-6a9b-4c2d-8e5f-0a3b6c9d2e5f

package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/models"
	"github.com/tidybooks/tidybooks/internal/scanner"
)

// ExclusionRequest marks a downloads directory to be skipped by scans.
type ExclusionRequest struct {
	Path string `json:"path" binding:"required"`
}

// browseFilesystem lists one level of the downloads tree. The path query
// parameter is relative to the downloads directory; empty means the root.
// Escaping the downloads directory is rejected.
func (s *Server) browseFilesystem(c *gin.Context) {
	dir, err := requireDir(config.AppConfig.DownloadsDir, c.DefaultQuery("path", "."))
	if err != nil {
		RespondWithValidationError(c, "path", err.Error())
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("read directory: %v", err))
		return
	}

	items := make([]models.FileSystemItem, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		item := models.FileSystemItem{
			Name:    name,
			Path:    filepath.Join(dir, name),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
		}
		if entry.IsDir() {
			if _, err := os.Stat(filepath.Join(item.Path, scanner.ExcludeMarker)); err == nil {
				item.Excluded = true
			}
		} else {
			item.Size = info.Size()
		}
		items = append(items, item)
	}

	// Directories first, then lexicographic.
	sort.Slice(items, func(i, j int) bool {
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return items[i].Name < items[j].Name
	})

	c.JSON(http.StatusOK, gin.H{
		"path":  dir,
		"items": items,
		"count": len(items),
	})
}

// createExclusion drops an exclusion marker into the given directory so
// future scans skip it.
func (s *Server) createExclusion(c *gin.Context) {
	var req ExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dir, err := requireDir(config.AppConfig.DownloadsDir, req.Path)
	if err != nil {
		RespondWithValidationError(c, "path", err.Error())
		return
	}

	if err := scanner.Exclude(dir); err != nil {
		RespondWithInternalError(c, fmt.Sprintf("exclude: %v", err))
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "excluded " + dir})
}

// removeExclusion deletes the exclusion marker. The path comes from the
// query string since DELETE bodies are unreliable across proxies.
func (s *Server) removeExclusion(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		RespondWithValidationError(c, "path", "query parameter required")
		return
	}

	dir, err := requireDir(config.AppConfig.DownloadsDir, path)
	if err != nil {
		RespondWithValidationError(c, "path", err.Error())
		return
	}

	if err := scanner.Include(dir); err != nil {
		RespondWithInternalError(c, fmt.Sprintf("include: %v", err))
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "included " + dir})
}
