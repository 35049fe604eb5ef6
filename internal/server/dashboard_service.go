// file: internal/server/dashboard_service.go
// version: 1.1.0
// guid: 0c3d6e9f-2a5b-4c8d-a1e4-f7a0b3c6d9e2

package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/models"
)

// Cached tree sizes to avoid walking both directory trees on every
// dashboard poll.
var (
	sizeCacheMu         sync.RWMutex
	cachedDownloadsSize int64
	cachedLibrarySize   int64
	sizeCacheComputedAt time.Time
)

const sizeCacheTTL = 60 * time.Second

// resetSizeCache resets the tree size cache (for testing)
func resetSizeCache() {
	sizeCacheMu.Lock()
	defer sizeCacheMu.Unlock()
	cachedDownloadsSize = 0
	cachedLibrarySize = 0
	sizeCacheComputedAt = time.Time{}
}

func treeSize(root string) int64 {
	if root == "" {
		return 0
	}
	var total int64
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

func calculateTreeSizes() (downloads, library int64) {
	sizeCacheMu.RLock()
	if time.Since(sizeCacheComputedAt) < sizeCacheTTL {
		downloads = cachedDownloadsSize
		library = cachedLibrarySize
		sizeCacheMu.RUnlock()
		return
	}
	sizeCacheMu.RUnlock()

	sizeCacheMu.Lock()
	defer sizeCacheMu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Since(sizeCacheComputedAt) < sizeCacheTTL {
		return cachedDownloadsSize, cachedLibrarySize
	}

	cachedDownloadsSize = treeSize(config.AppConfig.DownloadsDir)
	cachedLibrarySize = treeSize(config.AppConfig.LibraryDir)
	sizeCacheComputedAt = time.Now()
	return cachedDownloadsSize, cachedLibrarySize
}

// getDashboard summarizes the downloads and library state for the UI.
func (s *Server) getDashboard(c *gin.Context) {
	stats := models.DashboardStats{}

	for _, cand := range s.snapshotCandidates() {
		stats.Candidates++
		switch cand.Status {
		case models.StatusNew:
			stats.NewCandidates++
		case models.StatusMatched, models.StatusTagged:
			stats.Matched++
		case models.StatusImported:
			stats.Imported++
		}
	}

	entries, err := s.index.Entries()
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("library index: %v", err))
		return
	}
	stats.LibraryEntries = len(entries)

	if count, err := s.store.CountHistory(); err == nil {
		stats.HistoryEntries = count
	}

	stats.DownloadsBytes, stats.LibraryBytes = calculateTreeSizes()

	c.JSON(http.StatusOK, ItemResponse{Data: stats})
}
