// file: internal/server/server.go
// version: 1.4.0
// guid: 0a3b6c9d-2e5f-4a8b-9c1d-4e7f0a3b6c9d

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidybooks/tidybooks/internal/ai"
	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/importer"
	"github.com/tidybooks/tidybooks/internal/library"
	"github.com/tidybooks/tidybooks/internal/metadata"
	"github.com/tidybooks/tidybooks/internal/metrics"
	"github.com/tidybooks/tidybooks/internal/models"
	"github.com/tidybooks/tidybooks/internal/realtime"
	"github.com/tidybooks/tidybooks/internal/scanner"
	"github.com/tidybooks/tidybooks/internal/server/middleware"
	"github.com/tidybooks/tidybooks/internal/tagger"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine

	store     database.Store
	index     *library.Index
	scanner   *scanner.Scanner
	importer  *importer.Importer
	tagger    *tagger.Tagger
	assembler *metadata.Assembler
	parser    *ai.OpenAIParser

	// Candidates from the most recent scan, keyed by ID, plus scan order.
	mu             sync.RWMutex
	candidates     map[string]*models.Candidate
	candidateOrder []string
	lastScan       time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new server instance wired to the global store and
// the application configuration.
func NewServer(store database.Store) *Server {
	router := gin.Default()

	router.Use(corsMiddleware())
	router.Use(middleware.BasicAuth())
	router.Use(middleware.MaxRequestBodySize(4 << 20))

	limiter := middleware.NewIPRateLimiter(config.AppConfig.RateLimitPerMin, config.AppConfig.RateLimitPerMin/6+1)
	router.Use(limiter.Middleware())

	// Register metrics (idempotent)
	metrics.Register()

	idx := library.NewIndex(config.AppConfig.LibraryDir, 5*time.Minute)

	server := &Server{
		router:     router,
		store:      store,
		index:      idx,
		scanner:    scanner.New(config.AppConfig.DownloadsDir, idx, store),
		importer:   importer.New(&config.AppConfig, store, idx),
		tagger:     tagger.New(store),
		assembler:  buildAssembler(),
		parser:     ai.NewOpenAIParser(config.AppConfig.OpenAIAPIKey, config.AppConfig.EnableAIParsing),
		candidates: make(map[string]*models.Candidate),
	}

	server.setupRoutes()

	return server
}

// buildAssembler assembles the configured metadata providers in priority
// order: Google Books first, then Open Library.
func buildAssembler() *metadata.Assembler {
	var sources []metadata.MetadataSource
	if config.AppConfig.EnableGoogleBooks {
		sources = append(sources, metadata.NewGoogleBooksClient())
	}
	if config.AppConfig.EnableOpenLibrary {
		sources = append(sources, metadata.NewOpenLibraryClient())
	}
	if config.AppConfig.EnableAudnexus {
		sources = append(sources, metadata.NewAudnexusClient())
	}
	return metadata.NewAssembler(sources...)
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM.
func (s *Server) Start(cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Heartbeat: push periodic system status via SSE and refresh gauges.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.heartbeat()
			case <-quit:
				return
			}
		}
	}()

	<-quit

	log.Println("Shutting down server...")

	if realtime.GlobalHub != nil {
		realtime.GlobalHub.Broadcast(&realtime.Event{
			Type: "system.shutdown",
			Data: map[string]interface{}{
				"message": "Server is shutting down",
			},
		})
		// Give clients a moment to receive the event
		time.Sleep(500 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}

func (s *Server) heartbeat() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	historyCount := 0
	if s.store != nil {
		if hc, err := s.store.CountHistory(); err == nil {
			historyCount = hc
		}
	}
	libraryCount := 0
	if entries, err := s.index.Entries(); err == nil {
		libraryCount = len(entries)
	}

	metrics.SetHistoryEntries(historyCount)
	metrics.SetLibraryEntries(libraryCount)

	s.mu.RLock()
	byStatus := make(map[models.Status]int)
	for _, cand := range s.candidates {
		byStatus[cand.Status]++
	}
	candidateCount := len(s.candidates)
	s.mu.RUnlock()
	for status, n := range byStatus {
		metrics.SetCandidates(string(status), n)
	}

	if realtime.GlobalHub != nil {
		realtime.GlobalHub.Broadcast(&realtime.Event{
			Type: "system.status",
			Data: map[string]interface{}{
				"candidates":      candidateCount,
				"library_entries": libraryCount,
				"history_entries": historyCount,
				"memory_alloc":    mem.Alloc,
				"goroutines":      runtime.NumGoroutine(),
				"timestamp":       time.Now().Unix(),
			},
		})
	}
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint (both paths for compatibility)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/v1/health", s.healthCheck)

	// Real-time events (SSE, both paths for compatibility)
	s.router.GET("/api/events", s.handleEvents)
	s.router.GET("/api/v1/events", s.handleEvents)

	// Redirect /api/* to /api/v1/* for v1 compatibility
	s.router.Use(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") &&
			!strings.HasPrefix(path, "/api/v1/") &&
			!strings.HasPrefix(path, "/api/health") &&
			!strings.HasPrefix(path, "/api/events") {
			newPath := strings.Replace(path, "/api/", "/api/v1/", 1)
			c.Redirect(http.StatusMovedPermanently, newPath)
			c.Abort()
			return
		}
		c.Next()
	})

	api := s.router.Group("/api/v1")
	{
		// Candidate routes
		api.GET("/candidates", s.listCandidates)
		api.GET("/candidates/:id", s.getCandidate)
		api.GET("/candidates/:id/matches", s.getCandidateMatches)
		api.POST("/candidates/:id/rescan", s.rescanCandidate)
		api.POST("/candidates/:id/fetch-metadata", s.fetchCandidateMetadata)

		// Bundle routes
		api.GET("/bundles", s.listBundles)
		api.POST("/bundles", s.createBundle)
		api.DELETE("/bundles/:id", s.deleteBundle)

		// File system routes
		api.GET("/filesystem/browse", s.browseFilesystem)
		api.POST("/filesystem/exclude", s.createExclusion)
		api.DELETE("/filesystem/exclude", s.removeExclusion)

		// Operation routes
		api.POST("/operations/scan", s.startScan)
		api.POST("/operations/import", s.startImport)
		api.POST("/operations/tag", s.startTag)
		api.GET("/operations", s.listOperations)
		api.GET("/operations/active", s.listActiveOperations)
		api.GET("/operations/:id/status", s.getOperationStatus)
		api.GET("/operations/:id/logs", s.getOperationLogs)
		api.DELETE("/operations/:id", s.cancelOperation)

		// History routes
		api.GET("/history", s.listHistory)
		api.GET("/history/:id", s.getHistoryEntry)
		api.DELETE("/history/:id", s.deleteHistoryEntry)

		// Library routes
		api.GET("/library", s.listLibrary)
		api.POST("/library/refresh", s.refreshLibrary)

		// Metadata routes
		api.GET("/metadata/search", s.searchMetadata)

		// AI-powered parsing routes
		api.POST("/ai/parse-name", s.parseNameWithAI)
		api.POST("/ai/test-connection", s.testAIConnection)

		// System routes
		api.GET("/dashboard", s.getDashboard)
		api.GET("/config", s.getConfig)
		api.PUT("/config", s.updateConfig)
	}
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         config.AppConfig.ServerPort,
		Host:         config.AppConfig.ServerHost,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	historyCount := 0
	var dbErr error
	if s.store != nil {
		if hc, err := s.store.CountHistory(); err == nil {
			historyCount = hc
		} else {
			dbErr = err
		}
	}

	s.mu.RLock()
	candidateCount := len(s.candidates)
	s.mu.RUnlock()

	resp := gin.H{
		"status":        "ok",
		"timestamp":     time.Now().Unix(),
		"version":       "1.0.0",
		"database_type": config.AppConfig.DatabaseType,
		"metrics": gin.H{
			"candidates": candidateCount,
			"history":    historyCount,
		},
	}
	if dbErr != nil {
		resp["partial_error"] = dbErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEvents(c *gin.Context) {
	if realtime.GlobalHub == nil {
		RespondWithServiceUnavailable(c, "event hub not initialized")
		return
	}
	realtime.GlobalHub.HandleSSE(c)
}

// setCandidates replaces the cached scan results.
func (s *Server) setCandidates(cands []models.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = make(map[string]*models.Candidate, len(cands))
	s.candidateOrder = s.candidateOrder[:0]
	for i := range cands {
		cand := cands[i]
		s.candidates[cand.ID] = &cand
		s.candidateOrder = append(s.candidateOrder, cand.ID)
	}
	s.lastScan = time.Now()
}

// snapshotCandidates returns the cached candidates in scan order.
func (s *Server) snapshotCandidates() []models.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Candidate, 0, len(s.candidateOrder))
	for _, id := range s.candidateOrder {
		if cand, ok := s.candidates[id]; ok {
			out = append(out, *cand)
		}
	}
	return out
}

func (s *Server) lookupCandidate(id string) (*models.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cand, ok := s.candidates[id]
	if !ok {
		return nil, false
	}
	copied := *cand
	return &copied, true
}
