// file: internal/server/config_update_service.go
// version: 1.1.0
// guid: 4e7f0a3b-6c9d-4e2f-85a8-b1c4d7e0f3a6

package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/config"
)

// ConfigUpdateRequest carries the runtime-adjustable settings. Pointer
// fields distinguish "not sent" from zero values.
type ConfigUpdateRequest struct {
	MinMatchScore       *int    `json:"min_match_score,omitempty"`
	ConcurrentScans     *int    `json:"concurrent_scans,omitempty"`
	FolderNamingPattern *string `json:"folder_naming_pattern,omitempty"`
	FileNamingPattern   *string `json:"file_naming_pattern,omitempty"`
	OrganizeStrategy    *string `json:"organize_strategy,omitempty"`
	VerifyChecksums     *bool   `json:"verify_checksums,omitempty"`
	EnableGoogleBooks   *bool   `json:"enable_google_books,omitempty"`
	EnableOpenLibrary   *bool   `json:"enable_open_library,omitempty"`
	EnableAudnexus      *bool   `json:"enable_audnexus,omitempty"`
	DownloadCovers      *bool   `json:"download_covers,omitempty"`
}

// getConfig returns the active configuration with secrets redacted.
func (s *Server) getConfig(c *gin.Context) {
	cfg := config.AppConfig

	c.JSON(http.StatusOK, gin.H{
		"downloads_dir":         cfg.DownloadsDir,
		"library_dir":           cfg.LibraryDir,
		"database_type":         cfg.DatabaseType,
		"supported_extensions":  cfg.SupportedExtensions,
		"concurrent_scans":      cfg.ConcurrentScans,
		"min_match_score":       cfg.MinMatchScore,
		"folder_naming_pattern": cfg.FolderNamingPattern,
		"file_naming_pattern":   cfg.FileNamingPattern,
		"organize_strategy":     cfg.OrganizeStrategy,
		"verify_checksums":      cfg.VerifyChecksums,
		"enable_google_books":   cfg.EnableGoogleBooks,
		"enable_open_library":   cfg.EnableOpenLibrary,
		"enable_audnexus":       cfg.EnableAudnexus,
		"download_covers":       cfg.DownloadCovers,
		"enable_ai_parsing":     cfg.EnableAIParsing,
		"openai_configured":     cfg.OpenAIAPIKey != "",
		"basic_auth_enabled":    cfg.BasicAuthEnabled,
		"watch_downloads":       cfg.WatchDownloads,
	})
}

// updateConfig applies runtime-adjustable settings. Directory paths and
// credentials stay config-file only; restart to change those.
func (s *Server) updateConfig(c *gin.Context) {
	var req ConfigUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if req.MinMatchScore != nil {
		if *req.MinMatchScore < 0 || *req.MinMatchScore > 100 {
			RespondWithValidationError(c, "min_match_score", "must be between 0 and 100")
			return
		}
		config.AppConfig.MinMatchScore = *req.MinMatchScore
	}
	if req.ConcurrentScans != nil {
		if *req.ConcurrentScans < 1 || *req.ConcurrentScans > 32 {
			RespondWithValidationError(c, "concurrent_scans", "must be between 1 and 32")
			return
		}
		config.AppConfig.ConcurrentScans = *req.ConcurrentScans
	}
	if req.OrganizeStrategy != nil {
		switch *req.OrganizeStrategy {
		case "auto", "copy", "hardlink", "reflink", "symlink":
		default:
			RespondWithValidationError(c, "organize_strategy", "must be auto, copy, hardlink, reflink or symlink")
			return
		}
		config.AppConfig.OrganizeStrategy = *req.OrganizeStrategy
	}
	if req.FolderNamingPattern != nil {
		if *req.FolderNamingPattern == "" {
			RespondWithValidationError(c, "folder_naming_pattern", "must not be empty")
			return
		}
		config.AppConfig.FolderNamingPattern = *req.FolderNamingPattern
	}
	if req.FileNamingPattern != nil {
		if *req.FileNamingPattern == "" {
			RespondWithValidationError(c, "file_naming_pattern", "must not be empty")
			return
		}
		config.AppConfig.FileNamingPattern = *req.FileNamingPattern
	}
	if req.VerifyChecksums != nil {
		config.AppConfig.VerifyChecksums = *req.VerifyChecksums
	}
	if req.EnableGoogleBooks != nil {
		config.AppConfig.EnableGoogleBooks = *req.EnableGoogleBooks
	}
	if req.EnableOpenLibrary != nil {
		config.AppConfig.EnableOpenLibrary = *req.EnableOpenLibrary
	}
	if req.EnableAudnexus != nil {
		config.AppConfig.EnableAudnexus = *req.EnableAudnexus
	}
	if req.DownloadCovers != nil {
		config.AppConfig.DownloadCovers = *req.DownloadCovers
	}

	// Provider toggles change the assembler composition.
	if req.EnableGoogleBooks != nil || req.EnableOpenLibrary != nil || req.EnableAudnexus != nil {
		s.assembler = buildAssembler()
	}

	// Persist so UI edits survive a restart; an unwritable file is not fatal.
	if err := config.SaveConfigToFile(); err != nil {
		log.Printf("[WARN] settings applied but not saved: %v", err)
	}

	s.getConfig(c)
}
