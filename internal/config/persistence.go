// file: internal/config/persistence.go
// version: 1.2.0
// guid: 9c8d7e6f-5a4b-3c2d-1e0f-9a8b7c6d5e4f

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFilePath returns the path to the YAML config file next to the
// database, falling back to the library root.
func ConfigFilePath() string {
	if AppConfig.DatabasePath != "" {
		return filepath.Join(filepath.Dir(AppConfig.DatabasePath), "config.yaml")
	}
	if AppConfig.LibraryDir != "" {
		return filepath.Join(AppConfig.LibraryDir, "config.yaml")
	}
	return ""
}

// LoadConfigFromFile fills in settings from the YAML config file. File values
// only fill gaps left by flags and environment, never override them.
func LoadConfigFromFile() error {
	path := ConfigFilePath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig map[string]any
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		log.Printf("Warning: Failed to parse config file %s: %v", path, err)
		return nil
	}

	stringFallbacks := map[string]*string{
		"downloads_dir":        &AppConfig.DownloadsDir,
		"library_dir":          &AppConfig.LibraryDir,
		"openai_api_key":       &AppConfig.OpenAIAPIKey,
		"basic_auth_user":      &AppConfig.BasicAuthUser,
		"basic_auth_pass_hash": &AppConfig.BasicAuthPassHash,
	}
	for key, ptr := range stringFallbacks {
		if *ptr == "" {
			if val, ok := fileConfig[key].(string); ok && val != "" {
				*ptr = val
				log.Printf("[INFO] Loaded %s from config file", key)
			}
		}
	}

	boolFallbacks := map[string]*bool{
		"enable_ai_parsing":  &AppConfig.EnableAIParsing,
		"basic_auth_enabled": &AppConfig.BasicAuthEnabled,
		"watch_downloads":    &AppConfig.WatchDownloads,
	}
	for key, ptr := range boolFallbacks {
		if !*ptr {
			if val, ok := fileConfig[key].(bool); ok && val {
				*ptr = true
			}
		}
	}

	// UI-managed settings are owned by the file once saved; flags and env
	// never set these, so applying them unconditionally is safe.
	uiStrings := map[string]*string{
		"folder_naming_pattern": &AppConfig.FolderNamingPattern,
		"file_naming_pattern":   &AppConfig.FileNamingPattern,
		"organize_strategy":     &AppConfig.OrganizeStrategy,
	}
	for key, ptr := range uiStrings {
		if val, ok := fileConfig[key].(string); ok && val != "" {
			*ptr = val
		}
	}
	uiBools := map[string]*bool{
		"verify_checksums":    &AppConfig.VerifyChecksums,
		"enable_google_books": &AppConfig.EnableGoogleBooks,
		"enable_open_library": &AppConfig.EnableOpenLibrary,
		"enable_audnexus":     &AppConfig.EnableAudnexus,
		"download_covers":     &AppConfig.DownloadCovers,
	}
	for key, ptr := range uiBools {
		if val, ok := fileConfig[key].(bool); ok {
			*ptr = val
		}
	}
	if val, ok := fileConfig["min_match_score"].(int); ok && val > 0 {
		AppConfig.MinMatchScore = val
	}

	return nil
}

// SaveConfigToFile persists runtime-editable settings to the YAML config
// file so web UI edits survive a restart.
func SaveConfigToFile() error {
	path := ConfigFilePath()
	if path == "" {
		return fmt.Errorf("no config file location configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := map[string]any{
		"downloads_dir":         AppConfig.DownloadsDir,
		"library_dir":           AppConfig.LibraryDir,
		"folder_naming_pattern": AppConfig.FolderNamingPattern,
		"file_naming_pattern":   AppConfig.FileNamingPattern,
		"organize_strategy":     AppConfig.OrganizeStrategy,
		"verify_checksums":      AppConfig.VerifyChecksums,
		"min_match_score":       AppConfig.MinMatchScore,
		"enable_google_books":   AppConfig.EnableGoogleBooks,
		"enable_open_library":   AppConfig.EnableOpenLibrary,
		"enable_audnexus":       AppConfig.EnableAudnexus,
		"download_covers":       AppConfig.DownloadCovers,
		"enable_ai_parsing":     AppConfig.EnableAIParsing,
		"watch_downloads":       AppConfig.WatchDownloads,
		"basic_auth_enabled":    AppConfig.BasicAuthEnabled,
		"basic_auth_user":       AppConfig.BasicAuthUser,
		"basic_auth_pass_hash":  AppConfig.BasicAuthPassHash,
	}
	if AppConfig.OpenAIAPIKey != "" {
		out["openai_api_key"] = AppConfig.OpenAIAPIKey
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
