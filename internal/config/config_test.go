// file: internal/config/config_test.go
// version: 1.2.0
// guid: 8d9e0f1a-2b3c-4d5e-6f7a-8b9c0d1e2f3a

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestInitConfigDefaults(t *testing.T) {
	resetViper(t)
	InitConfig()

	if AppConfig.DatabaseType != "pebble" {
		t.Errorf("default database type = %q, want pebble", AppConfig.DatabaseType)
	}
	if !AppConfig.IsSupportedExtension(".m4b") {
		t.Error(".m4b should be supported by default")
	}
	if AppConfig.IsSupportedExtension(".txt") {
		t.Error(".txt should not be supported")
	}
	if AppConfig.MinMatchScore != 70 {
		t.Errorf("default min match score = %d, want 70", AppConfig.MinMatchScore)
	}
	if AppConfig.OrganizeStrategy != "copy" {
		t.Errorf("default organize strategy = %q, want copy", AppConfig.OrganizeStrategy)
	}
}

func TestInitConfigNormalizesSQLite(t *testing.T) {
	resetViper(t)
	viper.Set("database_type", "sqlite3")
	InitConfig()
	if AppConfig.DatabaseType != "sqlite" {
		t.Errorf("database type = %q, want sqlite", AppConfig.DatabaseType)
	}
}

func TestSaveAndLoadConfigFile(t *testing.T) {
	resetViper(t)
	InitConfig()

	dir := t.TempDir()
	AppConfig.DatabasePath = filepath.Join(dir, "tidybooks.db")
	AppConfig.DownloadsDir = "/downloads"
	AppConfig.LibraryDir = "/library"
	AppConfig.EnableAIParsing = true

	if err := SaveConfigToFile(); err != nil {
		t.Fatalf("SaveConfigToFile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// Clear and reload: file values fill the gaps.
	AppConfig.DownloadsDir = ""
	AppConfig.EnableAIParsing = false
	if err := LoadConfigFromFile(); err != nil {
		t.Fatalf("LoadConfigFromFile: %v", err)
	}
	if AppConfig.DownloadsDir != "/downloads" {
		t.Errorf("downloads_dir = %q after reload", AppConfig.DownloadsDir)
	}
	if !AppConfig.EnableAIParsing {
		t.Error("enable_ai_parsing not restored from file")
	}
}

func TestLoadConfigFileRestoresUISettings(t *testing.T) {
	resetViper(t)
	InitConfig()

	dir := t.TempDir()
	AppConfig.DatabasePath = filepath.Join(dir, "tidybooks.db")
	AppConfig.MinMatchScore = 85
	AppConfig.OrganizeStrategy = "hardlink"
	AppConfig.EnableOpenLibrary = false
	if err := SaveConfigToFile(); err != nil {
		t.Fatal(err)
	}

	// Simulate a restart with viper defaults back in place.
	AppConfig.MinMatchScore = 70
	AppConfig.OrganizeStrategy = "copy"
	AppConfig.EnableOpenLibrary = true
	if err := LoadConfigFromFile(); err != nil {
		t.Fatal(err)
	}
	if AppConfig.MinMatchScore != 85 {
		t.Errorf("min_match_score = %d after reload, want 85", AppConfig.MinMatchScore)
	}
	if AppConfig.OrganizeStrategy != "hardlink" {
		t.Errorf("organize_strategy = %q after reload", AppConfig.OrganizeStrategy)
	}
	if AppConfig.EnableOpenLibrary {
		t.Error("enable_open_library should be restored to false")
	}
}

func TestLoadConfigFileDoesNotOverride(t *testing.T) {
	resetViper(t)
	InitConfig()

	dir := t.TempDir()
	AppConfig.DatabasePath = filepath.Join(dir, "tidybooks.db")
	AppConfig.DownloadsDir = "/from-file"
	if err := SaveConfigToFile(); err != nil {
		t.Fatal(err)
	}

	AppConfig.DownloadsDir = "/from-flag"
	if err := LoadConfigFromFile(); err != nil {
		t.Fatal(err)
	}
	if AppConfig.DownloadsDir != "/from-flag" {
		t.Errorf("file value overrode flag value: %q", AppConfig.DownloadsDir)
	}
}
