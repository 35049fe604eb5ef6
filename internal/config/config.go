// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	DownloadsDir string
	LibraryDir   string
	DatabasePath string
	DatabaseType string // "pebble" (default) or "sqlite"
	EnableSQLite bool   // Must be true to use SQLite (safety flag)

	SupportedExtensions []string
	ConcurrentScans     int
	MinMatchScore       int

	// Canonical layout patterns
	FolderNamingPattern string
	FileNamingPattern   string
	OrganizeStrategy    string // auto, copy, hardlink, reflink, symlink
	VerifyChecksums     bool

	// Metadata providers
	EnableGoogleBooks bool
	EnableOpenLibrary bool
	EnableAudnexus    bool
	DownloadCovers    bool

	// AI filename parsing
	OpenAIAPIKey    string
	EnableAIParsing bool

	// Server
	ServerHost        string
	ServerPort        string
	BasicAuthEnabled  bool
	BasicAuthUser     string
	BasicAuthPassHash string // bcrypt hash
	RateLimitPerMin   int

	// Downloads watcher
	WatchDownloads bool
}

var AppConfig Config

// InitConfig initializes the application configuration from viper.
func InitConfig() {
	setDefaults()

	AppConfig = Config{
		DownloadsDir: viper.GetString("downloads_dir"),
		LibraryDir:   viper.GetString("library_dir"),
		DatabasePath: viper.GetString("database_path"),
		DatabaseType: viper.GetString("database_type"),
		EnableSQLite: viper.GetBool("enable_sqlite3_i_know_the_risks"),

		SupportedExtensions: viper.GetStringSlice("supported_extensions"),
		ConcurrentScans:     viper.GetInt("concurrent_scans"),
		MinMatchScore:       viper.GetInt("min_match_score"),

		FolderNamingPattern: viper.GetString("folder_naming_pattern"),
		FileNamingPattern:   viper.GetString("file_naming_pattern"),
		OrganizeStrategy:    viper.GetString("organize_strategy"),
		VerifyChecksums:     viper.GetBool("verify_checksums"),

		EnableGoogleBooks: viper.GetBool("enable_google_books"),
		EnableOpenLibrary: viper.GetBool("enable_open_library"),
		EnableAudnexus:    viper.GetBool("enable_audnexus"),
		DownloadCovers:    viper.GetBool("download_covers"),

		OpenAIAPIKey:    viper.GetString("openai_api_key"),
		EnableAIParsing: viper.GetBool("enable_ai_parsing"),

		ServerHost:        viper.GetString("server_host"),
		ServerPort:        viper.GetString("server_port"),
		BasicAuthEnabled:  viper.GetBool("basic_auth_enabled"),
		BasicAuthUser:     viper.GetString("basic_auth_user"),
		BasicAuthPassHash: viper.GetString("basic_auth_pass_hash"),
		RateLimitPerMin:   viper.GetInt("rate_limit_per_min"),

		WatchDownloads: viper.GetBool("watch_downloads"),
	}

	// Normalize database type
	if AppConfig.DatabaseType == "sqlite3" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "pebble"
	}
}

func setDefaults() {
	viper.SetDefault("database_type", "pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("supported_extensions", []string{
		".m4b", ".mp3", ".m4a", ".aac", ".ogg", ".flac", ".wma",
	})
	viper.SetDefault("concurrent_scans", 4)
	viper.SetDefault("min_match_score", 70)
	viper.SetDefault("folder_naming_pattern", "{author}/{series}/{title}")
	viper.SetDefault("file_naming_pattern", "{title}")
	viper.SetDefault("organize_strategy", "copy")
	viper.SetDefault("verify_checksums", true)
	viper.SetDefault("enable_google_books", true)
	viper.SetDefault("enable_open_library", true)
	viper.SetDefault("enable_audnexus", true)
	viper.SetDefault("download_covers", true)
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", "8484")
	viper.SetDefault("rate_limit_per_min", 300)
	viper.SetDefault("watch_downloads", false)
}

// IsSupportedExtension reports whether ext (with leading dot, any case) is a
// configured audio extension.
func (c *Config) IsSupportedExtension(ext string) bool {
	for _, e := range c.SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
