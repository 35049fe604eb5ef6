// file: cmd/root.go
// version: 1.3.0
// guid: 4a7b0c3d-6e9f-4a2b-b5c8-d1e4f7a0b3c6

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/library"
	"github.com/tidybooks/tidybooks/internal/models"
	"github.com/tidybooks/tidybooks/internal/operations"
	"github.com/tidybooks/tidybooks/internal/realtime"
	"github.com/tidybooks/tidybooks/internal/scanner"
	"github.com/tidybooks/tidybooks/internal/server"
	"github.com/tidybooks/tidybooks/internal/watcher"
)

var cfgFile string
var downloadsDir string
var libraryDir string
var databasePath string
var databaseType string
var enableSQLite bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tidybooks",
	Short: "Sort downloaded audiobooks into a tidy library",
	Long: `TidyBooks scans a downloads staging directory for audiobook folders,
compares them against your organized library and the processed-history
log, and copies new books into an Author/Series/Title layout.

Source files are never modified or deleted, and existing library files
are never overwritten.`,
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the downloads directory for audiobook candidates",
	Long:  `Scan the downloads directory and classify each candidate as new, matched, tagged or imported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.AppConfig.DownloadsDir == "" {
			return fmt.Errorf("downloads directory not specified")
		}

		if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		fmt.Printf("Using database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)
		fmt.Printf("Scanning: %s\n", config.AppConfig.DownloadsDir)

		cands, err := runScan(cmd.Context())
		if err != nil {
			return err
		}

		printCandidates(cands)
		return nil
	},
}

// statusCmd summarizes the downloads state without the full listing.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize downloads against the library and history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.AppConfig.DownloadsDir == "" {
			return fmt.Errorf("downloads directory not specified")
		}

		if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		cands, err := runScan(cmd.Context())
		if err != nil {
			return err
		}

		byStatus := make(map[models.Status]int)
		for _, cand := range cands {
			byStatus[cand.Status]++
		}

		fmt.Printf("Candidates: %d\n", len(cands))
		fmt.Printf("  new:      %d\n", byStatus[models.StatusNew])
		fmt.Printf("  matched:  %d\n", byStatus[models.StatusMatched])
		fmt.Printf("  tagged:   %d\n", byStatus[models.StatusTagged])
		fmt.Printf("  imported: %d\n", byStatus[models.StatusImported])

		if count, err := database.GlobalStore.CountHistory(); err == nil {
			fmt.Printf("History entries: %d\n", count)
		}
		return nil
	},
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long:  `Start the web server providing the scan, import and tagging API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		fmt.Printf("Using database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

		// Real-time event hub for SSE clients
		realtime.InitializeEventHub()

		workers, _ := cmd.Flags().GetInt("workers")
		operations.InitializeQueue(database.GlobalStore, workers)
		defer func() {
			fmt.Println("Shutting down operation queue...")
			if err := operations.ShutdownQueue(30 * time.Second); err != nil {
				fmt.Printf("Warning: operation queue shutdown error: %v\n", err)
			}
		}()
		fmt.Printf("Operation queue initialized with %d workers\n", workers)

		srv := server.NewServer(database.GlobalStore)

		// Watch the downloads tree and rescan on changes.
		if config.AppConfig.WatchDownloads && config.AppConfig.DownloadsDir != "" {
			w := watcher.New(func(string) {
				if _, err := srv.EnqueueScan(); err != nil {
					fmt.Printf("Warning: watcher rescan not queued: %v\n", err)
				}
			}, watcher.DefaultDebounce)
			if err := w.Start(config.AppConfig.DownloadsDir); err != nil {
				fmt.Printf("Warning: downloads watcher failed to start: %v\n", err)
			} else {
				defer w.Stop()
				fmt.Printf("Watching %s for changes\n", config.AppConfig.DownloadsDir)
			}
		}

		cfg := server.GetDefaultServerConfig()
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if rt, _ := cmd.Flags().GetString("read-timeout"); rt != "" {
			if d, err := time.ParseDuration(rt); err == nil {
				cfg.ReadTimeout = d
			}
		}
		if wt, _ := cmd.Flags().GetString("write-timeout"); wt != "" {
			if d, err := time.ParseDuration(wt); err == nil {
				cfg.WriteTimeout = d
			}
		}
		if it, _ := cmd.Flags().GetString("idle-timeout"); it != "" {
			if d, err := time.ParseDuration(it); err == nil {
				cfg.IdleTimeout = d
			}
		}

		return srv.Start(cfg)
	},
}

// runScan builds the library index and runs a classified downloads scan.
func runScan(ctx context.Context) ([]models.Candidate, error) {
	idx := library.NewIndex(config.AppConfig.LibraryDir, 5*time.Minute)
	sc := scanner.New(config.AppConfig.DownloadsDir, idx, database.GlobalStore).WithProgress()

	cands, err := sc.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	return cands, nil
}

func printCandidates(cands []models.Candidate) {
	if len(cands) == 0 {
		fmt.Println("No candidates found.")
		return
	}

	fmt.Printf("Found %d candidates:\n\n", len(cands))
	for _, cand := range cands {
		marker := " "
		switch cand.Status {
		case models.StatusNew:
			marker = "+"
		case models.StatusMatched, models.StatusTagged:
			marker = "~"
		case models.StatusImported:
			marker = "="
		}
		fmt.Printf("%s %-10s %s (%d files, %.1f MB)\n",
			marker, cand.Status, cand.Name, cand.FileCount(),
			float64(cand.TotalSize)/(1024*1024))
		if cand.MatchedLibraryPath != "" {
			fmt.Printf("             matches %s (score %d)\n", cand.MatchedLibraryPath, cand.MatchScore)
		}
	}
	fmt.Println("\n+ new   ~ in library   = already imported")
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tidybooks.yaml)")
	rootCmd.PersistentFlags().StringVar(&downloadsDir, "downloads", "", "downloads staging directory")
	rootCmd.PersistentFlags().StringVar(&libraryDir, "library", "", "organized library directory")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "tidybooks.pebble", "path to database (default: tidybooks.pebble for PebbleDB)")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "pebble", "database type: pebble (default) or sqlite")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "enable SQLite3 database (WARNING: cross-compilation issues, PebbleDB recommended)")

	viper.BindPFlag("downloads_dir", rootCmd.PersistentFlags().Lookup("downloads"))
	viper.BindPFlag("library_dir", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(diagnosticsCmd)

	serveCmd.Flags().String("port", "8484", "port to run the web server on")
	serveCmd.Flags().String("host", "127.0.0.1", "host to bind the web server to")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")
	serveCmd.Flags().Int("workers", 2, "number of background operation workers")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tidybooks")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	// Ensure database directory exists
	if databasePath != "" {
		dbDir := filepath.Dir(databasePath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				fmt.Printf("Error creating database directory: %v\n", err)
			}
		}
	}

	config.InitConfig()

	// Web UI edits are saved next to the database; use them to fill any
	// gaps left by flags and environment.
	if err := config.LoadConfigFromFile(); err != nil {
		fmt.Printf("Warning: could not load saved settings: %v\n", err)
	}
}
