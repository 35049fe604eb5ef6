// file: cmd/diagnostics.go
// version: 1.1.0
// guid: 6e9f2a5b-8c1d-4e4f-a7b0-c3d6e9f2a5b8

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/models"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the history database.",
	}

	cleanupStaleCmd = &cobra.Command{
		Use:   "cleanup-stale",
		Short: "Remove history entries whose library folder is gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runCleanupStaleHistory(force, dryRun)
		},
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Inspect stored history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			raw, _ := cmd.Flags().GetBool("raw")
			return runDiagnosticsQuery(limit, prefix, raw)
		},
	}
)

func init() {
	cleanupStaleCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	cleanupStaleCmd.Flags().Bool("dry-run", false, "List stale records without deleting")

	queryCmd.Flags().Int("limit", 5, "Number of records to display")
	queryCmd.Flags().String("prefix", "hist:", "Key prefix to inspect when --raw is set")
	queryCmd.Flags().Bool("raw", false, "Show raw Pebble key/value data (Pebble only)")

	diagnosticsCmd.AddCommand(cleanupStaleCmd)
	diagnosticsCmd.AddCommand(queryCmd)
}

func ensureDiagnosticsStore() (func(), error) {
	if err := database.InitializeStore(
		config.AppConfig.DatabaseType,
		config.AppConfig.DatabasePath,
		config.AppConfig.EnableSQLite,
	); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cleanup := func() {
		database.CloseStore()
	}
	return cleanup, nil
}

// runCleanupStaleHistory deletes history entries that point at library
// folders which no longer exist, so the next scan reclassifies those
// downloads instead of reporting them as imported.
func runCleanupStaleHistory(force, dryRun bool) error {
	closer, err := ensureDiagnosticsStore()
	if err != nil {
		return err
	}
	defer closer()

	fmt.Printf("Inspecting history in %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

	const batchSize = 5000
	offset := 0
	stale := make([]models.HistoryEntry, 0)

	for {
		entries, err := database.GlobalStore.ListHistory(batchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to fetch history: %w", err)
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			if entry.LibraryPath == "" {
				continue
			}
			if _, err := os.Stat(entry.LibraryPath); os.IsNotExist(err) {
				stale = append(stale, entry)
			}
		}
		offset += len(entries)
		if len(entries) < batchSize {
			break
		}
	}

	if len(stale) == 0 {
		fmt.Println("No stale history entries detected.")
		return nil
	}

	fmt.Printf("Found %d stale entries:\n", len(stale))
	for i, entry := range stale {
		fmt.Printf("%2d. ID: %s\n", i+1, entry.ID)
		fmt.Printf("    Name: %s\n", entry.CandidateName)
		fmt.Printf("    Path: %s\n", entry.LibraryPath)
	}

	if dryRun {
		fmt.Println("Dry run enabled; no deletions were performed.")
		return nil
	}

	if !force {
		confirmed, err := promptYesNo(fmt.Sprintf("Delete %d entries", len(stale)))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted. No entries deleted.")
			return nil
		}
	}

	deleted := 0
	for _, entry := range stale {
		if err := database.GlobalStore.DeleteHistoryEntry(entry.ID); err != nil {
			fmt.Printf("Failed to delete %s: %v\n", entry.ID, err)
			continue
		}
		deleted++
	}

	fmt.Printf("Deleted %d stale entries. The next scan will reclassify those downloads.\n", deleted)
	return nil
}

func runDiagnosticsQuery(limit int, prefix string, raw bool) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	if raw {
		if config.AppConfig.DatabaseType != "pebble" {
			return fmt.Errorf("raw inspection is only available for Pebble databases")
		}
		return runRawPebbleQuery(limit, prefix)
	}

	closer, err := ensureDiagnosticsStore()
	if err != nil {
		return err
	}
	defer closer()

	entries, err := database.GlobalStore.ListHistory(limit, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	for i, entry := range entries {
		fmt.Printf("%2d. ID: %s\n", i+1, entry.ID)
		fmt.Printf("    Name: %s\n", entry.CandidateName)
		fmt.Printf("    Normalized: %s\n", entry.NormalizedName)
		fmt.Printf("    LibraryPath: %s\n", entry.LibraryPath)
		if entry.Fingerprint != "" {
			fmt.Printf("    Fingerprint: %s\n", entry.Fingerprint)
		}
		fmt.Printf("    Tagged: %v\n", entry.Tagged)
		fmt.Println("---")
	}

	return nil
}

func runRawPebbleQuery(limit int, prefix string) error {
	db, err := pebble.Open(config.AppConfig.DatabasePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return fmt.Errorf("failed to open Pebble database: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	ok := iter.First()
	if prefix != "" {
		ok = iter.SeekGE([]byte(prefix))
	}

	for ; ok && iter.Valid(); ok = iter.Next() {
		fmt.Printf("Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Printf("Value length: %d bytes\n", len(val))
		preview := truncateString(string(val), 500)
		fmt.Printf("Value preview: %s\n", preview)
		fmt.Println("---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Println("No keys matched the requested prefix.")
	}

	return nil
}

func promptYesNo(action string) (bool, error) {
	fmt.Printf("%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
