// file: cmd/history.go
// version: 1.0.0
// guid: 2a5b8c1d-4e7f-4a0b-83c6-d9e2f5a8b1c4

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
)

var (
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Inspect the processed-history log",
	}

	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List processed imports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.CloseStore()

			entries, err := database.GlobalStore.ListHistory(limit, 0)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No imports recorded.")
				return nil
			}

			for _, entry := range entries {
				tagged := " "
				if entry.Tagged {
					tagged = "T"
				}
				fmt.Printf("%s %s %-40s -> %s\n",
					entry.ImportedAt.Format("2006-01-02 15:04"),
					tagged, entry.CandidateName, entry.LibraryPath)
			}
			return nil
		},
	}

	historyForgetCmd = &cobra.Command{
		Use:   "forget <id>",
		Short: "Remove one entry from the processed-history log",
		Long: `Forget removes a history entry so the next scan reclassifies the
matching download. Library files are not touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.CloseStore()

			entry, err := database.GlobalStore.GetHistoryEntry(args[0])
			if err != nil {
				return fmt.Errorf("history entry not found: %s", args[0])
			}
			if err := database.GlobalStore.DeleteHistoryEntry(entry.ID); err != nil {
				return fmt.Errorf("failed to delete history entry: %w", err)
			}

			fmt.Printf("Forgot %s (%s)\n", entry.CandidateName, entry.ID)
			return nil
		},
	}
)

func init() {
	historyListCmd.Flags().Int("limit", 50, "maximum entries to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyForgetCmd)
}
