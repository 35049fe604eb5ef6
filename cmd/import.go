// file: cmd/import.go
// version: 1.1.0
// guid: 8c1d4e7f-0a3b-4c6d-99e2-f5a8b1c4d7e0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidybooks/tidybooks/internal/ai"
	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/importer"
	"github.com/tidybooks/tidybooks/internal/library"
	"github.com/tidybooks/tidybooks/internal/metadata"
	"github.com/tidybooks/tidybooks/internal/models"
	"github.com/tidybooks/tidybooks/internal/scanner"
	"github.com/tidybooks/tidybooks/internal/tagger"
)

// importCmd copies selected candidates into the library.
var importCmd = &cobra.Command{
	Use:   "import [candidate name ...]",
	Short: "Copy candidates into the organized library",
	Long: `Import copies download candidates into the Author/Series/Title layout
and records them in the processed-history log. Name candidates as
arguments, or use --all to import everything classified as new.

Existing library files are never overwritten; collisions are skipped
and reported. Source files stay in the downloads directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		fetchMeta, _ := cmd.Flags().GetBool("fetch-metadata")
		writeTags, _ := cmd.Flags().GetBool("write-tags")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if len(args) == 0 && !all {
			return fmt.Errorf("name at least one candidate or pass --all")
		}
		if config.AppConfig.DownloadsDir == "" || config.AppConfig.LibraryDir == "" {
			return fmt.Errorf("downloads and library directories must be configured")
		}

		if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		idx := library.NewIndex(config.AppConfig.LibraryDir, 5*time.Minute)
		sc := scanner.New(config.AppConfig.DownloadsDir, idx, database.GlobalStore).WithProgress()

		cands, err := sc.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}

		selected, err := selectCandidates(cands, args, all)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		if dryRun {
			fmt.Printf("Would import %d candidates:\n", len(selected))
			for _, cand := range selected {
				fmt.Printf("  %s (%d files)\n", cand.Name, cand.FileCount())
			}
			return nil
		}

		im := importer.New(&config.AppConfig, database.GlobalStore, idx)
		tg := tagger.New(database.GlobalStore)
		asm := newAssembler()
		parser := ai.NewOpenAIParser(config.AppConfig.OpenAIAPIKey, config.AppConfig.EnableAIParsing)

		imported := 0
		for i := range selected {
			cand := &selected[i]
			fmt.Printf("Importing %s...\n", cand.Name)

			var meta *metadata.BookMetadata
			if fetchMeta {
				meta = fetchCandidateMetadata(cmd.Context(), asm, parser, cand)
				if meta == nil {
					fmt.Printf("  no metadata found, using parsed folder name\n")
				}
			}

			result, err := im.Import(cmd.Context(), cand, meta)
			if err != nil {
				fmt.Printf("  error: %v\n", err)
				continue
			}
			imported++
			fmt.Printf("  placed %d files in %s\n", result.Copied, result.LibraryPath)
			for _, skipped := range result.Skipped {
				fmt.Printf("  skipped (already in library): %s\n", skipped)
			}

			if writeTags && meta != nil {
				tagResult, err := tg.TagLibraryPath(cmd.Context(), result.LibraryPath, *meta)
				if err != nil {
					if errors.Is(err, metadata.ErrTaglibUnavailable) {
						fmt.Printf("  %v\n", err)
						continue
					}
					fmt.Printf("  tagging error: %v\n", err)
					continue
				}
				fmt.Printf("  tagged %d files\n", tagResult.Tagged)
			}
		}

		fmt.Printf("\nImported %d of %d candidates.\n", imported, len(selected))
		return nil
	},
}

// selectCandidates resolves names (case-insensitive) or the --all filter
// against the scan results. Imported candidates are never selected.
func selectCandidates(cands []models.Candidate, names []string, all bool) ([]models.Candidate, error) {
	if all {
		var out []models.Candidate
		for _, cand := range cands {
			if cand.Status == models.StatusNew {
				out = append(out, cand)
			}
		}
		return out, nil
	}

	byName := make(map[string]models.Candidate, len(cands))
	for _, cand := range cands {
		byName[strings.ToLower(cand.Name)] = cand
	}

	var out []models.Candidate
	for _, name := range names {
		cand, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("no candidate named %q", name)
		}
		if cand.Status == models.StatusImported {
			return nil, fmt.Errorf("%q is already imported", name)
		}
		out = append(out, cand)
	}
	return out, nil
}

func newAssembler() *metadata.Assembler {
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

// fetchCandidateMetadata resolves the candidate to provider metadata, using
// the AI parser to clean up the name first when it is enabled.
func fetchCandidateMetadata(ctx context.Context, asm *metadata.Assembler, parser *ai.OpenAIParser, cand *models.Candidate) *metadata.BookMetadata {
	if parser.IsEnabled() && (cand.Title == "" || cand.Author == "") {
		if parsed, err := parser.ParseName(ctx, cand.Name); err == nil && parsed != nil && parsed.Confidence != "low" {
			if cand.Title == "" {
				cand.Title = parsed.Title
			}
			if cand.Author == "" {
				cand.Author = parsed.Author
			}
			if cand.Series == "" {
				cand.Series = parsed.Series
				cand.Sequence = parsed.SeriesNum
			}
		}
	}

	title := cand.Title
	if title == "" {
		title = cand.Name
	}
	meta, err := asm.Lookup(ctx, title, cand.Author)
	if err != nil {
		fmt.Printf("  metadata lookup error: %v\n", err)
		return nil
	}
	return meta
}

func init() {
	importCmd.Flags().Bool("all", false, "import every candidate classified as new")
	importCmd.Flags().Bool("fetch-metadata", false, "look up book metadata from online providers")
	importCmd.Flags().Bool("write-tags", false, "write fetched metadata into the copied audio files")
	importCmd.Flags().Bool("dry-run", false, "list what would be imported without copying")
}
