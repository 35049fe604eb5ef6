// file: internal/scanner/scanner.go
// version: 2.1.0
// guid: 9b0c1d2e-3f4a-5b6c-7d8e-9f0a1b2c3d4e

package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/schollz/progressbar/v3"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/fileops"
	"github.com/tidybooks/tidybooks/internal/library"
	"github.com/tidybooks/tidybooks/internal/matcher"
	"github.com/tidybooks/tidybooks/internal/models"
)

// ExcludeMarker inside a directory removes it from scans.
const ExcludeMarker = ".tbexclude"

// Scanner discovers download candidates and classifies them against the
// library index and the processed-history log.
type Scanner struct {
	downloadsDir string
	index        *library.Index
	store        database.Store
	workers      int
	minScore     int
	showProgress bool
}

// New creates a scanner for the configured downloads directory.
func New(downloadsDir string, index *library.Index, store database.Store) *Scanner {
	workers := config.AppConfig.ConcurrentScans
	if workers < 1 {
		workers = 1
	}
	minScore := config.AppConfig.MinMatchScore
	if minScore <= 0 {
		minScore = 70
	}
	return &Scanner{
		downloadsDir: downloadsDir,
		index:        index,
		store:        store,
		workers:      workers,
		minScore:     minScore,
	}
}

// WithProgress enables a terminal progress bar during scans.
func (s *Scanner) WithProgress() *Scanner {
	s.showProgress = true
	return s
}

// Scan walks the top level of the downloads directory and returns one
// classified candidate per audiobook-looking entry. Manual bundles saved in
// the store are folded in as synthetic candidates, replacing their members.
func (s *Scanner) Scan(ctx context.Context) ([]models.Candidate, error) {
	topEntries, err := os.ReadDir(s.downloadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloads directory: %w", err)
	}

	bundles, bundled, err := s.loadBundles()
	if err != nil {
		fmt.Printf("Warning: could not load bundles: %v\n", err)
	}

	var paths []string
	for _, entry := range topEntries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(s.downloadsDir, entry.Name())
		if bundled[path] {
			continue
		}
		if entry.IsDir() && isExcluded(path) {
			continue
		}
		paths = append(paths, path)
	}

	var bar *progressbar.ProgressBar
	if s.showProgress {
		bar = progressbar.Default(int64(len(paths)))
	}

	// Bounded worker pool; results keep the top-level ordering.
	results := make([]*models.Candidate, len(paths))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.workers)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				if bar != nil {
					bar.Add(1)
				}
			}()

			cand, err := s.buildCandidate(p)
			if err != nil {
				fmt.Printf("Warning: skipping %s: %v\n", p, err)
				return
			}
			results[idx] = cand
		}(i, path)
	}
	wg.Wait()

	candidates := make([]models.Candidate, 0, len(results)+len(bundles))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	candidates = append(candidates, bundles...)

	for i := range candidates {
		if err := s.Classify(&candidates[i]); err != nil {
			fmt.Printf("Warning: could not classify %s: %v\n", candidates[i].Name, err)
		}
	}

	return candidates, nil
}

// buildCandidate turns one top-level downloads entry into a candidate, or
// returns nil when the entry holds no audio.
func (s *Scanner) buildCandidate(path string) (*models.Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	cand := &models.Candidate{
		ID:      ulid.Make().String(),
		Path:    path,
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Status:  models.StatusNew,
	}

	if info.IsDir() {
		cand.Name = info.Name()
		files, err := collectAudioFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, nil
		}
		cand.Files = files
	} else {
		ext := strings.ToLower(filepath.Ext(path))
		if !config.AppConfig.IsSupportedExtension(ext) {
			return nil, nil
		}
		cand.Name = strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		cand.Files = []models.CandidateFile{{
			Path:   path,
			Name:   info.Name(),
			Size:   info.Size(),
			Format: strings.TrimPrefix(ext, "."),
		}}
	}

	finishCandidate(cand)
	return cand, nil
}

// loadBundles converts saved bundles into synthetic candidates and reports
// which member paths they absorb.
func (s *Scanner) loadBundles() ([]models.Candidate, map[string]bool, error) {
	bundled := make(map[string]bool)
	if s.store == nil {
		return nil, bundled, nil
	}

	saved, err := s.store.ListBundles()
	if err != nil {
		return nil, bundled, err
	}

	var candidates []models.Candidate
	for _, b := range saved {
		cand := models.Candidate{
			ID:          b.ID,
			Name:        b.Name,
			IsDir:       true,
			Status:      models.StatusNew,
			BundlePaths: b.Paths,
			ModTime:     b.CreatedAt,
		}
		for _, member := range b.Paths {
			bundled[member] = true
			info, err := os.Stat(member)
			if err != nil {
				fmt.Printf("Warning: bundle %s member missing: %s\n", b.Name, member)
				continue
			}
			if cand.Path == "" {
				cand.Path = member
			}
			if info.IsDir() {
				files, err := collectAudioFiles(member)
				if err != nil {
					continue
				}
				cand.Files = append(cand.Files, files...)
			} else if config.AppConfig.IsSupportedExtension(strings.ToLower(filepath.Ext(member))) {
				cand.Files = append(cand.Files, models.CandidateFile{
					Path:   member,
					Name:   info.Name(),
					Size:   info.Size(),
					Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(member)), "."),
				})
			}
		}
		if len(cand.Files) == 0 {
			continue
		}
		finishCandidate(&cand)
		candidates = append(candidates, cand)
	}
	return candidates, bundled, nil
}

// finishCandidate fills the derived fields shared by all candidate kinds.
func finishCandidate(cand *models.Candidate) {
	sort.Slice(cand.Files, func(i, j int) bool { return cand.Files[i].Path < cand.Files[j].Path })

	for _, f := range cand.Files {
		cand.TotalSize += f.Size
	}

	if hash, err := fileops.Fingerprint(cand.Files[0].Path); err == nil {
		cand.Fingerprint = hash
	}

	parsed := matcher.ParseFolderName(cand.Name)
	cand.Author = parsed.Author
	cand.Title = parsed.Title
	cand.Series = parsed.Series
	cand.Sequence = parsed.Sequence
}

// Classify sets the candidate status from the history log and the library
// index. History wins: a fingerprint or normalized-name hit means the
// candidate was already imported, regardless of what the library shows.
func (s *Scanner) Classify(cand *models.Candidate) error {
	if s.store != nil {
		if cand.Fingerprint != "" {
			if entry, err := s.store.GetHistoryByFingerprint(cand.Fingerprint); err == nil && entry != nil {
				cand.Status = models.StatusImported
				cand.MatchedLibraryPath = entry.LibraryPath
				return nil
			}
		}
		if entry, err := s.store.GetHistoryByNormalizedName(matcher.Normalize(cand.Name)); err == nil && entry != nil {
			cand.Status = models.StatusImported
			cand.MatchedLibraryPath = entry.LibraryPath
			return nil
		}
	}

	if s.index == nil {
		cand.Status = models.StatusNew
		return nil
	}

	best, err := s.index.BestMatch(cand.Name, s.minScore)
	if err != nil {
		return err
	}
	if best == nil {
		cand.Status = models.StatusNew
		return nil
	}

	cand.MatchedLibraryPath = best.Entry.Path
	cand.MatchScore = best.Score
	cand.Status = models.StatusMatched

	// A matched library copy counts as tagged when its import record says
	// tags were written.
	if s.store != nil {
		if entry, err := s.store.GetHistoryByNormalizedName(matcher.Normalize(best.Entry.Name)); err == nil && entry != nil && entry.Tagged {
			cand.Status = models.StatusTagged
		}
	}
	return nil
}

// collectAudioFiles gathers supported audio files under dir, skipping hidden
// and excluded subtrees.
func collectAudioFiles(dir string) ([]models.CandidateFile, error) {
	var files []models.CandidateFile
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != dir && (strings.HasPrefix(info.Name(), ".") || isExcluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !config.AppConfig.IsSupportedExtension(ext) {
			return nil
		}
		files = append(files, models.CandidateFile{
			Path:   path,
			Name:   info.Name(),
			Size:   info.Size(),
			Format: strings.TrimPrefix(ext, "."),
		})
		return nil
	})
	return files, err
}

// isExcluded reports whether dir carries the exclude marker.
func isExcluded(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ExcludeMarker))
	return err == nil
}

// Exclude drops a directory from future scans by writing the marker file.
func Exclude(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	marker := filepath.Join(dir, ExcludeMarker)
	return os.WriteFile(marker, []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0644)
}

// Include removes the exclude marker.
func Include(dir string) error {
	err := os.Remove(filepath.Join(dir, ExcludeMarker))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
