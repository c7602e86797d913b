// Package discovery locates chat export files in the usual download
// locations so they can be offered for import.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tapestry-tools/tapestry/internal/imports"
	"github.com/tapestry-tools/tapestry/pkg/platform"
)

// ExportFile is a discovered export candidate.
type ExportFile struct {
	Path         string
	Size         int64
	ModTime      time.Time
	Format       imports.Format
	IsValid      bool
	ErrorMessage string
	Preview      *ExportPreview
}

// ExportPreview summarizes what an export contains.
type ExportPreview struct {
	Conversations int
	Messages      int
	Skipped       int
}

// Scanner finds export files in a set of search paths.
type Scanner struct {
	searchPaths []string
}

// NewScanner builds a scanner over the default download locations.
func NewScanner() *Scanner {
	scanner := &Scanner{}

	if downloads, err := platform.DownloadsDir(); err == nil {
		scanner.addPath(downloads)
	}

	// Many users save exports to the desktop instead.
	if home, err := os.UserHomeDir(); err == nil {
		scanner.addPath(filepath.Join(home, "Desktop"))
		scanner.addPath(filepath.Join(home, "Documents", "Downloads"))
	}

	return scanner
}

// addPath appends a directory if it exists and is not already tracked.
func (s *Scanner) addPath(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, existing := range s.searchPaths {
		if existing == abs {
			return
		}
	}
	s.searchPaths = append(s.searchPaths, abs)
}

// AddSearchPath adds an additional directory to search.
func (s *Scanner) AddSearchPath(path string) {
	s.addPath(path)
}

// SearchPaths returns the directories that will be scanned.
func (s *Scanner) SearchPaths() []string {
	return s.searchPaths
}

// ScanForExports finds export candidates in the configured paths, newest
// first.
func (s *Scanner) ScanForExports() ([]*ExportFile, error) {
	var exports []*ExportFile

	for _, searchPath := range s.searchPaths {
		files, err := s.scanDirectory(searchPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to scan %s: %v\n", searchPath, err)
			continue
		}
		exports = append(exports, files...)
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].ModTime.After(exports[j].ModTime)
	})

	return exports, nil
}

// GetRecentExports returns exports modified within the given duration.
func (s *Scanner) GetRecentExports(since time.Duration) ([]*ExportFile, error) {
	exports, err := s.ScanForExports()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-since)
	var recent []*ExportFile
	for _, export := range exports {
		if export.ModTime.After(cutoff) {
			recent = append(recent, export)
		}
	}
	return recent, nil
}

// scanDirectory scans a single directory, including the data-YYYY* export
// directories the Claude download flow produces.
func (s *Scanner) scanDirectory(dir string) ([]*ExportFile, error) {
	var exports []*ExportFile

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return exports, nil
	}
	if err != nil {
		return exports, err
	}

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if strings.HasPrefix(name, "data-20") {
				sub := filepath.Join(dir, name, "conversations.json")
				if info, err := os.Stat(sub); err == nil && !info.IsDir() {
					exports = append(exports, s.inspect(sub, info))
				}
			}
			continue
		}

		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !isLikelyExport(name, info.Size()) {
			continue
		}
		exports = append(exports, s.inspect(path, info))
	}

	return exports, nil
}

// isLikelyExport filters by extension, size and filename before the file is
// actually opened.
func isLikelyExport(name string, size int64) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".json") && !strings.HasSuffix(lower, ".jsonl") {
		return false
	}

	// Skip trivially small files.
	if size < 1024 {
		return false
	}

	for _, pattern := range []string{"conversations", "claude", "chatgpt", "gemini", "copilot", "export", "chat", "messages"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// inspect sniffs the format and builds a preview by parsing the file.
func (s *Scanner) inspect(path string, info os.FileInfo) *ExportFile {
	export := &ExportFile{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	format, err := imports.DetectFormat(path)
	if err != nil {
		export.ErrorMessage = err.Error()
		return export
	}
	export.Format = format

	parsed, err := imports.ParseAs(path, format)
	if err != nil {
		export.ErrorMessage = err.Error()
		return export
	}
	if len(parsed.Messages) == 0 {
		export.ErrorMessage = "no messages found in export"
		return export
	}

	export.IsValid = true
	export.Preview = &ExportPreview{
		Conversations: parsed.Conversations,
		Messages:      len(parsed.Messages),
		Skipped:       parsed.Skipped,
	}
	return export
}
