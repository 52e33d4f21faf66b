// Package output persists crawl and analysis results as plain-text logs, one
// append-only file per category under the target's scan directory.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/shaniidev/aranea/internal/extract"
	"github.com/shaniidev/aranea/internal/utils"
)

// Crawl categories.
const (
	General      = "general"
	External     = "external"
	Extracted    = "extracted"
	JS           = "js"
	Emails       = "emails"
	Parametrized = "parametrized"
)

// Directory names the category of crawled URLs under the path segment seg.
// The prefix keeps segments such as "js" or "external" apart from the fixed
// categories.
func Directory(seg string) string {
	return "dir_" + seg
}

// Analysis categories.
const (
	Secrets  = "secrets"
	IPs      = "ips"
	Comments = "comments"
	Sinks    = "sinks"
	Objects  = "objects"
	Paths    = "paths"
)

// Sink writes each distinct value once per category. Files already present in
// the directory are loaded on first use, so repeated runs against the same
// target do not duplicate lines. Categories named in the suppression list are
// still deduplicated but never reach disk.
type Sink struct {
	dir string
	log *logrus.Logger

	mu         sync.Mutex
	logged     map[string]map[string]struct{}
	files      map[string]*os.File
	suppressed map[string]bool
}

func NewSink(dir string, suppress []string, log *logrus.Logger) *Sink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Sink{
		dir:        dir,
		log:        log,
		logged:     make(map[string]map[string]struct{}),
		files:      make(map[string]*os.File),
		suppressed: make(map[string]bool),
	}
	for _, c := range suppress {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			s.suppressed[c] = true
		}
	}
	return s
}

// Dir returns the directory holding the category files.
func (s *Sink) Dir() string {
	return s.dir
}

// Path returns the file backing category.
func (s *Sink) Path(category string) string {
	name := utils.SanitizeFilename(category)
	if name == "" {
		name = General
	}
	return filepath.Join(s.dir, name+".txt")
}

// Write appends value to category unless it was written before. It reports
// whether the value was new.
func (s *Sink) Write(category, value string) (bool, error) {
	value = strings.TrimRight(value, "\r\n")
	if value == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen, err := s.category(category)
	if err != nil {
		return false, err
	}
	if _, ok := seen[value]; ok {
		return false, nil
	}
	seen[value] = struct{}{}

	if s.suppressed[strings.ToLower(category)] {
		return true, nil
	}
	f, err := s.file(category)
	if err != nil {
		return true, err
	}
	if _, err := f.WriteString(value + "\n"); err != nil {
		return true, fmt.Errorf("write %s: %w", category, err)
	}
	return true, nil
}

// WriteURL percent-decodes rawURL and drops its fragment before writing.
func (s *Sink) WriteURL(category, rawURL string) (bool, error) {
	if decoded, err := url.PathUnescape(rawURL); err == nil {
		rawURL = decoded
	}
	return s.Write(category, extract.StripFragment(rawURL))
}

// Count returns how many distinct values category holds.
func (s *Sink) Count(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logged[category])
}

// Categories returns the categories touched so far, sorted.
func (s *Sink) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.logged))
	for c := range s.logged {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// category returns the dedup set of c, preloading it from disk. Caller holds mu.
func (s *Sink) category(c string) (map[string]struct{}, error) {
	if seen, ok := s.logged[c]; ok {
		return seen, nil
	}
	seen := make(map[string]struct{})
	s.logged[c] = seen

	f, err := os.Open(s.Path(c))
	if errors.Is(err, os.ErrNotExist) {
		return seen, nil
	}
	if err != nil {
		return seen, fmt.Errorf("preload %s: %w", c, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			seen[line] = struct{}{}
		}
	}
	if len(seen) > 0 {
		s.log.WithFields(logrus.Fields{"category": c, "entries": len(seen)}).Debug("resumed category log")
	}
	return seen, scanner.Err()
}

// file opens the append handle for c. Caller holds mu.
func (s *Sink) file(c string) (*os.File, error) {
	if f, ok := s.files[c]; ok {
		return f, nil
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.dir, err)
	}
	f, err := os.OpenFile(s.Path(c), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c, err)
	}
	s.files[c] = f
	return f, nil
}

// Close closes every open category file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for c, f := range s.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c, err))
		}
		delete(s.files, c)
	}
	return errors.Join(errs...)
}
