package scan

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/coregx/coregex"
	"gopkg.in/yaml.v3"

	"github.com/shaniidev/aranea/internal/core"
)

//go:embed patterns
var embeddedPatterns embed.FS

type PatternTemplate struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Kind         string   `yaml:"kind"`
	Regex        string   `yaml:"regex"`
	Severity     string   `yaml:"severity"`
	EntropyCheck bool     `yaml:"entropy_check"`
	MinEntropy   float64  `yaml:"min_entropy"`
	Validate     string   `yaml:"validate"`
	References   []string `yaml:"references"`
}

type PatternFile struct {
	Name     string            `yaml:"name"`
	Version  string            `yaml:"version"`
	Kind     string            `yaml:"kind"`
	Patterns []PatternTemplate `yaml:"patterns"`
}

type CompiledPattern struct {
	ID           string
	Name         string
	Kind         core.Kind
	Regex        *coregex.Regexp
	RegexString  string
	Severity     string
	EntropyCheck bool
	MinEntropy   float64
	Validate     string
	Mutex        *sync.Mutex // coregex's lazy DFA is not safe for concurrent use
}

var knownKinds = map[core.Kind]bool{
	core.KindSecret:  true,
	core.KindEmail:   true,
	core.KindIP:      true,
	core.KindDOMSink: true,
	core.KindComment: true,
}

// LoadPatterns compiles every embedded pattern file, in file name order.
func LoadPatterns() ([]CompiledPattern, error) {
	return loadFrom(embeddedPatterns, "patterns")
}

func loadFrom(fsys fs.FS, root string) ([]CompiledPattern, error) {
	var paths []string
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".yaml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk patterns directory: %w", err)
	}
	sort.Strings(paths)

	var all []CompiledPattern
	var loadErrors []string
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: read error: %v", path, err))
			continue
		}
		patterns, errs := ParsePatternFile(data, filepath.Base(path))
		all = append(all, patterns...)
		loadErrors = append(loadErrors, errs...)
	}

	if len(loadErrors) > 0 {
		return all, fmt.Errorf("pattern load errors: %s", strings.Join(loadErrors, "; "))
	}
	return all, nil
}

// ParsePatternFile compiles the patterns of one YAML document. Broken
// patterns are reported and skipped.
func ParsePatternFile(data []byte, source string) ([]CompiledPattern, []string) {
	var file PatternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, []string{fmt.Sprintf("%s: parse error: %v", source, err)}
	}

	var out []CompiledPattern
	var errs []string
	for _, pt := range file.Patterns {
		if pt.Kind == "" {
			pt.Kind = file.Kind
		}
		compiled, err := compilePattern(pt)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s/%s: %v", source, pt.ID, err))
			continue
		}
		out = append(out, compiled)
	}
	return out, errs
}

func compilePattern(pt PatternTemplate) (CompiledPattern, error) {
	kind := core.Kind(pt.Kind)
	if !knownKinds[kind] {
		return CompiledPattern{}, fmt.Errorf("unknown kind %q", pt.Kind)
	}
	re, err := coregex.Compile(pt.Regex)
	if err != nil {
		return CompiledPattern{}, fmt.Errorf("invalid regex: %w", err)
	}

	severity := pt.Severity
	if severity == "" {
		severity = "medium"
	}
	name := pt.Name
	if name == "" {
		name = pt.ID
	}

	return CompiledPattern{
		ID:           pt.ID,
		Name:         name,
		Kind:         kind,
		Regex:        re,
		RegexString:  pt.Regex,
		Severity:     severity,
		EntropyCheck: pt.EntropyCheck,
		MinEntropy:   pt.MinEntropy,
		Validate:     pt.Validate,
		Mutex:        &sync.Mutex{},
	}, nil
}
