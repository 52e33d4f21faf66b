package classify

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaniidev/aranea/internal/config"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Rule assigns Bucket to any candidate containing one of Keywords.
type Rule struct {
	Bucket   string   `yaml:"bucket"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the ordered path taxonomy plus the candidate filters and the
// object literal sections.
type Taxonomy struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Rules        []Rule   `yaml:"rules"`
	SkipSuffixes []string `yaml:"skip_suffixes"`
	Ignore       []string `yaml:"ignore"`
	Sections     []string `yaml:"sections"`
}

// DefaultTaxonomy parses the embedded taxonomy.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomy)
}

// ParseTaxonomy decodes a YAML taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.Rules) == 0 {
		return nil, fmt.Errorf("taxonomy %q has no rules", t.Name)
	}
	for i, r := range t.Rules {
		if strings.TrimSpace(r.Bucket) == "" || len(r.Keywords) == 0 {
			return nil, fmt.Errorf("taxonomy rule %d is incomplete", i)
		}
	}
	return &t, nil
}

// LoadTaxonomy returns the embedded taxonomy with the sections and ignore
// lists replaced by the contents of the given files, when set.
func LoadTaxonomy(sectionsFile, ignoreFile string) (*Taxonomy, error) {
	t, err := DefaultTaxonomy()
	if err != nil {
		return nil, err
	}
	if sectionsFile != "" {
		if t.Sections, err = config.ReadList(sectionsFile); err != nil {
			return nil, fmt.Errorf("load sections: %w", err)
		}
	}
	if ignoreFile != "" {
		if t.Ignore, err = config.ReadList(ignoreFile); err != nil {
			return nil, fmt.Errorf("load ignore list: %w", err)
		}
	}
	return t, nil
}
