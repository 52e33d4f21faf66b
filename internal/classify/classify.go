// Package classify buckets path-like strings found in JavaScript and maps
// object literals to keyword sections. Both lookups are first-match-wins over
// an ordered keyword list, resolved with a single Aho-Corasick pass.
package classify

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// NotClassified is the bucket for candidates no rule matches.
const NotClassified = "Not Classified"

const forbiddenChars = " \t\n\r$<>{}[]()*~^@,\\"

// Path is one classified candidate.
type Path struct {
	Value  string
	Bucket string
}

// Classifier is safe for concurrent use.
type Classifier struct {
	rules []Rule

	ruleMatcher *ahocorasick.Matcher
	ruleOwner   []int

	sections       []string
	sectionMatcher *ahocorasick.Matcher
	sectionOwner   []int

	ignore       map[string]struct{}
	skipSuffixes []string
}

func New(t *Taxonomy) *Classifier {
	c := &Classifier{
		rules:        t.Rules,
		sections:     t.Sections,
		ignore:       make(map[string]struct{}, len(t.Ignore)),
		skipSuffixes: t.SkipSuffixes,
	}

	groups := make([][]string, len(t.Rules))
	for i, r := range t.Rules {
		groups[i] = r.Keywords
	}
	c.ruleMatcher, c.ruleOwner = buildIndex(groups)

	groups = make([][]string, len(t.Sections))
	for i, s := range t.Sections {
		groups[i] = []string{s}
	}
	c.sectionMatcher, c.sectionOwner = buildIndex(groups)

	for _, v := range t.Ignore {
		c.ignore[v] = struct{}{}
	}
	return c
}

// buildIndex flattens ordered keyword groups into one dictionary. A keyword
// shared by several groups belongs to the first of them.
func buildIndex(groups [][]string) (*ahocorasick.Matcher, []int) {
	var dict []string
	var owner []int
	seen := make(map[string]struct{})

	for g, keywords := range groups {
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			dict = append(dict, kw)
			owner = append(owner, g)
		}
	}
	return ahocorasick.NewStringMatcher(dict), owner
}

// firstGroup returns the lowest group index with a keyword inside text, or -1.
func firstGroup(m *ahocorasick.Matcher, owner []int, text string) int {
	best := -1
	for _, hit := range m.MatchThreadSafe([]byte(strings.ToLower(text))) {
		if g := owner[hit]; best < 0 || g < best {
			best = g
		}
	}
	return best
}

// ClassifyPath returns the bucket of the first rule matching candidate.
func (c *Classifier) ClassifyPath(candidate string) string {
	if i := firstGroup(c.ruleMatcher, c.ruleOwner, candidate); i >= 0 {
		return c.rules[i].Bucket
	}
	return NotClassified
}

// IsCandidate reports whether s looks like a path worth classifying.
func (c *Classifier) IsCandidate(s string) bool {
	if !strings.Contains(s, "/") || len(s) <= 2 || len(s) >= 100 {
		return false
	}
	if strings.ContainsAny(s, forbiddenChars) {
		return false
	}
	if _, ok := c.ignore[s]; ok {
		return false
	}
	for _, suffix := range c.skipSuffixes {
		if strings.HasSuffix(s, suffix) {
			return false
		}
	}
	return true
}

// Candidates splits text on double quotes and keeps the path-like pieces in
// order of appearance.
func (c *Classifier) Candidates(text string) []string {
	var out []string
	for _, part := range strings.Split(text, `"`) {
		part = strings.TrimSpace(part)
		if c.IsCandidate(part) {
			out = append(out, part)
		}
	}
	return out
}

// Paths classifies every candidate in text. Strings equal up to case are
// reported once, as first seen.
func (c *Classifier) Paths(text string) []Path {
	var out []Path
	checked := make(map[string]struct{})
	for _, cand := range c.Candidates(text) {
		key := strings.ToLower(cand)
		if _, ok := checked[key]; ok {
			continue
		}
		checked[key] = struct{}{}
		out = append(out, Path{Value: cand, Bucket: c.ClassifyPath(cand)})
	}
	return out
}

// GroupPaths indexes paths by bucket.
func GroupPaths(paths []Path) map[string][]string {
	grouped := make(map[string][]string)
	for _, p := range paths {
		grouped[p.Bucket] = append(grouped[p.Bucket], p.Value)
	}
	return grouped
}

// Sections returns the configured object sections in priority order.
func (c *Classifier) Sections() []string {
	return append([]string(nil), c.sections...)
}

// ClassifyObjectLiteral returns the first section whose keyword occurs in
// literal. Literals matching no section have no bucket.
func (c *Classifier) ClassifyObjectLiteral(literal string) (string, bool) {
	i := firstGroup(c.sectionMatcher, c.sectionOwner, literal)
	if i < 0 {
		return "", false
	}
	return c.sections[i], true
}

// MapObjects groups literals by section, dropping unmatched ones and
// duplicates within a section.
func (c *Classifier) MapObjects(literals []string) map[string][]string {
	mapped := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for _, lit := range literals {
		section, ok := c.ClassifyObjectLiteral(lit)
		if !ok {
			continue
		}
		if seen[section] == nil {
			seen[section] = make(map[string]struct{})
		}
		if _, dup := seen[section][lit]; dup {
			continue
		}
		seen[section][lit] = struct{}{}
		mapped[section] = append(mapped[section], lit)
	}
	return mapped
}

var prettyReplacer = strings.NewReplacer(
	"{", "\n",
	"[", "\n",
	", ", "\n",
	",", "\n",
	"}", "",
	"]", "",
	`"`, "",
	"'", "",
)

// Pretty lays a literal out one member per line for display.
func Pretty(literal string) string {
	return strings.TrimSpace(prettyReplacer.Replace(literal))
}
