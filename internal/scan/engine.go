package scan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/shaniidev/aranea/internal/core"
	"github.com/shaniidev/aranea/internal/utils"
)

// Engine runs compiled patterns over text. Patterns with a selective literal
// only run when an Aho-Corasick pass finds that literal; the rest always run.
// An Engine is safe for concurrent use.
type Engine struct {
	patterns   []CompiledPattern
	matcher    *ahocorasick.Matcher
	keywordMap map[int][]int // keyword index -> pattern indices
	fallback   []int
	literals   *literalMatcher
}

// NewEngine loads the embedded pattern templates.
func NewEngine() (*Engine, error) {
	patterns, err := LoadPatterns()
	if err != nil {
		return nil, err
	}
	return BuildEngine(patterns), nil
}

// BuildEngine indexes patterns for prefiltered scanning.
func BuildEngine(patterns []CompiledPattern) *Engine {
	e := &Engine{
		patterns:   patterns,
		keywordMap: make(map[int][]int),
		literals:   newLiteralMatcher(),
	}

	var keywords []string
	keywordIdx := make(map[string]int)
	for i, p := range patterns {
		kw := ExtractKeyword(p.RegexString)
		if !IsValidKeyword(kw) {
			e.fallback = append(e.fallback, i)
			continue
		}
		idx, ok := keywordIdx[kw]
		if !ok {
			idx = len(keywords)
			keywords = append(keywords, kw)
			keywordIdx[kw] = idx
		}
		e.keywordMap[idx] = append(e.keywordMap[idx], i)
	}
	e.matcher = ahocorasick.NewStringMatcher(keywords)
	return e
}

// Summary describes the prefilter layout.
func (e *Engine) Summary() string {
	return fmt.Sprintf("%d patterns (%d keyword-gated, %d always-on)",
		len(e.patterns), len(e.patterns)-len(e.fallback), len(e.fallback))
}

// Scan returns the findings in text, attributed to file. Each distinct
// (kind, value) pair is reported once per call, in pattern order.
func (e *Engine) Scan(text, file string) []core.Finding {
	content := []byte(text)

	run := make([]bool, len(e.patterns))
	for _, i := range e.fallback {
		run[i] = true
	}
	for _, hit := range e.matcher.MatchThreadSafe(content) {
		for _, i := range e.keywordMap[hit] {
			run[i] = true
		}
	}

	var found []core.Finding
	seen := make(map[string]struct{})
	for i := range e.patterns {
		if !run[i] {
			continue
		}
		p := e.patterns[i]
		for _, value := range runSinglePattern(p, content) {
			key := string(p.Kind) + "\x00" + value
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			found = append(found, core.Finding{
				Kind:       p.Kind,
				Value:      value,
				SourceFile: file,
				Category:   p.Name,
			})
		}
	}
	return found
}

func runSinglePattern(p CompiledPattern, content []byte) []string {
	p.Mutex.Lock()
	matches := p.Regex.FindAll(content, -1)
	p.Mutex.Unlock()

	var out []string
	for _, m := range matches {
		value := strings.TrimSpace(string(m))
		if value == "" {
			continue
		}
		if p.EntropyCheck && p.MinEntropy > 0 && utils.CalculateEntropy(value) < p.MinEntropy {
			continue
		}
		if p.Validate == "ipv4" && !validIPv4(value) {
			continue
		}
		out = append(out, value)
	}
	return out
}

// validIPv4 rejects dotted quads with an octet above 255, which are almost
// always version strings.
func validIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
