package scan

import (
	"sync"

	"github.com/coregx/coregex"
)

// Object and array literals are recognised by shape, not parsed:
//
//	key: { key: value, ... }
//	key = [ value, ... ]
//
// Keys and values may be double-quoted, single-quoted or bare.
const (
	literalKey   = `(?:"[a-zA-Z0-9_\-]*"|'[a-zA-Z0-9_\-]*'|[a-zA-Z0-9_\-]+)`
	literalValue = `(?:"[a-zA-Z0-9_\-/\\]*"|'[a-zA-Z0-9_\-/\\]*'|[a-zA-Z0-9_\-/\\]+)`

	objectLiteralRe = literalKey + `\s*[:=]\s*\{\s*(?:` + literalKey + `\s*:\s*` + literalValue + `\s*,?\s*)+\}`
	arrayLiteralRe  = literalKey + `\s*[:=]\s*\[\s*(?:` + literalKey + `\s*,?\s*)+\]`
)

type literalMatcher struct {
	mu     sync.Mutex
	object *coregex.Regexp
	array  *coregex.Regexp
}

func newLiteralMatcher() *literalMatcher {
	object, err := coregex.Compile(objectLiteralRe)
	if err != nil {
		panic("scan: object literal pattern: " + err.Error())
	}
	array, err := coregex.Compile(arrayLiteralRe)
	if err != nil {
		panic("scan: array literal pattern: " + err.Error())
	}
	return &literalMatcher{object: object, array: array}
}

// Literals returns the distinct object literals in text followed by the
// distinct array literals.
func (e *Engine) Literals(text string) []string {
	content := []byte(text)

	e.literals.mu.Lock()
	matches := e.literals.object.FindAll(content, -1)
	matches = append(matches, e.literals.array.FindAll(content, -1)...)
	e.literals.mu.Unlock()

	var out []string
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		lit := string(m)
		if _, ok := seen[lit]; ok {
			continue
		}
		seen[lit] = struct{}{}
		out = append(out, lit)
	}
	return out
}
