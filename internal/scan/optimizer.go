package scan

import (
	"regexp/syntax"
	"strings"
)

// ExtractKeyword returns the longest literal that must occur in any match of
// regexStr, or "" when there is none. Case-folded literals are not usable
// with the byte-exact prefilter and yield "".
func ExtractKeyword(regexStr string) string {
	re, err := syntax.Parse(regexStr, syntax.Perl)
	if err != nil {
		return ""
	}
	return findBestLiteral(re)
}

func findBestLiteral(re *syntax.Regexp) string {
	switch re.Op {
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase != 0 {
			return ""
		}
		return string(re.Rune)
	case syntax.OpConcat:
		var best string
		for _, sub := range re.Sub {
			if candidate := findBestLiteral(sub); len(candidate) > len(best) {
				best = candidate
			}
		}
		return best
	case syntax.OpCapture, syntax.OpPlus:
		return findBestLiteral(re.Sub[0])
	case syntax.OpRepeat:
		if re.Min > 0 {
			return findBestLiteral(re.Sub[0])
		}
		return ""
	default:
		return ""
	}
}

// IsValidKeyword reports whether kw is selective enough to gate a pattern.
func IsValidKeyword(kw string) bool {
	if len(kw) < 4 {
		return false
	}
	switch strings.ToLower(kw) {
	case "http", "https", "true", "false", "null", "function", "return", "window", "document":
		return false
	}
	return !isRepetitive(kw)
}

func isRepetitive(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
