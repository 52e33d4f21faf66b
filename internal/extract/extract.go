// Package extract pulls crawl candidates out of fetched pages: anchor,
// script and form targets from HTML, absolute URL literals and email
// addresses from any text. Malformed markup never fails extraction; it just
// yields fewer results.
package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// Tolerates JSON-escaped slashes (https:\/\/host\/path).
	urlLiteralRe = regexp.MustCompile(`https?:\\?/\\?/(?:[a-zA-Z0-9]|\\?[$\-_@.&+/]|[!*(),]|%[0-9a-fA-F]{2})+`)
	emailRe      = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
)

// Page holds the link targets found in one HTML document, already resolved
// against the page URL and stripped of fragments.
type Page struct {
	Anchors       []string
	Scripts       []string
	Forms         []string
	InlineScripts []string
}

// ParseHTML extracts anchors (except a bare "/"), script sources, inline
// script bodies and form actions from body.
func ParseHTML(pageURL string, body []byte) *Page {
	page := &Page{}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return page
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "/" {
			return
		}
		if u := Resolve(pageURL, href); u != "" {
			page.Anchors = append(page.Anchors, u)
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); strings.TrimSpace(text) != "" {
			page.InlineScripts = append(page.InlineScripts, text)
		}
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			if u := Resolve(pageURL, strings.TrimSpace(src)); u != "" {
				page.Scripts = append(page.Scripts, u)
			}
		}
	})

	doc.Find("form[action]").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		action = strings.TrimSpace(action)
		if action == "" {
			return
		}
		if u := Resolve(pageURL, action); u != "" {
			page.Forms = append(page.Forms, u)
		}
	})

	return page
}

// ScriptSources returns only the resolved <script src> URLs of body.
func ScriptSources(pageURL string, body []byte) []string {
	return ParseHTML(pageURL, body).Scripts
}

// Resolve turns ref into an absolute URL relative to base, dropping any
// fragment first. References with a non-HTTP scheme (mailto:, javascript:,
// data:) resolve to "".
func Resolve(base, ref string) string {
	ref = StripFragment(ref)
	if ref == "" {
		return ""
	}

	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if r.Scheme != "" && r.Scheme != "http" && r.Scheme != "https" {
		return ""
	}
	if r.IsAbs() {
		return r.String()
	}

	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return StripFragment(b.ResolveReference(r).String())
}

// StripFragment removes everything from the first '#'.
func StripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

// IsParametrized reports whether the query string of rawURL carries a
// key=value pair, making it a candidate injection point.
func IsParametrized(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.RawQuery, "=")
}

// URLLiterals finds bare http(s) URLs anywhere in text, unescapes them and
// returns each distinct one once, in order of first appearance.
func URLLiterals(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for pos := 0; pos < len(text); {
		loc := urlLiteralRe.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		match := text[start:end]
		pos = end
		// A literal glued to the next one ("...comhttps://") stops before
		// the second scheme, and scanning resumes there.
		if end < len(text) && text[end] == ':' {
			match = trimSchemeTail(match)
			pos = start + len(match)
		}

		u := strings.ReplaceAll(match, `\`, "")
		if len(u) <= len("https://") {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func trimSchemeTail(s string) string {
	for _, tail := range []string{"https", "http"} {
		if strings.HasSuffix(s, tail) && len(s) > len(tail)+len("http://") {
			return s[:len(s)-len(tail)]
		}
	}
	return s
}

// Emails returns the distinct email addresses in text.
func Emails(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, e := range emailRe.FindAllString(text, -1) {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
