package utils

import (
	"crypto/md5"
	"fmt"
	"math"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
)

// CalculateEntropy computes the Shannon entropy of a string
func CalculateEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	freqs := make(map[rune]float64)
	for _, r := range s {
		freqs[r]++
	}

	var entropy float64
	total := float64(len(s))
	for _, count := range freqs {
		p := count / total
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// IsJSFile reports whether a URL or path looks like a JavaScript file. Any
// ".js" in the path counts, so "main.js?v=3" and "bundle.js.map" match.
func IsJSFile(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Contains(rawURL, ".js")
	}
	return strings.Contains(strings.ToLower(u.Path), ".js")
}

// ShouldSkipThirdPartyJS checks if a JS URL is a common third-party library
// Returns true if the file should be skipped (not parsed)
func ShouldSkipThirdPartyJS(rawURL string) bool {
	lowerURL := strings.ToLower(rawURL)

	if strings.Contains(lowerURL, "node_modules") {
		return true
	}

	cdnDomains := []string{
		"googleapis.com",
		"gstatic.com",
		"google-analytics.com",
		"googletagmanager.com",
		"doubleclick.net",
		"connect.facebook.net",
		"cdnjs.cloudflare.com",
		"ajax.cloudflare.com",
		"cdn.jsdelivr.net",
		"unpkg.com",
		"code.jquery.com",
		"maxcdn.bootstrapcdn.com",
		"stackpath.bootstrapcdn.com",
		"ajax.aspnetcdn.com",
	}
	for _, cdn := range cdnDomains {
		if strings.Contains(lowerURL, cdn) {
			return true
		}
	}

	skipFilenames := []string{
		// Analytics & Tracking
		"gtm.js",
		"gtag.js",
		"analytics.js",
		"fbevents.js",

		// jQuery / Bootstrap
		"jquery.js",
		"jquery.min.js",
		"jquery-",
		"bootstrap.js",
		"bootstrap.min.js",
		"bootstrap.bundle",

		"modernizr",
		"polyfill",
		"html5shiv",
		"fontawesome",
		"font-awesome",

		// Monitoring/Error tracking
		"hotjar",
		"newrelic",
		"clarity.ms",
	}
	for _, skip := range skipFilenames {
		if strings.Contains(lowerURL, skip) {
			return true
		}
	}

	return false
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FormatSize converts bytes to human-readable format
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
}

var (
	unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	underscoresRe    = regexp.MustCompile(`_+`)
)

// GenerateFilename creates a safe .js filename from a URL
func GenerateFilename(rawURL string, index int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		hash := md5.Sum([]byte(rawURL))
		return fmt.Sprintf("file_%d_%x.js", index, hash[:8])
	}

	filename := path.Base(u.Path)
	if filename == "" || filename == "/" || filename == "." {
		domain := strings.ReplaceAll(u.Host, ".", "_")
		return fmt.Sprintf("%s_%d.js", domain, index)
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".js") {
		filename += ".js"
	}
	filename = SanitizeFilename(filename)

	if len(filename) > 200 {
		hash := md5.Sum([]byte(rawURL))
		filename = filename[:180] + fmt.Sprintf("_%x.js", hash[:6])
	}
	return filename
}

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(name string) string {
	if idx := strings.Index(name, "?"); idx != -1 {
		name = name[:idx]
	}
	name = unsafeFilenameRe.ReplaceAllString(name, "_")
	name = underscoresRe.ReplaceAllString(name, "_")
	return strings.Trim(name, ". ")
}
