package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ModeCrawl    = "crawl"
	ModeAnalysis = "analysis"
)

type Config struct {
	URL        string
	ListFile   string
	Mode       string
	Threads    int
	RawHeaders string
	Headers    map[string]string
	Timeout    int
	Rate       float64
	Retries    int

	// Analysis mode
	Strict         bool
	MainOnly       bool
	Continuous     bool
	Auto           bool
	SaveJS         bool
	SkipThirdParty bool
	SectionsFile   string
	IgnoreFile     string

	// Output
	OutputFile string
	HTMLReport string
	JSONReport string
	ScansDir   string
	NoLog      []string
	Silent     bool
	Verbose    bool
}

func NewConfig() *Config {
	return &Config{
		Mode:     ModeCrawl,
		Threads:  10,
		Timeout:  10,
		Retries:  1,
		ScansDir: "scans",
		Headers:  map[string]string{},
	}
}

func (c *Config) ParseFlags() error {
	return c.parse(flag.CommandLine, os.Args[1:])
}

func (c *Config) parse(fs *flag.FlagSet, args []string) error {
	var noLog string

	fs.StringVar(&c.URL, "u", c.URL, "Target URL (or local JS file in analysis mode)")
	fs.StringVar(&c.ListFile, "l", "", "File with target URLs, one per line")
	fs.StringVar(&c.Mode, "m", c.Mode, "Mode: crawl, analysis")
	fs.IntVar(&c.Threads, "t", c.Threads, "Crawl threads")
	fs.StringVar(&c.RawHeaders, "H", "", "Headers, e.g. 'Authorization:Bearer ey..,Cookie:role=admin;'")
	fs.IntVar(&c.Timeout, "timeout", c.Timeout, "Per-request timeout in seconds")
	fs.Float64Var(&c.Rate, "rate", 0, "Max requests per second (0 = unlimited)")
	fs.IntVar(&c.Retries, "retries", c.Retries, "Retries on 429/503/504 responses")

	fs.BoolVar(&c.Strict, "strict", false, "Treat the target as a JS file regardless of extension")
	fs.BoolVar(&c.MainOnly, "mainonly", false, "Only parse JS files whose name contains 'main'")
	fs.BoolVar(&c.Continuous, "continuous", false, "Queue JS files discovered inside parsed JS files")
	fs.BoolVar(&c.Auto, "auto", false, "Parse discovered JS files without asking")
	fs.BoolVar(&c.SaveJS, "save-js", false, "Archive parsed JS bodies under the scan directory")
	fs.BoolVar(&c.SkipThirdParty, "skip-thirdparty", false, "Skip well-known CDN and analytics scripts")
	fs.StringVar(&c.SectionsFile, "sections", "", "Keyword list for object classification (one per line)")
	fs.StringVar(&c.IgnoreFile, "ignore", "", "Path ignore list (one per line)")

	fs.StringVar(&c.OutputFile, "o", "", "Mirror console output to this file (styling stripped)")
	fs.StringVar(&c.HTMLReport, "html", "", "Write an HTML analysis report to this path")
	fs.StringVar(&c.JSONReport, "json", "", "Write a JSON analysis report to this path")
	fs.StringVar(&c.ScansDir, "scans", c.ScansDir, "Base directory for per-domain logs")
	fs.StringVar(&noLog, "no-log", "", "Comma separated categories not to persist")
	fs.BoolVar(&c.Silent, "silent", false, "Silent mode (no banner)")
	fs.BoolVar(&c.Verbose, "v", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.URL = strings.TrimSpace(c.URL)
	c.NoLog = splitList(noLog)

	headers, err := ParseHeaders(c.RawHeaders)
	if err != nil {
		return err
	}
	c.Headers = headers

	if abs, err := filepath.Abs(c.ScansDir); err == nil {
		c.ScansDir = abs
	}

	return c.Validate()
}

// Validate checks the option combination before any work starts.
func (c *Config) Validate() error {
	if c.URL == "" && c.ListFile == "" {
		return errors.New("a target is required: -u <url> or -l <file>")
	}
	if c.Mode != ModeCrawl && c.Mode != ModeAnalysis {
		return fmt.Errorf("the mode %q does not exist (use crawl or analysis)", c.Mode)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	return nil
}

// RequestTimeout returns the per-fetch timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Targets returns the URL list to run against: the -l file when given,
// otherwise the single -u target.
func (c *Config) Targets() ([]string, error) {
	if c.ListFile == "" {
		return []string{c.URL}, nil
	}
	return LoadTargets(c.ListFile)
}

// ParseHeaders turns "Key:Value,Key:Value" into a header map. Only the first
// colon separates key from value, so "Referer:https://x" survives intact.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return headers, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("malformed header %q: expected Key:Value", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

// LoadTargets reads one URL per line, skipping blank and '#' lines.
func LoadTargets(path string) ([]string, error) {
	return ReadList(path)
}

// ReadList reads a newline separated list file, skipping blank and comment lines.
func ReadList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return lines, nil
}

// DomainDir returns the per-target directory under ScansDir.
func (c *Config) DomainDir(target string) string {
	return filepath.Join(c.ScansDir, strings.ReplaceAll(HostOf(target), ":", "_"))
}

// HostOf names a target: the URL host, or the file name for local paths.
func HostOf(target string) string {
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		return u.Host
	}
	return filepath.Base(target)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
