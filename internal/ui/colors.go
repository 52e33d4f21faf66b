package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

const (
	Reset    = "\033[0m"
	Red      = "\033[31m"
	Green    = "\033[32m"
	Yellow   = "\033[33m"
	Blue     = "\033[34m"
	Purple   = "\033[35m"
	Cyan     = "\033[36m"
	Gray     = "\033[37m"
	Orange   = "\033[38;5;208m"
	DarkCyan = "\033[2;36m"
	Bold     = "\033[1m"
)

var ansiRe = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// console serializes every write so lines from concurrent crawl workers
// never interleave. mirror, when set, receives the same text without ANSI codes.
var console = struct {
	mu     sync.Mutex
	out    io.Writer
	mirror io.Writer
}{out: os.Stdout}

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// SetOutput redirects console output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	console.mu.Lock()
	defer console.mu.Unlock()
	console.out = w
}

// SetMirror opens path in append mode and copies every console line into it
// with styling stripped. The returned closer detaches and closes the file.
func SetMirror(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	console.mu.Lock()
	console.mirror = f
	console.mu.Unlock()
	return closerFunc(func() error {
		console.mu.Lock()
		console.mirror = nil
		console.mu.Unlock()
		return f.Close()
	}), nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func write(s string) {
	console.mu.Lock()
	defer console.mu.Unlock()
	io.WriteString(console.out, s)
	if console.mirror != nil {
		io.WriteString(console.mirror, StripANSI(s))
	}
}

func Printf(color string, format string, a ...interface{}) {
	write(fmt.Sprintf(color+format+Reset, a...))
}

func Println(color string, a ...interface{}) {
	write(color + fmt.Sprint(a...) + Reset + "\n")
}

// Plain writes an unstyled line.
func Plain(format string, a ...interface{}) {
	write(fmt.Sprintf(format, a...) + "\n")
}

// Tag prints a fixed-width crawl line such as "CRAWLING :: https://...".
func Tag(color, tag, value string) {
	write(fmt.Sprintf("%s%-8s :: %s%s\n", color, tag, value, Reset))
}

func Info(format string, a ...interface{}) {
	write(fmt.Sprintf(Cyan+"[INFO] "+Reset+format+"\n", a...))
}

func Success(format string, a ...interface{}) {
	write(fmt.Sprintf(Green+"[+] "+Reset+format+"\n", a...))
}

func Error(format string, a ...interface{}) {
	write(fmt.Sprintf(Red+"[-] "+Reset+format+"\n", a...))
}

func Warning(format string, a ...interface{}) {
	write(fmt.Sprintf(Yellow+"[!] "+Reset+format+"\n", a...))
}

// Section prints an underlined heading, e.g. "Secrets & Keys".
func Section(title string) {
	write(Cyan + title + "\n" + strings.Repeat("-", len(title)) + Reset + "\n")
}
