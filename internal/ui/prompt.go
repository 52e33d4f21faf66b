package ui

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"
)

var prompt = struct {
	mu sync.Mutex
	in *bufio.Reader
}{in: bufio.NewReader(os.Stdin)}

// SetInput replaces the reader prompts consume. Tests use it to script answers.
func SetInput(r io.Reader) {
	prompt.mu.Lock()
	defer prompt.mu.Unlock()
	prompt.in = bufio.NewReader(r)
}

// Prompt prints question and returns the trimmed answer line.
// Only one prompt is outstanding at a time.
func Prompt(question string) string {
	prompt.mu.Lock()
	defer prompt.mu.Unlock()

	write(question + " ")
	line, err := prompt.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// Confirm asks a y/N question. Anything other than "y" or "yes" is a no.
func Confirm(question string) bool {
	switch strings.ToLower(Prompt(question)) {
	case "y", "yes":
		return true
	}
	return false
}
