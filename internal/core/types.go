package core

import (
	"sort"
	"sync"
)

// Kind tags a Finding.
type Kind string

const (
	KindSecret  Kind = "secret"
	KindEmail   Kind = "email"
	KindIP      Kind = "ip"
	KindDOMSink Kind = "sink"
	KindComment Kind = "comment"
	KindObject  Kind = "object"
	KindPath    Kind = "path"
)

// Finding is one value extracted from scanned text. Category is the bucket it
// belongs to: the secret type ("AWS Key"), a keyword section for objects, or a
// path bucket ("API Paths").
type Finding struct {
	Kind       Kind   `json:"kind"`
	Value      string `json:"value"`
	SourceFile string `json:"file,omitempty"`
	Category   string `json:"category"`
}

// Entry is a value plus the file it came from, as listed in reports.
type Entry struct {
	Value string `json:"value"`
	File  string `json:"file"`
}

// Report accumulates analysis findings for one target. It is safe for
// concurrent use; renderers read it through Snapshot.
type Report struct {
	mu sync.Mutex

	Target      string             `json:"target_url"`
	ParsedFiles []string           `json:"parsed_files"`
	Secrets     []Entry            `json:"secrets"`
	Emails      []Entry            `json:"emails"`
	IPs         []Entry            `json:"ips"`
	Comments    []Entry            `json:"comments"`
	Sinks       []Entry            `json:"sinks"`
	Objects     map[string][]Entry `json:"objects"`
	Paths       map[string][]Entry `json:"paths"`
}

func NewReport(target string) *Report {
	return &Report{
		Target:      target,
		ParsedFiles: make([]string, 0),
		Secrets:     make([]Entry, 0),
		Emails:      make([]Entry, 0),
		IPs:         make([]Entry, 0),
		Comments:    make([]Entry, 0),
		Sinks:       make([]Entry, 0),
		Objects:     make(map[string][]Entry),
		Paths:       make(map[string][]Entry),
	}
}

// AddParsedFile records file once.
func (r *Report) AddParsedFile(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.ParsedFiles {
		if f == file {
			return
		}
	}
	r.ParsedFiles = append(r.ParsedFiles, file)
}

// Add files a finding under its kind. Secrets are listed as "Type: value".
func (r *Report) Add(f Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch f.Kind {
	case KindSecret:
		r.Secrets = append(r.Secrets, Entry{Value: f.Category + ": " + f.Value, File: f.SourceFile})
	case KindEmail:
		r.Emails = append(r.Emails, Entry{Value: f.Value, File: f.SourceFile})
	case KindIP:
		r.IPs = append(r.IPs, Entry{Value: f.Value, File: f.SourceFile})
	case KindComment:
		r.Comments = append(r.Comments, Entry{Value: f.Value, File: f.SourceFile})
	case KindDOMSink:
		r.Sinks = append(r.Sinks, Entry{Value: f.Value, File: f.SourceFile})
	case KindObject:
		r.Objects[f.Category] = append(r.Objects[f.Category], Entry{Value: f.Value, File: f.SourceFile})
	case KindPath:
		r.Paths[f.Category] = append(r.Paths[f.Category], Entry{Value: f.Value, File: f.SourceFile})
	}
}

// Snapshot returns a deep copy that renderers can read without locking.
func (r *Report) Snapshot() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := &Report{
		Target:      r.Target,
		ParsedFiles: append([]string(nil), r.ParsedFiles...),
		Secrets:     append([]Entry(nil), r.Secrets...),
		Emails:      append([]Entry(nil), r.Emails...),
		IPs:         append([]Entry(nil), r.IPs...),
		Comments:    append([]Entry(nil), r.Comments...),
		Sinks:       append([]Entry(nil), r.Sinks...),
		Objects:     make(map[string][]Entry, len(r.Objects)),
		Paths:       make(map[string][]Entry, len(r.Paths)),
	}
	for k, v := range r.Objects {
		cp.Objects[k] = append([]Entry(nil), v...)
	}
	for k, v := range r.Paths {
		cp.Paths[k] = append([]Entry(nil), v...)
	}
	return cp
}

// Total counts every recorded finding.
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.Secrets) + len(r.Emails) + len(r.IPs) + len(r.Comments) + len(r.Sinks)
	for _, v := range r.Objects {
		n += len(v)
	}
	for _, v := range r.Paths {
		n += len(v)
	}
	return n
}

// SortedKeys returns the keys of a bucket map in lexical order.
func SortedKeys(m map[string][]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
