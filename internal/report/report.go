// Package report renders an analysis accumulator as a static HTML dashboard
// or as JSON.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/shaniidev/aranea/internal/core"
	"github.com/shaniidev/aranea/internal/utils"
)

//go:embed report.html.tmpl
var htmlTemplate string

var dashboard = template.Must(template.New("report").Funcs(sprig.FuncMap()).Parse(htmlTemplate))

// Group is one named bucket of entries.
type Group struct {
	Name    string
	Entries []core.Entry
}

// View is the data the HTML template renders.
type View struct {
	*core.Report
	Generated    time.Time
	ObjectGroups []Group
	PathGroups   []Group
	ObjectCount  int
	PathCount    int
}

// NewView snapshots r. Paths are sorted within each bucket; buckets and
// sections are listed alphabetically.
func NewView(r *core.Report) *View {
	snap := r.Snapshot()
	v := &View{Report: snap, Generated: time.Now()}

	for _, name := range core.SortedKeys(snap.Objects) {
		entries := snap.Objects[name]
		v.ObjectGroups = append(v.ObjectGroups, Group{Name: name, Entries: entries})
		v.ObjectCount += len(entries)
	}
	for _, name := range core.SortedKeys(snap.Paths) {
		entries := append([]core.Entry(nil), snap.Paths[name]...)
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value < entries[j].Value })
		v.PathGroups = append(v.PathGroups, Group{Name: name, Entries: entries})
		v.PathCount += len(entries)
	}
	return v
}

// WriteHTML renders the dashboard for r.
func WriteHTML(w io.Writer, r *core.Report) error {
	if err := dashboard.Execute(w, NewView(r)); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(w io.Writer, r *core.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Snapshot()); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// SaveHTML writes the dashboard to path, creating parent directories.
func SaveHTML(path string, r *core.Report) error {
	return save(path, r, WriteHTML)
}

// SaveJSON writes the JSON report to path, creating parent directories.
func SaveJSON(path string, r *core.Report) error {
	return save(path, r, WriteJSON)
}

func save(path string, r *core.Report, render func(io.Writer, *core.Report) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := render(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
