package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shaniidev/aranea/internal/classify"
	"github.com/shaniidev/aranea/internal/core"
	"github.com/shaniidev/aranea/internal/output"
	"github.com/shaniidev/aranea/internal/ui"
)

type findingGroup struct {
	kind     core.Kind
	title    string
	color    string
	category string
	sorted   bool
}

var findingGroups = []findingGroup{
	{core.KindSecret, "Secrets & Keys", ui.Red, output.Secrets, false},
	{core.KindEmail, "Emails", ui.Blue, output.Emails, false},
	{core.KindIP, "IP Addresses", ui.Orange, output.IPs, true},
	{core.KindComment, "Developer Comments", ui.Yellow, output.Comments, false},
	{core.KindDOMSink, "Dangerous Functions (DOM Sinks)", ui.Red, output.Sinks, true},
}

func (a *Analyzer) recordFindings(findings []core.Finding) {
	byKind := make(map[core.Kind][]core.Finding)
	for _, f := range findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	for _, g := range findingGroups {
		group := byKind[g.kind]
		if len(group) == 0 {
			continue
		}
		if g.sorted {
			sort.Slice(group, func(i, j int) bool { return group[i].Value < group[j].Value })
		}

		ui.Section(g.title)
		for _, f := range group {
			line := f.Value
			if f.Kind == core.KindSecret {
				line = f.Category + ": " + f.Value
			}
			ui.Println(g.color, line)
			a.report.Add(f)
			a.write(g.category, line)
		}
		ui.Plain("")
	}
}

func (a *Analyzer) recordObjects(jsFile string, literals []string) {
	mapped := a.classifier.MapObjects(literals)

	total := 0
	for _, section := range a.classifier.Sections() {
		objects := mapped[section]
		if len(objects) == 0 {
			continue
		}

		title := fmt.Sprintf("Keyword: %s (Total objects: %d)", section, len(objects))
		ui.Plain("")
		ui.Section(title)
		for _, o := range objects {
			pretty := classify.Pretty(o)
			ui.Println(ui.Yellow, pretty+"\n")
			a.report.Add(core.Finding{Kind: core.KindObject, Value: pretty, SourceFile: jsFile, Category: section})
			a.write(output.Objects, "["+section+"] "+strings.Join(strings.Fields(o), " "))
			total++
		}
	}

	if total == 0 {
		ui.Printf(ui.Reset, "\nThe extraction process yielded no viable %sobjects%s\n\n", ui.Orange, ui.Reset)
	}
}

func (a *Analyzer) recordPaths(jsFile string, paths []classify.Path) {
	if len(paths) == 0 {
		ui.Printf(ui.Reset, "The extraction process yielded no viable %spaths%s\n", ui.Orange, ui.Reset)
		return
	}
	ui.Section("Available Paths")

	// Buckets in order of first appearance.
	var buckets []string
	grouped := classify.GroupPaths(paths)
	seen := make(map[string]bool)
	for _, p := range paths {
		if !seen[p.Bucket] {
			seen[p.Bucket] = true
			buckets = append(buckets, p.Bucket)
		}
	}

	for _, bucket := range buckets {
		values := append([]string(nil), grouped[bucket]...)
		sort.Strings(values)
		ui.Printf(ui.Reset, "%s%s%s (Total paths: %d)\n", ui.Yellow, bucket, ui.Reset, len(values))
		for _, v := range values {
			ui.Println(ui.Green, v)
			a.report.Add(core.Finding{Kind: core.KindPath, Value: v, SourceFile: jsFile, Category: bucket})
			a.write(output.Paths, "["+bucket+"] "+v)
		}
		ui.Plain("")
	}
}
