// Package analysis finds the JavaScript files behind a target and reads
// them for secrets, contact data, developer comments, DOM sinks, object
// literals and paths.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/shaniidev/aranea/internal/classify"
	"github.com/shaniidev/aranea/internal/core"
	"github.com/shaniidev/aranea/internal/extract"
	"github.com/shaniidev/aranea/internal/fetch"
	"github.com/shaniidev/aranea/internal/output"
	"github.com/shaniidev/aranea/internal/scan"
	"github.com/shaniidev/aranea/internal/ui"
	"github.com/shaniidev/aranea/internal/utils"
)

// jsBucket is the path bucket continuous discovery follows.
const jsBucket = "JS Files"

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Response, error)
}

type Options struct {
	// Strict treats the target itself as a JS file.
	Strict bool
	// MainOnly skips candidates whose URL lacks "main".
	MainOnly       bool
	Continuous     bool
	SkipThirdParty bool
	// ArchiveDir, when set, receives a copy of every parsed body.
	ArchiveDir string
	Approver   Approver
	Logger     *logrus.Logger
}

type Analyzer struct {
	fetcher    Fetcher
	engine     *scan.Engine
	classifier *classify.Classifier
	sink       *output.Sink
	report     *core.Report
	opts       Options
	log        *logrus.Logger
	archived   int
}

func New(fetcher Fetcher, engine *scan.Engine, classifier *classify.Classifier, sink *output.Sink, report *core.Report, opts Options) *Analyzer {
	if opts.Approver == nil {
		opts.Approver = PromptApprover{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Analyzer{
		fetcher:    fetcher,
		engine:     engine,
		classifier: classifier,
		sink:       sink,
		report:     report,
		opts:       opts,
		log:        log,
	}
}

// Report returns the accumulator the analyzer fills.
func (a *Analyzer) Report() *core.Report {
	return a.report
}

// Run analyses target. A local file is parsed directly, as is a target that
// names a JS file (or any target in strict mode). Otherwise the target page
// is fetched and its scripts are drained through the discovery queue.
func (a *Analyzer) Run(ctx context.Context, target string) error {
	if isLocal(target) {
		_, err := a.Parse(ctx, target)
		return err
	}
	if utils.IsJSFile(target) || a.opts.Strict {
		_, err := a.Parse(ctx, target)
		return err
	}

	seeds, err := a.discover(ctx, target)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		ui.Warning("No JS files referenced by %s", target)
		return nil
	}
	return a.Drain(ctx, NewQueue(seeds...))
}

func (a *Analyzer) discover(ctx context.Context, target string) ([]string, error) {
	resp, err := a.fetcher.Fetch(ctx, target)
	var httpErr *fetch.HTTPError
	if err != nil && !errors.As(err, &httpErr) {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp == nil {
		return nil, nil
	}
	seeds := extract.ScriptSources(target, resp.Body)
	a.log.WithFields(logrus.Fields{"url": target, "scripts": len(seeds)}).Info("discovered scripts")
	return seeds, nil
}

// Drain processes q until it is empty or ctx is cancelled. Parse failures are
// reported per file and never stop the drain.
func (a *Analyzer) Drain(ctx context.Context, q *Queue) error {
	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		js, _ := q.Pop()

		if a.opts.MainOnly && !strings.Contains(js, "main") {
			continue
		}
		if a.opts.SkipThirdParty && utils.ShouldSkipThirdPartyJS(js) {
			a.log.WithField("url", js).Debug("skipping third-party script")
			continue
		}
		if !q.Visit(js) {
			continue
		}

		ui.Printf(ui.Reset, "\n%sNEXT%s %s %s(%d left)%s\n", ui.DarkCyan, ui.Reset, js, ui.Yellow, q.Len(), ui.Reset)
		if !a.opts.Approver.Approve(js, q.Len()) {
			continue
		}

		paths, err := a.Parse(ctx, js)
		if err != nil {
			ui.Tag(ui.Red, "ERROR", fmt.Sprintf("Failed to parse! (%s)", js))
			a.log.WithFields(logrus.Fields{"url": js, "error": err}).Warn("parse failed")
			continue
		}

		if a.opts.Continuous {
			a.follow(q, js, paths)
		}
	}
	return nil
}

// follow queues the JS paths found inside js, resolved against it.
func (a *Analyzer) follow(q *Queue, js string, paths []classify.Path) {
	var added []string
	for _, p := range paths {
		if p.Bucket != jsBucket {
			continue
		}
		full := p.Value
		if !strings.HasPrefix(full, "http") {
			full = extract.Resolve(js, full)
		}
		if q.Push(full) {
			added = append(added, full)
		}
	}
	if len(added) == 0 {
		return
	}
	ui.Println(ui.Cyan, fmt.Sprintf("Continuous Mode: Found %d new JS candidate(s).", len(added)))
	for _, u := range added {
		ui.Println(ui.Green, " + Added to queue: "+u)
	}
}

// Parse reads one JS file, local or remote, and records everything found in
// it. It returns the classified paths.
func (a *Analyzer) Parse(ctx context.Context, jsFile string) ([]classify.Path, error) {
	ui.Printf(ui.Reset, "Fetching %s%s%s\n", ui.Cyan, jsFile, ui.Reset)
	a.report.AddParsedFile(jsFile)

	content, err := a.load(ctx, jsFile)
	if err != nil {
		return nil, err
	}
	a.archive(jsFile, content)

	a.recordFindings(a.engine.Scan(content, jsFile))
	a.recordObjects(jsFile, a.engine.Literals(content))
	paths := a.classifier.Paths(content)
	a.recordPaths(jsFile, paths)

	a.log.WithFields(logrus.Fields{"file": jsFile, "bytes": len(content), "paths": len(paths)}).Info("parsed")
	return paths, nil
}

func (a *Analyzer) load(ctx context.Context, jsFile string) (string, error) {
	if isLocal(jsFile) {
		data, err := os.ReadFile(jsFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", jsFile, err)
		}
		return string(data), nil
	}

	resp, err := a.fetcher.Fetch(ctx, jsFile)
	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (a *Analyzer) archive(jsFile, content string) {
	if a.opts.ArchiveDir == "" || content == "" {
		return
	}
	if err := utils.EnsureDir(a.opts.ArchiveDir); err != nil {
		a.log.WithError(err).Warn("cannot create JS archive")
		return
	}
	a.archived++
	name := utils.GenerateFilename(jsFile, a.archived)
	dest := filepath.Join(a.opts.ArchiveDir, name)
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		a.log.WithFields(logrus.Fields{"file": jsFile, "error": err}).Warn("archive write failed")
		return
	}
	a.log.WithFields(logrus.Fields{"file": jsFile, "dest": dest, "size": utils.FormatSize(int64(len(content)))}).Debug("archived")

	// index.txt maps each archived URL to its file: URL|filename
	index, err := os.OpenFile(filepath.Join(a.opts.ArchiveDir, "index.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		a.log.WithError(err).Warn("archive index unavailable")
		return
	}
	defer index.Close()
	fmt.Fprintf(index, "%s|%s\n", jsFile, name)
}

func (a *Analyzer) write(category, value string) {
	if _, err := a.sink.Write(category, value); err != nil {
		a.log.WithFields(logrus.Fields{"category": category, "error": err}).Error("sink write failed")
	}
}

func isLocal(target string) bool {
	if strings.HasPrefix(target, "http:") || strings.HasPrefix(target, "https:") {
		return false
	}
	return utils.FileExists(target)
}
