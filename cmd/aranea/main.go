package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shaniidev/aranea/internal/analysis"
	"github.com/shaniidev/aranea/internal/classify"
	"github.com/shaniidev/aranea/internal/config"
	"github.com/shaniidev/aranea/internal/core"
	"github.com/shaniidev/aranea/internal/crawl"
	"github.com/shaniidev/aranea/internal/fetch"
	"github.com/shaniidev/aranea/internal/frontier"
	"github.com/shaniidev/aranea/internal/output"
	"github.com/shaniidev/aranea/internal/report"
	"github.com/shaniidev/aranea/internal/scan"
	"github.com/shaniidev/aranea/internal/ui"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	cfg := config.NewConfig()
	if err := cfg.ParseFlags(); err != nil {
		ui.Error("%v", err)
		return 1
	}

	if cfg.OutputFile != "" {
		mirror, err := ui.SetMirror(cfg.OutputFile)
		if err != nil {
			ui.Error("%v", err)
			return 1
		}
		defer mirror.Close()
	}

	targets, err := cfg.Targets()
	if err != nil {
		ui.Error("%v", err)
		return 1
	}
	if len(targets) == 0 {
		ui.Error("No targets found in %s", cfg.ListFile)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, multi: len(targets) > 1}
	if cfg.Mode == config.ModeAnalysis {
		if err := a.loadAnalysisRules(); err != nil {
			ui.Error("%v", err)
			return 1
		}
	}

	failed := a.runAll(ctx, targets)
	if ctx.Err() != nil {
		return 130
	}
	if failed > 0 {
		return 1
	}
	ui.Success("ARANEA finished. Check %s", cfg.ScansDir)
	return 0
}

// runAll processes targets one after another and returns how many could not
// be run. An interrupt stops the loop after the current target.
func (a *app) runAll(ctx context.Context, targets []string) int {
	failed := 0
	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		if !a.cfg.Silent {
			ui.Banner(target, a.cfg.Mode, a.cfg.Threads)
		}
		if err := a.run(ctx, target); err != nil {
			if errors.Is(err, context.Canceled) {
				ui.Warning("Interrupted, results so far are saved under %s", a.cfg.DomainDir(target))
				break
			}
			ui.Error("%s: %v", target, err)
			failed++
		}
	}
	return failed
}

type app struct {
	cfg        *config.Config
	multi      bool
	engine     *scan.Engine
	classifier *classify.Classifier
}

func (a *app) loadAnalysisRules() error {
	start := time.Now()
	engine, err := scan.NewEngine()
	if err != nil {
		return fmt.Errorf("load scan patterns: %w", err)
	}
	taxonomy, err := classify.LoadTaxonomy(a.cfg.SectionsFile, a.cfg.IgnoreFile)
	if err != nil {
		return err
	}
	a.engine = engine
	a.classifier = classify.New(taxonomy)
	if !a.cfg.Silent {
		ui.Success("Loaded %s in %v", engine.Summary(), time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// checkTarget rejects targets that cannot start a run: crawls need an
// absolute http(s) URL, analysis also accepts an existing local file.
func (a *app) checkTarget(target string) error {
	isURL := strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
	if a.cfg.Mode == config.ModeCrawl && !isURL {
		return fmt.Errorf("crawl target must be an http(s) URL")
	}
	if !isURL {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("local JS file: %w", err)
		}
	}
	return nil
}

func (a *app) run(ctx context.Context, target string) error {
	if err := a.checkTarget(target); err != nil {
		return err
	}

	domainDir := a.cfg.DomainDir(target)
	log, logFile, err := newLogger(a.cfg, domainDir)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.WithField("target", target).WithField("mode", a.cfg.Mode).Info("run started")

	sink := output.NewSink(domainDir, a.cfg.NoLog, log)
	defer sink.Close()

	fetcher := fetch.New(fetch.Options{
		Headers: a.cfg.Headers,
		Timeout: a.cfg.RequestTimeout(),
		Rate:    a.cfg.Rate,
		Retries: a.cfg.Retries,
		Logger:  log,
	})

	if a.cfg.Mode == config.ModeCrawl {
		return a.crawl(ctx, target, fetcher, sink, log)
	}
	return a.analyze(ctx, target, domainDir, fetcher, sink, log)
}

func (a *app) crawl(ctx context.Context, target string, fetcher *fetch.Fetcher, sink *output.Sink, log *logrus.Logger) error {
	aliases, err := frontier.NewAliases(target)
	if err != nil {
		return err
	}
	if a.cfg.HTMLReport != "" || a.cfg.JSONReport != "" {
		ui.Warning("Reports are produced in analysis mode only")
	}

	f := frontier.New(target, aliases)
	stats, err := crawl.New(f, fetcher, sink, crawl.Options{Threads: a.cfg.Threads, Logger: log}).Run(ctx)
	log.WithField("rounds", stats.Rounds).WithField("internal", stats.Internal).
		WithField("external", stats.External).WithField("failed", stats.Failed).Info("crawl finished")

	ui.Plain("")
	ui.Success("Crawled %d internal URLs (%d external recorded, %d failed) in %d rounds, %v",
		stats.Internal, stats.External, stats.Failed, stats.Rounds, stats.Duration.Round(time.Millisecond))
	printCategories(sink)
	ui.Info("Logs written to %s", sink.Dir())
	return err
}

// printCategories lists each category file written this run with its entry
// count.
func printCategories(sink *output.Sink) {
	var rows []string
	for _, c := range sink.Categories() {
		rows = append(rows, fmt.Sprintf("%-24s %d", filepath.Base(sink.Path(c)), sink.Count(c)))
	}
	if len(rows) > 0 {
		ui.PrintTable(rows, "Log files", len(rows))
	}
}

func (a *app) analyze(ctx context.Context, target, domainDir string, fetcher *fetch.Fetcher, sink *output.Sink, log *logrus.Logger) error {
	var approver analysis.Approver = analysis.PromptApprover{}
	if a.cfg.Auto {
		approver = analysis.AutoApprover{}
	}
	opts := analysis.Options{
		Strict:         a.cfg.Strict,
		MainOnly:       a.cfg.MainOnly,
		Continuous:     a.cfg.Continuous,
		SkipThirdParty: a.cfg.SkipThirdParty,
		Approver:       approver,
		Logger:         log,
	}
	if a.cfg.SaveJS {
		opts.ArchiveDir = filepath.Join(domainDir, "js_files")
	}

	rep := core.NewReport(target)
	err := analysis.New(fetcher, a.engine, a.classifier, sink, rep, opts).Run(ctx, target)

	// Whatever was gathered is reported, even after an interrupt.
	a.writeReports(target, rep)
	parsed := rep.Snapshot().ParsedFiles
	if len(parsed) > 0 {
		ui.PrintTable(parsed, "Parsed JS files", 25)
	}
	ui.Success("%d findings across %d parsed files", rep.Total(), len(parsed))
	printCategories(sink)
	return err
}

func (a *app) writeReports(target string, rep *core.Report) {
	if a.cfg.HTMLReport != "" {
		path := reportPath(a.cfg.HTMLReport, target, a.multi)
		if err := report.SaveHTML(path, rep); err != nil {
			ui.Error("HTML report: %v", err)
		} else {
			ui.Success("HTML report saved to %s", path)
		}
	}
	if a.cfg.JSONReport != "" {
		path := reportPath(a.cfg.JSONReport, target, a.multi)
		if err := report.SaveJSON(path, rep); err != nil {
			ui.Error("JSON report: %v", err)
		} else {
			ui.Success("JSON report saved to %s", path)
		}
	}
}

// reportPath keeps one report per target when several targets share a flag:
// "out/report.html" becomes "out/report_example.com.html".
func reportPath(path, target string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	host := filepath.Base(config.HostOf(target))
	return strings.TrimSuffix(path, ext) + "_" + host + ext
}
