// Package crawl drives a domain-scoped crawl in rounds. Each round takes the
// frontier's current backlog, runs one task per queued URL on a bounded
// worker pool, and waits for all of them before looking at the frontier
// again. A URL discovered during round N is therefore dispatched in round
// N+1 at the earliest.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shaniidev/aranea/internal/fetch"
	"github.com/shaniidev/aranea/internal/frontier"
	"github.com/shaniidev/aranea/internal/output"
	"github.com/shaniidev/aranea/internal/ui"
)

// Fetcher is the subset of *fetch.Fetcher the scheduler needs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Response, error)
}

type Options struct {
	Threads int
	Logger  *logrus.Logger
}

// Stats summarises a finished crawl.
type Stats struct {
	Rounds   int
	Crawled  int64
	Failed   int64
	Internal int
	External int
	Duration time.Duration
}

type Scheduler struct {
	frontier *frontier.Frontier
	fetcher  Fetcher
	sink     *output.Sink
	threads  int
	log      *logrus.Logger

	crawled atomic.Int64
	failed  atomic.Int64
}

func New(f *frontier.Frontier, fetcher Fetcher, sink *output.Sink, opts Options) *Scheduler {
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Scheduler{
		frontier: f,
		fetcher:  fetcher,
		sink:     sink,
		threads:  threads,
		log:      log,
	}
}

// Run crawls until the frontier is empty or ctx is cancelled. Task failures
// are logged and never abort the crawl; the only error returned is the
// context's.
func (s *Scheduler) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	for {
		if err := ctx.Err(); err != nil {
			return s.finish(stats, start), err
		}
		backlog := s.frontier.Len()
		if backlog == 0 {
			break
		}
		stats.Rounds++
		s.log.WithFields(logrus.Fields{"round": stats.Rounds, "backlog": backlog}).Debug("round started")

		var g errgroup.Group
		g.SetLimit(s.threads)
		for i := 0; i < backlog; i++ {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				s.runTask(ctx)
				return nil
			})
		}
		g.Wait()
	}

	return s.finish(stats, start), nil
}

func (s *Scheduler) finish(stats Stats, start time.Time) Stats {
	stats.Crawled = s.crawled.Load()
	stats.Failed = s.failed.Load()
	stats.Internal = len(s.frontier.Internal())
	stats.External = len(s.frontier.External())
	stats.Duration = time.Since(start)
	return stats
}

// runTask handles one dequeued URL. Panics are contained to the task.
func (s *Scheduler) runTask(ctx context.Context) {
	url, class, err := s.frontier.Next()
	if errors.Is(err, frontier.ErrEmptyFrontier) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			s.log.WithFields(logrus.Fields{"url": url, "panic": r}).Error("crawl task panicked")
			ui.Tag(ui.Red, "ERROR", fmt.Sprintf("Failed to crawl! (%s)", url))
		}
	}()

	if class == frontier.External {
		s.record(output.External, url)
		ui.Tag(ui.Yellow, "EXTERNAL", url)
		return
	}

	s.record(DirectoryOf(url), url)
	ui.Tag(ui.Green, "CRAWLING", url)
	s.crawled.Add(1)

	if err := s.process(ctx, url); err != nil {
		s.failed.Add(1)
		s.reportFailure(url, err)
	}
}

func (s *Scheduler) reportFailure(url string, err error) {
	var netErr *fetch.NetworkError
	switch {
	case errors.As(err, &netErr):
		ui.Tag(ui.Red, "ERROR", fmt.Sprintf("Failed to establish a new connection! (%s)", url))
	default:
		ui.Tag(ui.Red, "ERROR", fmt.Sprintf("Failed to crawl! (%s)", url))
	}
	s.log.WithFields(logrus.Fields{"url": url, "error": err}).Warn("crawl task failed")
}

// record writes url to category, logging rather than failing on disk errors.
func (s *Scheduler) record(category, url string) bool {
	fresh, err := s.sink.WriteURL(category, url)
	if err != nil {
		s.log.WithFields(logrus.Fields{"category": category, "url": url, "error": err}).Error("sink write failed")
	}
	return fresh
}
