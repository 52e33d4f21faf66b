package crawl

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/shaniidev/aranea/internal/extract"
	"github.com/shaniidev/aranea/internal/fetch"
	"github.com/shaniidev/aranea/internal/output"
	"github.com/shaniidev/aranea/internal/ui"
)

// process fetches an internal URL and feeds everything it references back
// into the frontier and the sink.
func (s *Scheduler) process(ctx context.Context, pageURL string) error {
	if extract.IsParametrized(pageURL) {
		s.record(output.Parametrized, pageURL)
	}

	resp, err := s.fetcher.Fetch(ctx, pageURL)
	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		// Unreadable body: nothing to extract, not a failure.
		s.log.WithFields(logrus.Fields{"url": pageURL, "error": err}).Debug("empty fetch result")
		return nil
	}
	if err != nil {
		return err
	}

	if resp.IsJSON() {
		s.followLiterals(resp.Text())
		return nil
	}

	page := extract.ParseHTML(pageURL, resp.Body)

	for _, link := range page.Anchors {
		s.frontier.Enqueue(link)
	}

	for _, src := range page.Scripts {
		if s.frontier.MarkSeen(src) {
			if s.record(output.JS, src) {
				ui.Tag(ui.Cyan, "JS File", src)
			}
		}
	}
	for _, inline := range page.InlineScripts {
		s.followLiterals(inline)
	}

	for _, action := range page.Forms {
		if extract.IsParametrized(action) {
			s.record(output.Parametrized, action)
		}
		if s.frontier.Enqueue(action) {
			ui.Tag(ui.DarkCyan, "F-ACTION", action)
		}
	}

	for _, email := range extract.Emails(resp.Text()) {
		if s.record(output.Emails, email) {
			ui.Tag(ui.Blue, "EMAIL", email)
		}
	}
	return nil
}

// followLiterals queues internal URL literals and records external ones once.
func (s *Scheduler) followLiterals(text string) {
	aliases := s.frontier.Aliases()
	for _, u := range extract.URLLiterals(text) {
		u = extract.StripFragment(u)
		if u == "" || s.frontier.IsVisited(u) {
			continue
		}
		if aliases.IsInternal(u) {
			s.frontier.Enqueue(u)
			continue
		}
		if s.frontier.MarkSeen(u) {
			s.record(output.Extracted, u)
			ui.Tag(ui.Orange, "EXTRACT", u)
		}
	}
}

// DirectoryOf names the log category of an internal URL: a directory category
// for its first path segment when the URL has a query or at least two path
// segments, otherwise the general bucket.
func DirectoryOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return output.General
	}
	segments := strings.Split(u.Path, "/")
	if (len(segments) > 1 && u.RawQuery != "") || (len(segments) > 2 && segments[2] != "") {
		if segments[1] != "" {
			return output.Directory(segments[1])
		}
	}
	return output.General
}
