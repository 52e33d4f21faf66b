package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/shaniidev/aranea/internal/ui"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodySize      = 32 << 20
)

// Options configures a Fetcher.
type Options struct {
	Headers map[string]string
	Timeout time.Duration
	// Rate caps requests per second across all workers; 0 disables pacing.
	Rate float64
	// Retries is how many times a 429/503/504 response is retried.
	Retries int
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	Logger  *logrus.Logger
}

// Response is what the extractors consume. Non-2xx responses are returned
// as-is: scanning applies regardless of status.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the content type announces a JSON payload.
func (r *Response) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "json")
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Fetcher performs GET requests with the caller's headers. When a TLS
// handshake fails certificate verification the request is retried once with
// verification disabled, and the fallback is logged.
type Fetcher struct {
	opts     Options
	client   *http.Client
	insecure *http.Client
	limiter  *rate.Limiter
	log      *logrus.Logger
}

func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	f := &Fetcher{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout, Transport: transport},
		insecure: &http.Client{Timeout: opts.Timeout, Transport: insecureTransport},
		log:      log,
	}
	if opts.Rate > 0 {
		burst := int(opts.Rate)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}
	return f
}

// Fetch downloads rawURL. It returns a *NetworkError when no response could
// be obtained and a *HTTPError, together with the partial response, when the
// body could not be read.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{URL: rawURL, Err: err}
		}
	}

	client := f.client
	for attempt := 0; ; attempt++ {
		resp, err := f.do(ctx, client, rawURL)
		if err != nil && client == f.client && isCertificateError(err) {
			f.log.WithFields(logrus.Fields{"url": rawURL, "error": err}).Warn("TLS verification failed, retrying without verification")
			ui.Warning("TLS verification failed for %s, retrying without verification", rawURL)
			client = f.insecure
			resp, err = f.do(ctx, client, rawURL)
		}
		if err != nil {
			return nil, &NetworkError{URL: rawURL, Err: err}
		}

		status := resp.StatusCode
		if (status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable ||
			status == http.StatusGatewayTimeout) && attempt < f.opts.Retries {
			resp.Body.Close()
			backoff := f.opts.Backoff << uint(attempt)
			f.log.WithFields(logrus.Fields{"url": rawURL, "status": status, "backoff": backoff}).Debug("retrying")
			if err := sleep(ctx, backoff); err != nil {
				return nil, &NetworkError{URL: rawURL, Err: err}
			}
			continue
		}

		return f.read(rawURL, resp)
	}
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json,application/javascript,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}

	return client.Do(req)
}

func (f *Fetcher) read(rawURL string, resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	out := &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return out, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	out.Body = body

	f.log.WithFields(logrus.Fields{"url": rawURL, "status": resp.StatusCode, "bytes": len(body)}).Debug("fetched")
	return out, nil
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
