// Package fetch downloads the companyfacts archive over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/logging"
	"github.com/findrum/companyfacts/internal/validation"
)

// DefaultURL is the public SEC bulk download.
const DefaultURL = "https://www.sec.gov/Archives/edgar/daily-index/xbrl/companyfacts.zip"

// Options configures the fetcher.
type Options struct {
	URL string

	// Email is the contact address the SEC requires in the User-Agent.
	Email string

	// Timeout bounds each request attempt.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a retriable failure.
	MaxRetries int

	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration

	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Fetcher retrieves archive bytes.
type Fetcher struct {
	url        string
	userAgent  string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// New creates a fetcher. The email is mandatory.
func New(opts Options) (*Fetcher, error) {
	if opts.Email == "" {
		return nil, errors.NewMissingField("source.email")
	}
	if err := validation.ValidateEmail(opts.Email); err != nil {
		return nil, errors.NewValidation("source.email", err.Error())
	}

	f := &Fetcher{
		url:        opts.URL,
		userAgent:  fmt.Sprintf("companyfacts (%s)", opts.Email),
		client:     opts.Client,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
	if f.url == "" {
		f.url = DefaultURL
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.timeout <= 0 {
		f.timeout = 30 * time.Second
	}
	if f.maxRetries < 0 {
		f.maxRetries = 0
	}
	return f, nil
}

// URL returns the source URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads the archive. Transport errors, 429 and 5xx responses are
// retried with exponential backoff; any other non-2xx status fails at once.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	log := logging.FromContext(ctx, "fetch")
	delay := f.backoff

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn("retrying download", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		data, err := f.fetchOnce(ctx)
		if err == nil {
			log.Info("archive downloaded", "url", f.url, "bytes", len(data), "attempts", attempt+1)
			return data, nil
		}
		if !errors.IsRetriable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", f.maxRetries+1, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := f.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("%v: %w", err, errors.ErrTimeout)
		case ctx.Err() != nil:
			return nil, err
		default:
			return nil, fmt.Errorf("%v: %w", err, errors.ErrConnectionFailed)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := errors.NewRetrieval(f.url, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w (%w)", err, errors.ErrConnectionFailed)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, errors.ErrConnectionFailed)
	}
	return data, nil
}
