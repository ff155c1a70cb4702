// Package linkcheck probes URLs with HEAD requests. A failed probe is a
// result, not an error: callers always get one Status per URL.
package linkcheck

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultWorkers = 8
)

// Status is the outcome of probing one URL. Code is 0 when no response was
// received, in which case Reason holds the error text.
type Status struct {
	URL    string
	Code   int
	Reason string
}

// Checker issues HEAD requests with a per-request timeout and bounded
// concurrency.
type Checker struct {
	Client  *http.Client
	Timeout time.Duration
	Workers int
	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// New returns a Checker with the given per-request timeout.
func New(timeout time.Duration) *Checker {
	return &Checker{Timeout: timeout}
}

// Check probes every URL and returns statuses in the order of urls. URLs not
// yet probed when ctx is done are reported with ctx's error.
func (c *Checker) Check(ctx context.Context, urls []string) []Status {
	statuses := make([]Status, len(urls))
	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, url := range urls {
		g.Go(func() error {
			statuses[i] = c.head(ctx, url)
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

func (c *Checker) head(ctx context.Context, url string) Status {
	if err := ctx.Err(); err != nil {
		return Status{URL: url, Reason: err.Error()}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return Status{URL: url, Reason: err.Error()}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Status{URL: url, Reason: err.Error()}
	}
	defer resp.Body.Close()

	return Status{URL: url, Code: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
}
