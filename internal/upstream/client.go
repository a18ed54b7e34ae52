package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agromandi-lab/agromandi/internal/core/market"
)

// ErrUnavailable marks any transport, timeout or non-2xx failure against the
// upstream price API. A failure on any page aborts the whole fetch — the
// caller never sees a partially paginated record set.
var ErrUnavailable = errors.New("upstream price API unavailable")

// RetryPolicy is the named per-page retry decision. "none" matches the
// historical behavior of the service; "backoff" retries with exponential
// delay before giving up.
type RetryPolicy string

const (
	RetryNone    RetryPolicy = "none"
	RetryBackoff RetryPolicy = "backoff"
)

const (
	defaultPageSize       = 1000
	defaultPageDelay      = 200 * time.Millisecond
	defaultRequestTimeout = 20 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Options configures the upstream client.
type Options struct {
	BaseURL        string
	ResourceID     string
	APIKey         string
	PageSize       int
	PageDelay      time.Duration
	RequestTimeout time.Duration
	RetryPolicy    RetryPolicy
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func (o Options) normalized() Options {
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.PageDelay < 0 {
		o.PageDelay = defaultPageDelay
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.RetryPolicy == "" {
		o.RetryPolicy = RetryNone
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = defaultRetryAttempts
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = defaultRetryBaseDelay
	}
	return o
}

// Client fetches paginated record pages from the price dataset. It is
// transport only: record contents are never interpreted here.
type Client struct {
	opts Options
	h    *http.Client
}

// NewClient creates an upstream client. The http.Client carries no global
// timeout — each page request gets its own deadline via context.
func NewClient(opts Options) *Client {
	return &Client{
		opts: opts.normalized(),
		h:    &http.Client{},
	}
}

// pageResponse is the upstream page envelope. Only records and total are
// interpreted; everything inside a record stays duck-typed.
type pageResponse struct {
	Total   int                `json:"total"`
	Records []market.RawRecord `json:"records"`
}

// FetchAllPages retrieves every record for the commodity, page by page.
// Pages are fetched strictly in increasing offset order: termination
// depends on the previous page's size (a short or empty page ends the
// data). A politeness delay separates consecutive page requests.
func (c *Client) FetchAllPages(ctx context.Context, commodity string) ([]market.RawRecord, error) {
	var all []market.RawRecord
	offset := 0
	for {
		records, err := c.fetchPage(ctx, commodity, offset)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		all = append(all, records...)
		if len(records) < c.opts.PageSize {
			break
		}
		offset += c.opts.PageSize

		if err := sleepContext(ctx, c.opts.PageDelay); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return all, nil
}

// fetchPage issues one page request, applying the configured retry policy.
func (c *Client) fetchPage(ctx context.Context, commodity string, offset int) ([]market.RawRecord, error) {
	attempts := 1
	if c.opts.RetryPolicy == RetryBackoff {
		attempts = c.opts.RetryAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.opts.RetryBaseDelay << (attempt - 1)
			slog.Warn("Retrying upstream page fetch",
				"commodity", commodity,
				"offset", offset,
				"attempt", attempt+1,
				"delay", delay,
			)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		records, err := c.doPage(ctx, commodity, offset)
		if err == nil {
			return records, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doPage(ctx context.Context, commodity string, offset int) ([]market.RawRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	u, err := url.Parse(c.opts.BaseURL + "/resource/" + c.opts.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base url: %v", ErrUnavailable, err)
	}
	q := u.Query()
	q.Set("api-key", c.opts.APIKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.opts.PageSize))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("filters[commodity]", commodity)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: page at offset %d: %v", ErrUnavailable, offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: page at offset %d returned %d: %s",
			ErrUnavailable, offset, resp.StatusCode, string(body))
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: page at offset %d: decoding body: %v", ErrUnavailable, offset, err)
	}
	return page.Records, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
