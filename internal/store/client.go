package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
)

const defaultUserAgent = "coverscout/1.0"

// Client fetches and parses storefront search pages. It is safe to reuse
// across a batch; each remote call is preceded by a fixed throttle delay.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	userAgent  string
	throttle   time.Duration
	maxResults int
}

// NewClient creates a storefront client. throttle is the fixed delay slept
// before every remote fetch; maxResults caps extracted candidates per search
// (<= 0 for unlimited).
func NewClient(baseURL string, timeout, throttle time.Duration, maxResults int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout

	return &Client{
		httpClient: rc,
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		throttle:   throttle,
		maxResults: maxResults,
	}
}

// Search fetches the storefront's search page for q in the given locale and
// extracts candidates. Network or non-2xx failures are returned as errors;
// a well-formed page without results yields an empty slice and nil error.
func (c *Client) Search(ctx context.Context, q Query, locale string) ([]Candidate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if err := c.sleep(ctx); err != nil {
		return nil, err
	}

	doc, err := c.fetch(ctx, c.searchURL(q, locale))
	if err != nil {
		return nil, err
	}
	return Extract(doc, c.maxResults)
}

// FetchPage fetches a single item page (album or track detail) and extracts
// at most one candidate from it.
func (c *Client) FetchPage(ctx context.Context, pageURL string, preferredSize int, trackHint string) ([]Candidate, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}

	doc, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractFromPage(doc, preferredSize, trackHint)
}

func (c *Client) searchURL(q Query, locale string) string {
	params := url.Values{}
	params.Set("term", q.Raw())
	if locale == "" {
		locale = "us"
	}
	return fmt.Sprintf("%s/%s/search?%s", c.baseURL, locale, params.Encode())
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d for %s", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParserUnavailable, err)
	}
	return doc, nil
}

// sleep blocks for the throttle delay, bailing early if ctx is cancelled.
func (c *Client) sleep(ctx context.Context) error {
	if c.throttle <= 0 {
		return nil
	}
	timer := time.NewTimer(c.throttle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
