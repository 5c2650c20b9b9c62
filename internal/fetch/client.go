// Package fetch provides the cache-or-download collaborator the extractors
// read external sources through. Fetches go to the on-disk cache first;
// live requests are spaced out so upstream sources are never hammered, which
// is also why extractors run sequentially rather than in parallel.
package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
)

// DefaultTimeout is the default timeout for HTTP requests.
const DefaultTimeout = 30 * time.Second

// DefaultPause is the default politeness delay between live fetches.
const DefaultPause = time.Second

// Client fetches external source data with caching and rate limiting.
type Client struct {
	http      *http.Client
	cache     *Cache
	pause     time.Duration
	userAgent string
	lastFetch time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithCache attaches an on-disk cache.
func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithPause overrides the politeness delay between live fetches.
func WithPause(pause time.Duration) Option {
	return func(c *Client) {
		c.pause = pause
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header for live fetches.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a fetch client.
func New(opts ...Option) *Client {
	c := &Client{
		http:  &http.Client{Timeout: DefaultTimeout},
		pause: DefaultPause,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the body at url, from cache when possible.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			logging.FromContext(ctx).Debug().Str("url", url).Msg("Cache hit")
			return body, nil
		}
	}

	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(url, body); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("url", url).Msg("Failed to cache response")
		}
	}
	return body, nil
}

// GetJSON fetches url and decodes the body as JSON into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", url, err)
	}
	return nil
}

// GetDocument fetches url and parses the body as an HTML document.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.WrapParse("html", url, err)
	}
	return doc, nil
}

// download performs a live HTTP GET, honoring the politeness pause.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	if c.pause > 0 && !c.lastFetch.IsZero() {
		if wait := c.pause - time.Since(c.lastFetch); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	c.lastFetch = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("create", "GET "+url, err)
	}
	req.Header.Set("Accept", "*/*")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	logging.FromContext(ctx).Debug().Str("url", url).Msg("Downloading")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapAPI(url, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.APIError{
			Source:     url,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
