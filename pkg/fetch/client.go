// Package fetch provides the single shared HTTP client used by every site
// adapter. Per-site user agents and headers come from the site config; the
// underlying connection pool is shared.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/guloader/guloader/pkg/config"
)

const defaultUserAgent = "GuLoader/1.0 (Professional Manga Monitoring System)"

// StatusError is the typed transport failure for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

type Client struct {
	http *http.Client

	mu      sync.Mutex
	lastHit map[string]time.Time
}

// New returns a client with fixed connect/read timeouts.
func New() *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
			},
		},
		lastHit: make(map[string]time.Time),
	}
}

// throttle enforces the site's rate_limit_ms between consecutive requests to
// the same site. Returns early when the context is cancelled.
func (c *Client) throttle(ctx context.Context, site *config.SiteConfig) error {
	if site == nil || site.RateLimitMs <= 0 {
		return nil
	}
	interval := time.Duration(site.RateLimitMs) * time.Millisecond

	c.mu.Lock()
	wait := time.Until(c.lastHit[site.Name].Add(interval))
	if wait < 0 {
		wait = 0
	}
	c.lastHit[site.Name] = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get fetches a document, applying the site's user agent and header
// overrides when given. Non-2xx responses return a *StatusError.
func (c *Client) Get(ctx context.Context, url string, site *config.SiteConfig) (string, error) {
	if err := c.throttle(ctx, site); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	if site != nil {
		if site.UserAgent != "" {
			req.Header.Set("User-Agent", site.UserAgent)
		}
		for k, v := range site.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return string(body), nil
}

// GetBytes fetches a raw resource, typically a page image.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
