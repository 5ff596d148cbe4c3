// Package mtgjson provides a rate-limited client for the MTGJSON API,
// used to download the atomic card catalog.
package mtgjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://mtgjson.com/api/v5"
	rateLimitDelay = 100 * time.Millisecond
	requestTimeout = 30 * time.Second

	// AtomicCards.json runs to hundreds of megabytes; bulk downloads get a
	// much longer deadline than metadata requests.
	downloadTimeout = 5 * time.Minute
)

// Client is an MTGJSON API client with request rate limiting.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	downloadClient *http.Client
	rateLimiter    *rate.Limiter
	userAgent      string
}

// Meta describes the published MTGJSON data release.
type Meta struct {
	Date    string `json:"date"`
	Version string `json:"version"`
}

// metaResponse is the wire shape of Meta.json.
type metaResponse struct {
	Meta Meta `json:"meta"`
	Data Meta `json:"data"`
}

// NewClient creates a new MTGJSON client.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		downloadClient: &http.Client{
			Timeout: downloadTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "commander-companion/1.0",
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint.
// Used in tests to point at a local server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// GetMeta fetches the current MTGJSON data version.
func (c *Client) GetMeta(ctx context.Context) (*Meta, error) {
	url := c.baseURL + "/Meta.json"

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get meta: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var meta metaResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta response: %w", err)
	}

	if meta.Data.Version != "" {
		return &meta.Data, nil
	}
	return &meta.Meta, nil
}

// DownloadAtomicCards streams AtomicCards.json to destPath, creating parent
// directories as needed. The download is written to a temporary file first
// so a failed transfer never leaves a truncated catalog behind.
func (c *Client) DownloadAtomicCards(ctx context.Context, destPath string) error {
	url := c.baseURL + "/AtomicCards.json"

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	resp, err := c.getWith(ctx, c.downloadClient, url)
	if err != nil {
		return fmt.Errorf("failed to download atomic cards: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".atomic-cards-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write atomic cards: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move atomic cards into place: %w", err)
	}

	return nil
}

// get performs a rate-limited GET request with the metadata client.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	return c.getWith(ctx, c.httpClient, url)
}

// getWith performs a rate-limited GET request with the given client. The
// client's Timeout covers reading the response body, so bulk downloads use
// the download client rather than the short metadata deadline.
func (c *Client) getWith(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
