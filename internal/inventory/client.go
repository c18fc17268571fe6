package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reclaim/internal/config"
)

// File is one DVR inventory record.
type File struct {
	ID              int64   `json:"id"`
	RelativePath    string  `json:"relative_path"`
	ImportPrefix    string  `json:"import_prefix,omitempty"`
	Title           string  `json:"title"`
	CreatedAt       string  `json:"created_at"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Service lists active and deleted DVR files. Implemented by Client; tests
// substitute fakes.
type Service interface {
	ListFiles(ctx context.Context) ([]File, error)
	ListDeletedFiles(ctx context.Context) ([]File, error)
}

// HTTPDoer describes the HTTP client used by the inventory service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the DVR inventory HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
	timeout time.Duration
}

// NewClient constructs an inventory client from configuration. It returns nil
// when no inventory URL is configured; callers treat a nil client as "audits
// unavailable".
func NewClient(cfg *config.Config) *Client {
	if cfg == nil {
		return nil
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Inventory.URL), "/")
	if baseURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.Inventory.TimeoutSeconds) * time.Second
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.Inventory.APIKey),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// NewClientWithDoer constructs a client with a custom HTTP doer (used in tests).
func NewClientWithDoer(baseURL, apiKey string, doer HTTPDoer, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  doer,
		timeout: timeout,
	}
}

// ListFiles returns every active recording the DVR tracks.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	return c.fetch(ctx, "/api/files")
}

// ListDeletedFiles returns recordings the DVR has moved to its trash.
func (c *Client) ListDeletedFiles(ctx context.Context) ([]File, error) {
	return c.fetch(ctx, "/api/files/deleted")
}

func (c *Client) fetch(ctx context.Context, path string) ([]File, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("inventory service not configured")
	}

	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build inventory request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory %s returned %d", path, resp.StatusCode)
	}

	var files []File
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("decode inventory response: %w", err)
	}
	return files, nil
}
