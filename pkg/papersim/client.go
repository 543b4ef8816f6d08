// Package papersim provides a Go SDK for the papersim-server HTTP API.
package papersim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"papersim/internal/domain"
	"papersim/internal/httpapi"
)

// Client talks to a running papersim-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetState retrieves the latest published simulation snapshot.
func (c *Client) GetState(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/state", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetHistory retrieves the recent price window for a symbol.
func (c *Client) GetHistory(ctx context.Context, symbol string) ([]float64, error) {
	var resp httpapi.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/history/"+symbol, &resp); err != nil {
		return nil, err
	}
	return resp.Prices, nil
}

// Start asks the engine to begin ticking. Starting a running engine is a
// server-side no-op.
func (c *Client) Start(ctx context.Context) error {
	return c.control(ctx, "/api/start")
}

// Stop asks the engine to halt ticking.
func (c *Client) Stop(ctx context.Context) error {
	return c.control(ctx, "/api/stop")
}

// Reset asks the engine to return all simulated state to its seed values.
func (c *Client) Reset(ctx context.Context) error {
	return c.control(ctx, "/api/reset")
}

func (c *Client) control(ctx context.Context, path string) error {
	var resp httpapi.ControlResponse
	if err := c.do(ctx, http.MethodPost, path, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("%s: server refused command", path)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}
