// Package rapidapi is the per-track feature provider backed by the
// RapidAPI track-analysis service.
package rapidapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

// Client fetches one track's analysis per call.
type Client struct {
	http backoff.Doer
	key  string
	host string
	// baseURL overrides https://{host}; used by tests.
	baseURL string
}

var _ ports.SingleProvider = (*Client)(nil)

// NewClient constructs a client. key and host may be empty, in which case
// every call reports the provider unavailable.
func NewClient(doer backoff.Doer, key, host string) *Client {
	if doer == nil {
		doer = backoff.New(nil, backoff.DefaultConfig("rapidapi"))
	}
	return &Client{http: doer, key: key, host: host}
}

// WithBaseURL points the client at a different origin while still sending
// the configured host header.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) Name() string { return "rapidapi" }

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.key != "" && c.host != ""
}

// FetchOne returns the raw analysis payload for a Spotify track id.
func (c *Client) FetchOne(ctx context.Context, id string) (ports.Payload, error) {
	if !c.Configured() {
		return nil, ports.ProviderUnavailableError{Provider: c.Name(), Reason: "credentials not configured"}
	}

	base := c.baseURL
	if base == "" {
		base = "https://" + c.host
	}
	endpoint := fmt.Sprintf("%s/pktx/spotify/%s", base, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("rapidapi adapter: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.key)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rapidapi adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("rapidapi adapter: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("rapidapi adapter: decode: %w", err)
	}

	return unwrap(data), nil
}

// unwrap returns the "features" or "analysis" envelope when present.
func unwrap(data map[string]any) map[string]any {
	for _, k := range []string{"features", "analysis"} {
		if inner, ok := data[k].(map[string]any); ok && inner != nil {
			return inner
		}
	}
	return data
}
