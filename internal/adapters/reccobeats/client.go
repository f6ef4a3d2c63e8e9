// Package reccobeats is the primary batch feature provider.
package reccobeats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.reccobeats.com"
	// MaxBatch is the most ids one audio-features request accepts.
	MaxBatch = 40
)

// Client talks to the ReccoBeats audio-features endpoint.
type Client struct {
	http    backoff.Doer
	baseURL string
}

var _ ports.BatchProvider = (*Client)(nil)

// NewClient constructs a client. A nil doer gets a default backoff client.
func NewClient(doer backoff.Doer, baseURL string) *Client {
	if doer == nil {
		doer = backoff.New(nil, backoff.DefaultConfig("reccobeats"))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Name() string { return "reccobeats" }

func (c *Client) MaxBatch() int { return MaxBatch }

type featuresResponse struct {
	Content []map[string]any `json:"content"`
}

// FetchBatch requests features for up to MaxBatch ids. Upstream failures
// are not errors: every requested id is reported missing instead.
func (c *Client) FetchBatch(ctx context.Context, ids []string) (ports.BatchResult, error) {
	result := ports.BatchResult{Payloads: make(map[string]ports.Payload)}
	if len(ids) == 0 {
		return result, nil
	}
	if len(ids) > MaxBatch {
		log.Printf("WARN reccobeats adapter: truncating batch from %d to %d ids, dropping %s",
			len(ids), MaxBatch, strings.Join(ids[MaxBatch:], ","))
		ids = ids[:MaxBatch]
	}
	result.Missing = append([]string(nil), ids...)

	params := url.Values{}
	for _, id := range ids {
		params.Add("ids", id)
	}
	endpoint := fmt.Sprintf("%s/v1/audio-features?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return result, fmt.Errorf("reccobeats adapter: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("reccobeats adapter: %w", ctx.Err())
		}
		log.Printf("WARN reccobeats adapter: request failed: %v", err)
		return result, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("WARN reccobeats adapter: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))) // #nosec G706 -- upstream body is truncated and logged for diagnostics
		return result, nil
	}

	var fr featuresResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		log.Printf("WARN reccobeats adapter: decode response: %v", err)
		return result, nil
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	for _, item := range fr.Content {
		id, _ := item["id"].(string)
		if !requested[id] {
			continue
		}
		result.Payloads[id] = item
	}

	result.Missing = result.Missing[:0]
	for _, id := range ids {
		if _, ok := result.Payloads[id]; !ok {
			result.Missing = append(result.Missing, id)
		}
	}
	if len(result.Missing) > 0 {
		log.Printf("WARN reccobeats adapter: %d/%d tracks missing features", len(result.Missing), len(ids))
	}
	log.Printf("DEBUG reccobeats adapter: received %d/%d features", len(result.Payloads), len(ids))

	return result, nil
}
