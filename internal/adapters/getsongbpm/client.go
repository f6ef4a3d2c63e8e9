// Package getsongbpm is the heuristic tempo/key provider. It searches by
// title and artist and only knows tempo, key and mode.
package getsongbpm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/normalize"
)

const DefaultBaseURL = "https://api.getsongbpm.com"

// Client searches GetSongBPM.
type Client struct {
	http    backoff.Doer
	baseURL string
	apiKey  string
}

var _ ports.HeuristicProvider = (*Client)(nil)

// NewClient constructs a client. An empty apiKey makes every lookup report
// the provider unavailable.
func NewClient(doer backoff.Doer, baseURL, apiKey string) *Client {
	if doer == nil {
		doer = backoff.New(nil, backoff.DefaultConfig("getsongbpm"))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) Name() string { return "getsongbpm" }

// Lookup returns tempo, key and mode of the first search hit. No hit is an
// empty result, not an error.
func (c *Client) Lookup(ctx context.Context, title, artist string) (domain.PartialFeatures, error) {
	if c.apiKey == "" {
		return domain.PartialFeatures{}, ports.ProviderUnavailableError{Provider: c.Name(), Reason: "api key not configured"}
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("type", "song")
	params.Set("lookup", lookupQuery(title, artist))
	endpoint := fmt.Sprintf("%s/search/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("getsongbpm adapter: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("getsongbpm adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PartialFeatures{}, fmt.Errorf("getsongbpm adapter: status %d", resp.StatusCode)
	}

	var data map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("getsongbpm adapter: decode: %w", err)
	}

	first, ok := firstItem(data)
	if !ok {
		return domain.PartialFeatures{}, nil
	}

	return toPartial(first), nil
}

// firstItem finds the result list under any of the keys the API has used.
// A non-list value (the API answers {"search":{"error":...}} on no match)
// counts as no result.
func firstItem(data map[string]json.RawMessage) (map[string]any, bool) {
	for _, k := range []string{"search", "results", "songs"} {
		raw, ok := data[k]
		if !ok {
			continue
		}
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return nil, false
		}
		return items[0], items[0] != nil
	}
	return nil, false
}

func toPartial(item map[string]any) domain.PartialFeatures {
	var p domain.PartialFeatures

	for _, k := range []string{"tempo", "bpm", "Tempo"} {
		if v, ok := item[k].(float64); ok && v > 0 {
			p.Tempo = &v
			break
		}
	}

	for _, k := range []string{"key", "key_name", "music_key"} {
		label, ok := item[k].(string)
		if !ok {
			continue
		}
		if parsed, ok := normalize.ParseKeyName(label); ok {
			key := parsed.Key
			p.Key = &key
			if parsed.HasMode {
				mode := parsed.Mode
				p.Mode = &mode
			}
		}
		break
	}

	ts := normalize.DefaultTimeSignature
	p.TimeSignature = &ts
	return p
}
