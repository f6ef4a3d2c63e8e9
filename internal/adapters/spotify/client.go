package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

const (
	DefaultBaseURL  = "https://api.spotify.com/v1"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	// DefaultMarket scopes top tracks.
	DefaultMarket = "US"
)

// Client is an HTTP client for the Spotify catalog.
type Client struct {
	http    backoff.Doer
	baseURL string
	market  string
}

// compile-time interface assertion
var _ ports.Catalog = (*Client)(nil)

// NewClient constructs a catalog client over an already authenticated doer.
func NewClient(doer backoff.Doer, baseURL string) *Client {
	if doer == nil {
		doer = backoff.New(nil, backoff.DefaultConfig("spotify"))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		market:  DefaultMarket,
	}
}

// Credentials configures the client-credentials token flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewAuthenticatedClient builds a catalog client whose requests carry a
// client-credentials bearer token, refreshed automatically, and are retried
// by the backoff controller. timeout bounds each attempt, token fetch
// included; zero takes backoff.DefaultTimeout.
func NewAuthenticatedClient(ctx context.Context, creds Credentials, baseURL string, timeout time.Duration, retry backoff.Config) *Client {
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
	}

	httpClient := cfg.Client(ctx)
	if timeout <= 0 {
		timeout = backoff.DefaultTimeout
	}
	httpClient.Timeout = timeout

	if retry.Name == "" {
		retry.Name = "spotify"
	}
	return NewClient(backoff.New(httpClient, retry), baseURL)
}

// WithMarket overrides the market used for top tracks.
func (c *Client) WithMarket(market string) *Client {
	if market != "" {
		c.market = market
	}
	return c
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}
