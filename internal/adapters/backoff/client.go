// Package backoff wraps outbound HTTP calls with bounded, rate-limit aware
// retries.
package backoff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 500 * time.Millisecond
	DefaultTimeout    = 8 * time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// Doer is the subset of *http.Client the adapters depend on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes the retry loop. Zero delays take the package defaults;
// MaxRetries is used as given, so zero disables retries.
type Config struct {
	// MaxRetries counts attempts after the first one.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Name prefixes log lines, e.g. "reccobeats".
	Name string
}

// DefaultConfig returns the package defaults for the named adapter.
func DefaultConfig(name string) Config {
	return Config{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Name:       name,
	}
}

// Client retries 429, 5xx and transport failures. Any other status is
// returned to the caller on the first attempt.
type Client struct {
	http       *http.Client
	maxRetries int
	base       time.Duration
	maxDelay   time.Duration
	name       string
}

var _ Doer = (*Client)(nil)

// New wraps httpClient. A nil client gets one with the default per-attempt
// timeout.
func New(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Name == "" {
		cfg.Name = "http"
	}
	return &Client{
		http:       httpClient,
		maxRetries: cfg.MaxRetries,
		base:       cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		name:       cfg.Name,
	}
}

// statusError marks a response that should be retried.
type statusError struct {
	code       int
	retryAfter time.Duration
	// hasRetryAfter is set when the response carried a usable Retry-After,
	// including "0".
	hasRetryAfter bool
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

// Do sends req, retrying up to MaxRetries times. When retries run out the
// last response is returned unchanged with a nil error, so callers see the
// upstream status. Transport errors are returned only when no response was
// ever read.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s adapter: read request body: %w", c.name, err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	ctx := req.Context()
	attempts := uint(c.maxRetries) + 1
	var last *http.Response

	err := retry.Do(
		func() error {
			if last != nil {
				drain(last)
				last = nil
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return retry.Unrecoverable(fmt.Errorf("reset request body: %w", err))
				}
				req.Body = body
			}

			// #nosec G107 -- URL built by the calling adapter from its configured base URL
			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			if retryable(resp.StatusCode) {
				last = resp
				wait, ok := parseRetryAfter(resp)
				return &statusError{code: resp.StatusCode, retryAfter: wait, hasRetryAfter: ok}
			}
			last = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
		retry.DelayType(c.delay),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && retry.IsRecoverable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= attempts {
				return
			}
			log.Printf("WARN %s adapter: retry attempt %d/%d after %v", c.name, n+1, c.maxRetries, err) // #nosec G706 -- error value is from trusted internal HTTP operation
		}),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if last != nil {
			drain(last)
		}
		return nil, fmt.Errorf("%s adapter: request canceled: %w", c.name, ctxErr)
	}

	var se *statusError
	switch {
	case err == nil:
		return last, nil
	case errors.As(err, &se) && last != nil:
		log.Printf("WARN %s adapter: giving up after %d attempts with status %d", c.name, attempts, se.code) // #nosec G706 -- status code is numeric
		return last, nil
	default:
		if last != nil {
			drain(last)
		}
		return nil, fmt.Errorf("%s adapter: request failed after %d attempts: %w", c.name, attempts, err)
	}
}

// delay is the retry-go DelayTypeFunc: Retry-After or linear for 429,
// exponential for everything else.
func (c *Client) delay(n uint, err error, _ *retry.Config) time.Duration {
	var d time.Duration
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusTooManyRequests {
		if se.hasRetryAfter {
			d = se.retryAfter
		} else {
			d = c.base * time.Duration(n+1)
		}
	} else {
		d = c.base * time.Duration(1<<n)
	}
	if d > c.maxDelay {
		d = c.maxDelay
	}
	return d
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// parseRetryAfter reads delay-seconds or an HTTP date. ok is false when the
// header is absent or unparseable; a date in the past yields zero.
func parseRetryAfter(resp *http.Response) (wait time.Duration, ok bool) {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until, true
		}
		return 0, true
	}

	return 0, false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
