/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package fetch provides authenticated HTTP retrieval with 401-triggered
// credential renegotiation and multi-page result assembly.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// maxAttempts bounds the 401 renegotiation loop per logical request.
	maxAttempts = 3

	defaultTimeout = 10 * time.Second
)

// Credential is a username/password pair scoped to one origin.
type Credential struct {
	Username string
	Password string
}

// CredentialProvider supplies credentials for an origin
// (scheme://host:port). It is invoked only after an authentication
// failure; the result is cached per origin for the client lifetime.
type CredentialProvider interface {
	Credentials(origin string) (Credential, error)
}

// StaticProvider serves credentials from a fixed origin-keyed map. It is
// the non-interactive substitute for the console prompt.
type StaticProvider map[string]Credential

// Credentials implements CredentialProvider.
func (p StaticProvider) Credentials(origin string) (Credential, error) {
	cred, ok := p[origin]
	if !ok {
		return Credential{}, fmt.Errorf("no credentials configured for %s", origin)
	}
	return cred, nil
}

// Client fetches URLs with bounded 401 retries. The underlying HTTP client
// and its credential binding are owned exclusively by this instance; the
// binding is only ever replaced under the mutex, never mutated while a
// renegotiation is in flight.
type Client struct {
	provider CredentialProvider
	limiter  *rate.Limiter

	mu    sync.Mutex
	hc    *http.Client
	creds map[string]Credential
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithRateLimit applies a politeness limit to outgoing requests so a
// paginated crawl cannot overwhelm a broker's management API.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewClient builds a fetch client. provider may be nil, in which case a
// 401 response is surfaced after the retry budget with no renegotiation.
func NewClient(provider CredentialProvider, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		hc:       &http.Client{Timeout: defaultTimeout},
		creds:    make(map[string]Credential),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves the URL body. On a 401 response it asks the credential
// provider for the request origin, rebinds the HTTP client to the new
// credentials and retries the same logical request, up to maxAttempts
// total attempts. Credentials obtained for an origin are reused for every
// later request to that origin, so pagination does not re-prompt per page.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	origin, err := originOf(rawURL)
	if err != nil {
		return nil, err
	}

	reqID := uuid.NewString()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, status, err := c.do(ctx, rawURL, origin)
		if err != nil {
			return nil, err
		}
		slog.Debug("fetch", "id", reqID, "url", rawURL, "status", status, "attempt", attempt)

		switch {
		case status == http.StatusUnauthorized:
			lastErr = fmt.Errorf("GET %s: authentication required (401)", rawURL)
			if attempt == maxAttempts {
				continue
			}
			if err := c.renegotiate(origin); err != nil {
				return nil, fmt.Errorf("credential renegotiation for %s: %w", origin, err)
			}
		case status >= 400:
			return nil, fmt.Errorf("GET %s: unexpected status %d", rawURL, status)
		default:
			return body, nil
		}
	}

	return nil, fmt.Errorf("authentication failed after %d attempts: %w", maxAttempts, lastErr)
}

// do issues one request with the currently bound credentials.
func (c *Client) do(ctx context.Context, rawURL, origin string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.Lock()
	if cred, ok := c.creds[origin]; ok {
		req.SetBasicAuth(cred.Username, cred.Password)
	}
	hc := c.hc
	c.mu.Unlock()

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response from %s: %w", rawURL, err)
	}
	return body, resp.StatusCode, nil
}

// renegotiate obtains fresh credentials for the origin and replaces the
// client binding. The lock makes the swap a critical section: the prompt
// may block on the console, and no other request may observe a half-swapped
// client in the meantime.
func (c *Client) renegotiate(origin string) error {
	if c.provider == nil {
		return fmt.Errorf("no credential provider available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cred, err := c.provider.Credentials(origin)
	if err != nil {
		return err
	}
	c.creds[origin] = cred

	// Replace, don't mutate: connections in the old client may still be
	// bound to the previous credentials.
	c.hc = &http.Client{Timeout: c.hc.Timeout, Transport: c.hc.Transport}
	return nil
}

// originOf reduces a URL to its scheme+host+port credential scope.
func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no origin", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
