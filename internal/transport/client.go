// Package transport provides the authenticated HTTP plumbing shared by
// remote sources: an Authenticator applied per request, a cached
// credential source for token-based systems, and JSON/form helpers
// with status-code error mapping.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	system      string
	http        *http.Client
	auth        Authenticator
	credentials CredentialSource
	headers     map[string]string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithHeader sets a header on every request, such as the Origin header
// the roster API requires.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a transport client for one source system. The system name
// is used to attribute errors; auth and credentials may be nil for
// unauthenticated endpoints.
func New(system string, auth Authenticator, credentials CredentialSource, opts ...ClientOption) *Client {
	c := &Client{
		system:      system,
		http:        &http.Client{Timeout: DefaultHTTPTimeout},
		auth:        auth,
		credentials: credentials,
		headers:     make(map[string]string),
	}
	if c.auth == nil {
		c.auth = &NoAuth{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication and common headers
// applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.credentials != nil {
		credential, err := c.credentials.Credential(ctx)
		if err != nil {
			return nil, err
		}
		if credential != "" {
			c.auth.Apply(req, credential)
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errors.APIError{
			System:   c.system,
			Message:  "request failed",
			Endpoint: req.URL.Path,
			Err:      err,
		}
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+rawURL, err)
	}
	return c.Do(ctx, req)
}

// GetJSON performs a GET request and decodes the JSON response into
// out. Non-2xx statuses are mapped to APIError so callers can branch on
// rate limiting, credential, and availability conditions.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, rawURL); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", rawURL, err)
	}
	return nil
}

// PostForm performs a form-encoded POST, as the roster login endpoint
// expects, and decodes the JSON response into out.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.WrapResource("create", "request", "POST "+rawURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, rawURL); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", rawURL, err)
	}
	return nil
}

// checkStatus maps a non-2xx response to an APIError carrying the
// status code and a truncated body excerpt.
func (c *Client) checkStatus(resp *http.Response, rawURL string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &errors.APIError{
		System:     c.system,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(excerpt)),
		Endpoint:   rawURL,
	}
}
