// Package httpclient provides a configurable HTTP client for talking to the
// diagnostic backend. It handles bearer authentication, device identification,
// per-request timeouts, and typed error reporting for server responses. The
// package requires a Configurator implementation for server configuration and
// credential details.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Configurator defines the interface for providing server configuration and
// credential details to the client.
type Configurator interface {
	GetServerURL() string
	GetToken() string
	GetTokenExpiry() time.Time
	GetDeviceID() string
}

// HTTPError represents an error response from the server. Body carries the
// raw response payload so callers can extract structured error codes.
type HTTPError struct {
	StatusCode int    // HTTP status code of the error
	Message    string // error message or response body
	Body       []byte // raw response body
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	return e.Message
}

// HTTPClient makes HTTP requests to the diagnostic backend. It attaches
// authentication and device headers and converts error responses into
// *HTTPError values.
type HTTPClient struct {
	config     Configurator
	httpClient *http.Client
}

// NewClient creates a new HTTP client using the provided configuration.
func NewClient(config Configurator) *HTTPClient {
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{},
	}
}

// RequestOptions contains options for making HTTP requests. Method and Path
// are required; everything else is optional.
type RequestOptions struct {
	Method      string            // HTTP method (GET, POST, PUT, DELETE)
	Path        string            // API endpoint path
	QueryParams map[string]string // optional query parameters
	Headers     map[string]string // optional extra request headers
	Body        []byte            // optional request body
	Timeout     time.Duration     // optional per-request timeout
}

// Response holds a successful server response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// DoRequest makes an HTTP request with the given options. Responses with
// status >= 400 are returned as *HTTPError; transport failures are returned
// as-is so callers can classify them.
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) (*Response, error) {
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %v", err)
	}
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bytes.NewBuffer(opts.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Use token only while it is still valid
	if token := c.config.GetToken(); token != "" {
		expiry := c.config.GetTokenExpiry()
		if expiry.IsZero() || time.Now().Before(expiry) {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if deviceID := c.config.GetDeviceID(); deviceID != "" {
		req.Header.Set("X-Device-Id", deviceID)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
}
