package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/objhost-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds one HTTP request.
const DefaultTimeout = 30 * time.Second

// APIError is an error reply from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if d, ok := e.Details.(string); ok && d != "" {
		msg += ": " + d
	}
	return msg
}

// envelope mirrors the server response envelope.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   any             `json:"details"`
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL   string
	token     string
	tlsConfig *tls.Config
	client    *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTLSConfig sets the client TLS configuration. Addresses without a
// scheme then default to https.
func WithTLSConfig(cfg *tls.Config) HTTPOption {
	return func(c *HTTPClient) {
		c.tlsConfig = cfg
	}
}

// NewHTTPClient creates a new HTTP client. token, when set, is sent as a
// bearer token.
func NewHTTPClient(server, token string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		token:  token,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	scheme := "http://"
	if c.tlsConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = c.tlsConfig
		c.client.Transport = transport
		scheme = "https://"
	}

	c.baseURL = strings.TrimRight(server, "/")
	if !strings.HasPrefix(c.baseURL, "http://") && !strings.HasPrefix(c.baseURL, "https://") {
		c.baseURL = scheme + c.baseURL
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the envelope data into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with an optional JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *HTTPClient) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends a request. Error statuses become *APIError; on success the
// envelope data is decoded into out when out is non-nil.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "objhost-cli/"+buildinfo.Version)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	return ParseResponse(resp, out)
}

// ParseResponse decodes an API response and closes its body.
func ParseResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code, apiErr.Message, apiErr.Details = env.Code, env.Message, env.Details
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}
