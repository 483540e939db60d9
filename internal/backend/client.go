// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout bounds a single request. The session controller applies
	// its own deadline on top of this.
	DefaultTimeout = 2 * time.Minute

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// DefaultUserAgent identifies the client to the backend.
	DefaultUserAgent = "docdocgo-cli/0.1.0"
)

// Shared HTTP client with connection pooling for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// Client is an HTTP implementation of Transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

var _ Transport = (*Client)(nil)

// NewClient creates a client for the backend at baseURL. Trailing slashes
// are stripped once here so endpoint suffixes can be appended directly.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		httpClient: sharedHTTPClient,
		userAgent:  DefaultUserAgent,
		logger:     zap.NewNop(),
	}
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// WithHTTPClient replaces the pooled HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithTimeout sets the request timeout on a private copy of the HTTP client.
// Zero removes the HTTP-level bound.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	hc := *c.httpClient
	hc.Timeout = timeout
	c.httpClient = &hc
	return c
}

// Timeout returns the HTTP-level request bound; zero means none.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// WithLogger sets the structured logger.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("backend")
	}
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the full URL for a path suffix.
func (c *Client) Endpoint(path string) string {
	return c.baseURL + path
}

// Chat posts a JSON payload to /chat.
func (c *Client) Chat(ctx context.Context, payload *Payload) (*ChatResponse, error) {
	body, err := EncodeJSON(payload)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, ChatPath, "application/json", body, payload.APIKey, 0)
}

// Ingest posts a multipart form with the attached files to /ingest.
func (c *Client) Ingest(ctx context.Context, payload *Payload, files []Attachment) (*ChatResponse, error) {
	body, contentType, err := EncodeMultipart(payload, files)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, IngestPath, contentType, body, payload.APIKey, len(files))
}

// post sends one request and decodes the reply. There is no retry: a failed
// turn is resubmitted by the user or the scheduled-query loop.
func (c *Client) post(ctx context.Context, path, contentType string, body []byte, apiKey string, files int) (*ChatResponse, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("request",
		zap.String("endpoint", path),
		zap.Int("bytes", len(body)),
		zap.Int("files", files),
		zap.String("key_fingerprint", KeyFingerprint(apiKey)))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("endpoint", path), zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("response",
		zap.String("endpoint", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	data, err := readResponse(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// An unreadable error body still yields the status line.
		return nil, newHTTPError(resp.StatusCode, data)
	}
	if err != nil {
		return nil, err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// KeyFingerprint returns a short SHA-256 fingerprint of a secret for logs.
func KeyFingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}
