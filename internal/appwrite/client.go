// Package appwrite is a typed REST client for the subset of the Appwrite API
// used by Aora: accounts, sessions, documents, file storage and avatars.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aora/backend/internal/config"
)

const (
	responseFormat   = "1.4.0"
	defaultChunkSize = 5 * 1024 * 1024
	defaultTimeout   = 2 * time.Minute
)

// Client issues requests against one Appwrite project.
type Client struct {
	endpoint   string
	project    string
	platform   string
	httpClient *http.Client
	chunkSize  int64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for outbound requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithChunkSize overrides the part size used for chunked file uploads.
func WithChunkSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// New constructs a client for the project described by cfg.
func New(cfg config.Appwrite, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		project:  cfg.ProjectID,
		platform: cfg.Platform,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns a fresh identifier accepted by Appwrite for documents, files and accounts.
func ID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	header      http.Header
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload == nil {
		return req, nil
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	req.body = bytes.NewReader(buf)
	req.contentType = "application/json"
	return req, nil
}

// do executes req and decodes a successful JSON response into out. The
// returned response has its body already consumed; headers and cookies remain
// readable.
func (c *Client) do(ctx context.Context, req request, out any) (*http.Response, error) {
	target := c.endpoint + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("X-Appwrite-Project", c.project)
	httpReq.Header.Set("X-Appwrite-Response-Format", responseFormat)
	httpReq.Header.Set("Accept", "application/json")
	if c.platform != "" {
		httpReq.Header.Set("Origin", "appwrite-android://"+c.platform)
	}
	if secret := SessionFromContext(ctx); secret != "" {
		httpReq.Header.Set("X-Appwrite-Session", secret)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for key, values := range req.header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
		}
	}

	return resp, nil
}

// resourceURL builds an absolute URL that embeds the project id, for resources
// such as previews that are fetched by the client directly.
func (c *Client) resourceURL(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("project", c.project)
	return c.endpoint + path + "?" + params.Encode()
}
