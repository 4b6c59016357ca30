package httpexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	authclient "github.com/goliatone/go-auth-client"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 1 << 20
	defaultUserAgent    = "go-auth-client"
)

// Config holds the HTTP executor configuration.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string

	// Header is copied into the shared header set at construction.
	Header http.Header

	HTTPClient *http.Client
	Logger     authclient.Logger
}

// Client implements authclient.Network on top of net/http. Headers set via
// SetHeader are sent with every request.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     authclient.Logger

	mu     sync.RWMutex
	header http.Header
}

// New creates a new Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	_, logger := authclient.ResolveLogger("authclient.httpexec", nil, cfg.Logger)

	header := http.Header{}
	for k, values := range cfg.Header {
		for _, v := range values {
			header.Add(k, v)
		}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
		logger:     logger,
		header:     header,
	}
}

// SetHeader implements authclient.HeaderMutator.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header.Set(key, value)
}

// RemoveHeader implements authclient.HeaderMutator.
func (c *Client) RemoveHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header.Del(key)
}

// Header returns a copy of the shared header set.
func (c *Client) Header() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.header.Clone()
}

// Execute implements authclient.NetworkExecutor. Any non-2xx response is
// returned as *authclient.StatusError with the (truncated) body.
func (c *Client) Execute(ctx context.Context, res authclient.Resource) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, res.Method, res.URL, bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("httpexec: new request: %w", err)
	}

	c.mu.RLock()
	for k, values := range c.header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	c.mu.RUnlock()

	for k, values := range res.Header {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", res.Method, "url", res.URL, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("httpexec: read body: %w", err)
	}

	c.logger.Debug("request completed",
		"method", res.Method,
		"url", res.URL,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &authclient.StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}
