// Package httpclient provides the outbound HTTP client used for remote
// inference calls.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
)

const (
	// DefaultTimeout is applied when the request context has no deadline.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "damage-inspector"
)

// Config holds configuration for creating an HTTP client.
type Config struct {
	// Timeout bounds a request whose context has no deadline, including
	// reading the response body
	Timeout time.Duration

	UserAgent string

	// Transport replaces the pooled default transport. Tests install a mock
	// round tripper here.
	Transport http.RoundTripper
}

// Observer is told about every completed round trip. resp is nil when err is set.
type Observer func(req *http.Request, resp *http.Response, err error, elapsed time.Duration)

// Client wraps http.Client with per-request timeouts. Safe for concurrent use.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string

	mu        sync.Mutex // serializes observer registration
	observers atomic.Pointer[[]Observer]
}

// New creates a client. Zero config fields take their defaults.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Transport == nil {
		cfg.Transport = newTransport()
	}

	return &Client{
		// no http.Client.Timeout; the deadline lives on the request context
		http:      &http.Client{Transport: cfg.Transport},
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
}

// newTransport returns a pooled transport sized for a few concurrent
// uploads to one inference host.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// Observe adds fn to the round-trip observers. Observers already installed
// by other users of a shared client keep running.
func (c *Client) Observe(fn Observer) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var next []Observer
	if cur := c.observers.Load(); cur != nil {
		next = append(next, (*cur)...)
	}
	next = append(next, fn)
	c.observers.Store(&next)
}

// Do sends req under ctx. The caller must close the response body when err
// is nil; the default timeout stays armed until then.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.NewStd("nil request")
	}

	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	req = req.WithContext(ctx)

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if obs := c.observers.Load(); obs != nil {
		elapsed := time.Since(start)
		for _, fn := range *obs {
			fn(req, resp, err, elapsed)
		}
	}

	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// PostBody sends body with the given content type.
func (c *Client) PostBody(ctx context.Context, url, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(ctx, req)
}

// Close closes idle pooled connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// cancelOnClose releases the request timeout once the body is closed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
