package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 4 << 20

const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// DefaultHeaders are sent with every upstream request.
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":     "application/json",
}

// Response is the outcome of one GET. Error is set instead of being returned.
type Response struct {
	Body       []byte
	StatusCode int
	Latency    time.Duration
	Error      error
}

// TimedOut reports whether the request was cut by its deadline.
func (r Response) TimedOut() bool {
	if r.Error == nil {
		return false
	}
	if errors.Is(r.Error, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(r.Error, &netErr) && netErr.Timeout()
}

// OK reports a completed request with status 200.
func (r Response) OK() bool {
	return r.Error == nil && r.StatusCode == http.StatusOK
}

// Client wraps a pooled http.Client; timeouts are applied per request.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

// NewClient builds a client sending headers on every request.
// A nil headers map selects DefaultHeaders.
func NewClient(headers map[string]string) *Client {
	if headers == nil {
		headers = DefaultHeaders
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		headers: headers,
	}
}

// WithHTTPClient swaps the underlying client; used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// Get performs a GET bounded by timeout and reads at most 4MB of body.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{Latency: time.Since(start), Error: fmt.Errorf("build request: %w", err)}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Latency: time.Since(start), Error: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("read body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close drops idle pooled connections.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
