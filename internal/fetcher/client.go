package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// the full directory is a few MB; anything beyond this is not a directory
const maxResponseBodySize = 32 << 20 // 32MB

const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

var (
	// ErrRequest is returned (wrapped) when the request could not be made or
	// the response body could not be read.
	ErrRequest = errors.New("directory request failed")

	// ErrStatus is returned (wrapped) for non-2xx responses.
	ErrStatus = errors.New("unexpected directory response status")

	// ErrTooLarge is returned (wrapped) when the body exceeds the size limit.
	ErrTooLarge = errors.New("directory response too large")
)

// Response holds the body and timing of a successful request made by [Client].
type Response struct {
	// Body contains the HTTP response body.
	Body []byte

	// StatusCode is the HTTP status code, always 2xx.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration
}

// Client is an HTTP client wrapper for fetching the directory.
//
// Timeouts are applied per request via context rather than on the client,
// so a single Client can serve directories with different timeouts.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new [Client] with a small pooled transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// NewClientWith wraps an existing [http.Client], e.g. one with custom
// transport or TLS settings.
func NewClientWith(hc *http.Client) *Client {
	if hc == nil {
		return NewClient()
	}
	return &Client{httpClient: hc}
}

// Get performs a GET request for url and returns the body of a 2xx response.
//
// Transport failures wrap [ErrRequest], non-2xx responses wrap [ErrStatus]
// and bodies over the size limit wrap [ErrTooLarge].
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) (Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: failed to create request: %v", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return Response{}, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// read one byte past the limit to detect oversized bodies
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return Response{}, fmt.Errorf("%w: failed to read response body: %v", ErrRequest, err)
	}
	if len(body) > maxResponseBodySize {
		return Response{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxResponseBodySize)
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}, nil
}

// Close closes idle connections in the client's pool.
//
// Safe to call multiple times and on a nil receiver. The client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
