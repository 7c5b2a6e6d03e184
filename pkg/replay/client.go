package replay

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPClient is the interface production code usually injects.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an HTTPClient served by an Engine, for code that takes an
// injected client instead of using http.DefaultClient.
type Client struct {
	next HTTPClient
}

// NewClient returns a client that resolves every request through e.
func NewClient(e *Engine) *Client {
	return &Client{next: e.HTTPClient()}
}

// WrapClient returns a client that sends requests through next. next is
// usually an *http.Client built by WithEngine.
func WrapClient(next HTTPClient) *Client {
	return &Client{next: next}
}

// Do sends req.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.next.Do(req)
}

// Execute sends req with a deadline of timeout from now. A zero timeout
// means no deadline beyond the request's own context. The deadline stays in
// force until the response body is closed.
func (c *Client) Execute(req *http.Request, timeout time.Duration) (*http.Response, error) {
	if timeout <= 0 {
		return c.Do(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := c.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the deadline context when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// WithEngine returns a shallow copy of hc that sends requests through e,
// keeping its timeout, redirect policy and cookie jar. A nil hc is treated as
// http.DefaultClient.
func WithEngine(hc *http.Client, e *Engine) *http.Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	cp := *hc
	cp.Transport = e.Transport()
	return &cp
}

var _ HTTPClient = (*Client)(nil)
