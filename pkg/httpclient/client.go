package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "portco-news-harvester/1.0"

// Response is the subset of an HTTP response the harvester reads.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs GET requests and returns the fully read response.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Options tunes the resty client.
type Options struct {
	Timeout time.Duration
	// InsecureSkipVerify accepts any server certificate.
	InsecureSkipVerify bool
	UserAgent          string
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient builds a Client with the given timeout and default options.
func NewRestyClient(timeout time.Duration) Client {
	return NewRestyClientWithOptions(Options{Timeout: timeout})
}

// NewRestyClientWithOptions builds a Client. No retries are configured: a failed request is final.
func NewRestyClientWithOptions(opts Options) Client {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	c := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", ua).
		SetRetryCount(0)

	if opts.InsecureSkipVerify {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // opt-in for endpoints with non-standard certificates
	}

	return &restyClient{client: c}
}

// Get issues a GET request bound to ctx.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}
