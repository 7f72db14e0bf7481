package publishers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Adda-Baaj/portco-news/internal/logger"
)

// httpPublisher posts fetch results as JSON to a presentation endpoint.
type httpPublisher struct {
	id      string
	typ     string
	url     string
	method  string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json")

	return &httpPublisher{
		id:      cfg.ID,
		typ:     cfg.Type,
		url:     cfg.HTTP.URL,
		method:  cfg.HTTP.Method,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     logger.Ensure(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return p.typ }

// Publish sends the event body; any non-2xx answer is an error.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeaders(p.headers).
		SetBody(evt).
		Execute(p.method, p.url)
	if err != nil {
		p.log.ErrorObj("http publisher request failed", "publisher_http_error", map[string]any{
			"publisher_id": p.id,
			"url":          p.url,
			"error":        err.Error(),
		})
		return fmt.Errorf("http publish %s: %w", p.url, err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("http publish %s returned status %d", p.url, resp.StatusCode())
	}

	p.log.DebugObj("http publisher delivered fetch result", "publisher_http_delivery", map[string]any{
		"publisher_id": p.id,
		"source":       evt.Source,
		"status":       resp.StatusCode(),
	})
	return nil
}
