package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/logger"
	"github.com/Adda-Baaj/portco-news/pkg/httpclient"
)

// SourceID identifies feed results in caches and published events.
const SourceID = "feed"

// ErrUnexpectedStatus is returned when the feed endpoint answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected feed response status")

var defaultHeaders = map[string]string{
	"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
}

// Ingestor fetches one syndication feed and normalizes its entries.
type Ingestor struct {
	url    string
	client httpclient.Client
	parser *gofeed.Parser
	log    logger.Logger
	now    func() time.Time
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithClock overrides the clock used for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIngestor builds an Ingestor for url.
func NewIngestor(url string, client httpclient.Client, log logger.Logger, opts ...Option) *Ingestor {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	i := &Ingestor{
		url:    strings.TrimSpace(url),
		client: client,
		parser: gofeed.NewParser(),
		log:    logger.Ensure(log),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ID returns the source identity.
func (i *Ingestor) ID() string { return SourceID }

// URL returns the feed address.
func (i *Ingestor) URL() string { return i.url }

// Fetch retrieves and normalizes the feed. The returned slice is never nil; on any transport or
// parse failure it is empty and the error describes what went wrong.
func (i *Ingestor) Fetch(ctx context.Context) ([]domain.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := i.fetchEntries(ctx)
	if err != nil {
		i.log.WarnObj("feed fetch failed", "feed_fetch_error", map[string]any{
			"url":   i.url,
			"error": err.Error(),
		})
		return []domain.Record{}, err
	}

	records := Normalize(entries, i.now())
	i.log.InfoObj("feed fetched", "feed_fetch_done", map[string]any{
		"url":        i.url,
		"entries":    len(entries),
		"records":    len(records),
		"duplicates": len(entries) - len(records),
	})
	return records, nil
}

func (i *Ingestor) fetchEntries(ctx context.Context) ([]Entry, error) {
	if i.url == "" {
		return nil, errors.New("feed url is empty")
	}

	i.log.DebugObj("fetching feed", "feed_fetch_start", map[string]any{"url": i.url})

	resp, err := i.client.Get(ctx, i.url, defaultHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %d body: %s", ErrUnexpectedStatus, resp.StatusCode(), responseSnippet(body))
	}

	parsed, err := i.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, entryFromItem(item))
	}
	return entries, nil
}

// responseSnippet returns a truncated body for error messages.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
