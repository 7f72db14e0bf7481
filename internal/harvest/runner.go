package harvest

import (
	"context"
	"time"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/logger"
	"github.com/Adda-Baaj/portco-news/pkg/feed"
	"github.com/Adda-Baaj/portco-news/pkg/publishers"
	"github.com/Adda-Baaj/portco-news/pkg/sheet"
)

// FeedSource yields feed records.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.Record, error)
	Refresh(ctx context.Context) ([]domain.Record, error)
}

// FeedFetcher is satisfied by feed.Ingestor.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]domain.Record, error)
}

// LiveFeed adapts a fetcher to FeedSource without caching: the feed is recomputed on every cycle,
// so Refresh is the same call as Fetch.
type LiveFeed struct {
	src FeedFetcher
}

// NewLiveFeed wraps src.
func NewLiveFeed(src FeedFetcher) *LiveFeed {
	return &LiveFeed{src: src}
}

// Fetch reads the feed upstream.
func (f *LiveFeed) Fetch(ctx context.Context) ([]domain.Record, error) {
	return f.src.Fetch(ctx)
}

// Refresh reads the feed upstream.
func (f *LiveFeed) Refresh(ctx context.Context) ([]domain.Record, error) {
	return f.src.Fetch(ctx)
}

// SheetSource yields the sheet table, from cache or upstream.
type SheetSource interface {
	Fetch(ctx context.Context) (domain.SheetTable, error)
	Refresh(ctx context.Context) (domain.SheetTable, error)
}

// Result is the output of one cycle. Errors are non-fatal reports; the payloads are always well formed.
type Result struct {
	At       time.Time
	Records  []domain.Record
	FeedErr  error
	Table    domain.SheetTable
	SheetErr error
}

// Runner runs fetch cycles over both sources, one after the other, and hands results to publishers.
type Runner struct {
	feed   FeedSource
	sheet  SheetSource
	routes []publishers.Route
	log    logger.Logger
	now    func() time.Time
}

// NewRunner builds a Runner. Either source may be nil to skip it.
func NewRunner(feedSrc FeedSource, sheetSrc SheetSource, routes []publishers.Route, log logger.Logger) *Runner {
	return &Runner{
		feed:   feedSrc,
		sheet:  sheetSrc,
		routes: routes,
		log:    logger.Ensure(log),
		now:    time.Now,
	}
}

// RunOnce fetches both sources. refresh bypasses the cached sheet table.
func (r *Runner) RunOnce(ctx context.Context, refresh bool) Result {
	res := Result{
		At:      r.now(),
		Records: []domain.Record{},
		Table:   domain.EmptySheetTable(),
	}

	if r.feed != nil {
		if refresh {
			res.Records, res.FeedErr = r.feed.Refresh(ctx)
		} else {
			res.Records, res.FeedErr = r.feed.Fetch(ctx)
		}
		if res.Records == nil {
			res.Records = []domain.Record{}
		}
		r.publish(ctx, publishers.FeedEvent(feed.SourceID, res.At, res.Records, res.FeedErr))
	}

	if r.sheet != nil {
		if refresh {
			res.Table, res.SheetErr = r.sheet.Refresh(ctx)
		} else {
			res.Table, res.SheetErr = r.sheet.Fetch(ctx)
		}
		r.publish(ctx, publishers.SheetEvent(sheet.SourceID, res.At, res.Table, res.SheetErr))
	}

	fields := map[string]any{
		"refresh":    refresh,
		"records":    len(res.Records),
		"sheet_rows": len(res.Table.Rows),
	}
	if res.FeedErr != nil {
		fields["feed_error"] = res.FeedErr.Error()
	}
	if res.SheetErr != nil {
		fields["sheet_error"] = res.SheetErr.Error()
	}
	r.log.InfoObj("harvest cycle finished", "harvest_cycle_done", fields)

	return res
}

// Run executes a cycle immediately, then one per interval until ctx is done. A value on refresh
// triggers an extra cycle that bypasses the sheet cache.
func (r *Runner) Run(ctx context.Context, interval time.Duration, refresh <-chan struct{}) {
	r.RunOnce(ctx, false)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx, false)
		case <-refresh:
			r.RunOnce(ctx, true)
		}
	}
}

func (r *Runner) publish(ctx context.Context, evt publishers.Event) {
	if len(r.routes) == 0 {
		return
	}
	// Dispatch already logs each failing publisher.
	_ = publishers.Dispatch(ctx, r.routes, evt, r.log)
}
