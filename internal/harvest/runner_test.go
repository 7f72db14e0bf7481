package harvest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/pkg/feed"
	"github.com/Adda-Baaj/portco-news/pkg/httpclient"
	"github.com/Adda-Baaj/portco-news/pkg/publishers"
)

type fakeFeed struct {
	records   []domain.Record
	err       error
	fetches   int
	refreshes int
}

func (f *fakeFeed) Fetch(context.Context) ([]domain.Record, error) {
	f.fetches++
	return f.records, f.err
}

func (f *fakeFeed) Refresh(context.Context) ([]domain.Record, error) {
	f.refreshes++
	return f.records, f.err
}

type fakeSheet struct {
	table     domain.SheetTable
	err       error
	fetches   int
	refreshes int
}

func (s *fakeSheet) Fetch(context.Context) (domain.SheetTable, error) {
	s.fetches++
	return s.table, s.err
}

func (s *fakeSheet) Refresh(context.Context) (domain.SheetTable, error) {
	s.refreshes++
	return s.table, s.err
}

type capturePublisher struct {
	events []publishers.Event
}

func (p *capturePublisher) ID() string   { return "capture" }
func (p *capturePublisher) Type() string { return "capture" }
func (p *capturePublisher) Publish(_ context.Context, evt publishers.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func routesFor(p publishers.Publisher) []publishers.Route {
	return []publishers.Route{{Publisher: p}}
}

func TestRunOncePublishesBothSources(t *testing.T) {
	fd := &fakeFeed{records: []domain.Record{{Title: "A"}}}
	sh := &fakeSheet{table: domain.EmptySheetTable(), err: errors.New("no credentials")}
	pub := &capturePublisher{}

	res := NewRunner(fd, sh, routesFor(pub), nil).RunOnce(context.Background(), false)

	assert.Len(t, res.Records, 1)
	assert.NoError(t, res.FeedErr)
	assert.Error(t, res.SheetErr)
	assert.Equal(t, domain.SheetColumns, res.Table.Columns)
	assert.Equal(t, 1, fd.fetches)
	assert.Equal(t, 1, sh.fetches)

	require.Len(t, pub.events, 2)
	assert.Equal(t, "feed", pub.events[0].Source)
	assert.Equal(t, "sheet", pub.events[1].Source)
	assert.Equal(t, "no credentials", pub.events[1].Error)
}

func TestRunOnceRefreshBypassesCache(t *testing.T) {
	fd := &fakeFeed{}
	sh := &fakeSheet{table: domain.EmptySheetTable()}

	res := NewRunner(fd, sh, nil, nil).RunOnce(context.Background(), true)

	assert.Equal(t, 1, fd.refreshes)
	assert.Equal(t, 1, sh.refreshes)
	assert.Zero(t, fd.fetches)
	assert.NotNil(t, res.Records)
}

func TestRunOnceSkipsNilSources(t *testing.T) {
	res := NewRunner(nil, nil, nil, nil).RunOnce(context.Background(), false)
	assert.Empty(t, res.Records)
	assert.Equal(t, domain.SheetColumns, res.Table.Columns)
}

func TestRunHandlesRefreshSignal(t *testing.T) {
	fd := &fakeFeed{}
	ctx, cancel := context.WithCancel(context.Background())
	refresh := make(chan struct{})

	done := make(chan struct{})
	go func() {
		NewRunner(fd, nil, nil, nil).Run(ctx, time.Hour, refresh)
		close(done)
	}()

	refresh <- struct{}{}
	cancel()
	<-done

	assert.Equal(t, 1, fd.fetches)
	assert.Equal(t, 1, fd.refreshes)
}

func TestRunSingleShot(t *testing.T) {
	fd := &fakeFeed{}
	NewRunner(fd, nil, nil, nil).Run(context.Background(), 0, nil)
	assert.Equal(t, 1, fd.fetches)
}

const liveRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>A</title><link>https://x/a</link><pubDate>Tue, 01 Jan 2024 00:00:00 GMT</pubDate></item>
</channel></rss>`

func TestLiveFeedHitsUpstreamEveryCycle(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(liveRSS))
	}))
	defer srv.Close()

	ing := feed.NewIngestor(srv.URL, httpclient.NewRestyClient(5*time.Second), nil)
	runner := NewRunner(NewLiveFeed(ing), nil, nil, nil)

	first := runner.RunOnce(context.Background(), false)
	require.NoError(t, first.FeedErr)
	require.Len(t, first.Records, 1)

	second := runner.RunOnce(context.Background(), false)
	require.NoError(t, second.FeedErr)
	assert.Equal(t, first.Records, second.Records)

	assert.EqualValues(t, 2, hits.Load())

	_ = runner.RunOnce(context.Background(), true)
	assert.EqualValues(t, 3, hits.Load())
}

func TestLiveFeedRefreshFetches(t *testing.T) {
	fd := &fakeFeed{records: []domain.Record{{Title: "A"}}}
	live := NewLiveFeed(fd)

	records, err := live.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, fd.fetches)
	assert.Zero(t, fd.refreshes)
}
