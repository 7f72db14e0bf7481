package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/portco-news/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 15, 12, 10, 0, 0, time.UTC)}
}

func stores(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()
	bs, err := OpenBoltStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	bs.now = clock.Now
	t.Cleanup(func() { _ = bs.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(time.Minute),
		"bolt":   bs,
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, time.Hour)
	assert.Error(t, err)
	_, err = New(NewMemoryStore(time.Minute), 0)
	assert.Error(t, err)
}

func TestCacheRoundTripAndInvalidate(t *testing.T) {
	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			c, err := New(store, time.Hour, WithClock(clock.Now))
			require.NoError(t, err)

			var got []string
			assert.ErrorIs(t, c.Get("feed", &got), ErrMiss)

			require.NoError(t, c.Set("feed", []string{"a", "b"}))
			require.NoError(t, c.Set("sheet", []string{"s"}))
			require.NoError(t, c.Get("feed", &got))
			assert.Equal(t, []string{"a", "b"}, got)

			require.NoError(t, c.Invalidate("feed"))
			assert.ErrorIs(t, c.Get("feed", &got), ErrMiss)

			var sheet []string
			require.NoError(t, c.Get("sheet", &sheet))
			assert.Equal(t, []string{"s"}, sheet)
		})
	}
}

func TestCacheBucketRollsOver(t *testing.T) {
	clock := newClock()
	c, err := New(NewMemoryStore(time.Minute), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	key := c.Key("feed")
	assert.Equal(t, key, c.Key("feed"))

	require.NoError(t, c.Set("feed", 1))
	clock.Advance(time.Hour)
	assert.NotEqual(t, key, c.Key("feed"))

	var v int
	assert.ErrorIs(t, c.Get("feed", &v), ErrMiss)
}

func TestBoltStoreExpiresEntries(t *testing.T) {
	clock := newClock()
	bs, err := OpenBoltStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer bs.Close()
	bs.now = clock.Now

	require.NoError(t, bs.Set("k", []byte(`"v"`), time.Minute))
	raw, ok, err := bs.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"v"`, string(raw))

	clock.Advance(time.Minute)
	_, ok, err = bs.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoltStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	bs, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, bs.Set("feed:1", []byte(`[1]`), time.Hour))
	require.NoError(t, bs.Close())

	reopened, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	raw, ok, err := reopened.Get("feed:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[1]", string(raw))
}

type countingSheet struct {
	table domain.SheetTable
	err   error
	calls int
}

func (s *countingSheet) ID() string { return "sheet" }
func (s *countingSheet) Fetch(context.Context) (domain.SheetTable, error) {
	s.calls++
	if s.err != nil {
		return domain.EmptySheetTable(), s.err
	}
	return s.table, nil
}

func TestCachedSheetKeepsShape(t *testing.T) {
	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			c, err := New(store, time.Hour, WithClock(clock.Now))
			require.NoError(t, err)

			d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			table := domain.EmptySheetTable()
			table.Rows = append(table.Rows, domain.SheetRow{Date: &d, Title: "row"}, domain.SheetRow{Title: "undated"})

			src := &countingSheet{table: table}
			cs := NewCachedSheet(src, c)

			first, err := cs.Fetch(context.Background())
			require.NoError(t, err)
			second, err := cs.Fetch(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 1, src.calls)
			assert.Equal(t, domain.SheetColumns, second.Columns)
			require.Len(t, second.Rows, 2)
			require.NotNil(t, second.Rows[0].Date)
			assert.True(t, d.Equal(*second.Rows[0].Date))
			assert.Nil(t, second.Rows[1].Date)
			assert.Equal(t, first.Rows[1].Title, second.Rows[1].Title)

			_, err = cs.Refresh(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, src.calls)
		})
	}
}

func TestCachedSheetDoesNotCacheFailures(t *testing.T) {
	clock := newClock()
	c, err := New(NewMemoryStore(time.Minute), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	src := &countingSheet{err: errors.New("forbidden")}
	cs := NewCachedSheet(src, c)

	table, err := cs.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.SheetColumns, table.Columns)
	assert.Empty(t, table.Rows)

	src.err = nil
	src.table = domain.EmptySheetTable()
	_, err = cs.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
