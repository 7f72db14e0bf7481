package cache

import (
	"context"
	"errors"

	"github.com/Adda-Baaj/portco-news/internal/domain"
)

// SheetSource is satisfied by sheet.Ingestor.
type SheetSource interface {
	ID() string
	Fetch(ctx context.Context) (domain.SheetTable, error)
}

// CachedSheet serves the sheet table from the cache until it expires or Refresh is called.
type CachedSheet struct {
	src   SheetSource
	cache *Cache
}

// NewCachedSheet wraps src.
func NewCachedSheet(src SheetSource, c *Cache) *CachedSheet {
	return &CachedSheet{src: src, cache: c}
}

// Fetch returns the cached table or fetches a fresh one. Failed fetches are not cached.
func (s *CachedSheet) Fetch(ctx context.Context) (domain.SheetTable, error) {
	var table domain.SheetTable
	if err := s.cache.Get(s.src.ID(), &table); err == nil {
		if table.Rows == nil {
			table.Rows = []domain.SheetRow{}
		}
		return table, nil
	} else if !errors.Is(err, ErrMiss) {
		s.cache.log.WarnObj("cache read failed", "cache_error", map[string]any{"source": s.src.ID(), "error": err.Error()})
	}

	table, err := s.src.Fetch(ctx)
	if err != nil {
		return table, err
	}
	if err := s.cache.Set(s.src.ID(), table); err != nil {
		s.cache.log.WarnObj("cache write failed", "cache_error", map[string]any{"source": s.src.ID(), "error": err.Error()})
	}
	return table, nil
}

// Refresh drops the cached table and fetches again.
func (s *CachedSheet) Refresh(ctx context.Context) (domain.SheetTable, error) {
	if err := s.cache.Invalidate(s.src.ID()); err != nil {
		s.cache.log.WarnObj("cache invalidate failed", "cache_error", map[string]any{"source": s.src.ID(), "error": err.Error()})
	}
	return s.Fetch(ctx)
}
