package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore builds a MemoryStore purging expired entries every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	v, found := s.c.Get(key)
	if !found {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	s.c.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) DeletePrefix(prefix string) error {
	for k := range s.c.Items() {
		if strings.HasPrefix(k, prefix) {
			s.c.Delete(k)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.c.Flush()
	return nil
}
