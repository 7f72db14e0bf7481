package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var resultsBucket = []byte("results")

// BoltStore keeps entries in a bbolt file so a restart within the TTL reuses the last fetch.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

type boltEntry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Data      json.RawMessage `json:"data"`
}

// OpenBoltStore opens or creates the cache file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resultsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Get(key string) ([]byte, bool, error) {
	var entry boltEntry
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(resultsBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !found || !s.now().Before(entry.ExpiresAt) {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

func (s *BoltStore) Set(key string, value []byte, ttl time.Duration) error {
	raw, err := json.Marshal(boltEntry{ExpiresAt: s.now().Add(ttl), Data: value})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultsBucket).Put([]byte(key), raw)
	})
}

func (s *BoltStore) DeletePrefix(prefix string) error {
	p := []byte(prefix)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(resultsBucket)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error { return s.db.Close() }
