package middleware

import (
	"encoding/json"
	"sync"
	"time"

	"petrent/pkg/logger"

	"github.com/boltdb/bolt"
)

const idempotencyBucket = "idempotency"

// BoltIdempotencyStore keeps replayable responses in a single bolt file so
// they survive a restart.
type BoltIdempotencyStore struct {
	db       *bolt.DB
	ttl      time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewBoltIdempotencyStore(path string, ttl time.Duration, log *logger.Logger) (*BoltIdempotencyStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(idempotencyBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &BoltIdempotencyStore{
		db:     db,
		ttl:    ttl,
		log:    log,
		stopCh: make(chan struct{}),
	}
	go s.cleanup()
	return s, nil
}

func (s *BoltIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	var cached CachedResponse
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(idempotencyBucket)).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &cached)
	})
	if err != nil {
		s.log.Warn("Failed to read idempotency record", "error", err)
		return nil, false
	}
	if !found || cached.expired(s.ttl) {
		return nil, false
	}
	return &cached, true
}

func (s *BoltIdempotencyStore) Set(key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("Failed to encode idempotency record", "error", err)
		return
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(idempotencyBucket)).Put([]byte(key), data)
	})
	if err != nil {
		s.log.Warn("Failed to write idempotency record", "error", err)
	}
}

// Purge deletes expired records and reports how many were removed.
func (s *BoltIdempotencyStore) Purge() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(idempotencyBucket))
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var cached CachedResponse
			if err := json.Unmarshal(v, &cached); err != nil || cached.expired(s.ttl) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

func (s *BoltIdempotencyStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.Purge(); err != nil {
				s.log.Warn("Failed to purge idempotency records", "error", err)
			} else if n > 0 {
				s.log.Debug("Purged idempotency records", "count", n)
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop ends the purge loop and closes the bolt file.
func (s *BoltIdempotencyStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.db.Close(); err != nil {
			s.log.Warn("Failed to close idempotency store", "error", err)
		}
	})
}
