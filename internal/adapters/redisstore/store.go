// Package redisstore is a Redis-backed session store for deployments where
// the storefront runs on shared terminals and the session record must live
// off the local disk. The record is one JSON value under a prefixed key with
// a TTL derived from the credential's embedded expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// Store persists the session record in Redis.
type Store struct {
	client    redis.UniversalClient
	key       string
	inspector *domainid.Inspector
}

// New creates a Redis session store keyed under "session:current".
func New(client redis.UniversalClient) *Store {
	return NewWithKey(client, "session:current")
}

// NewWithKey creates a Redis session store with a custom key.
func NewWithKey(client redis.UniversalClient, key string) *Store {
	return &Store{
		client:    client,
		key:       key,
		inspector: domainid.NewInspector(),
	}
}

func (s *Store) Load(ctx context.Context) (domainid.SessionRecord, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainid.SessionRecord{}, domainid.ErrNoSession
		}
		return domainid.SessionRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domainid.SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		// Corrupt persisted state reads as absent, not as a failure.
		return domainid.SessionRecord{}, domainid.ErrNoSession
	}
	if !rec.Complete() {
		return domainid.SessionRecord{}, domainid.ErrNoSession
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, rec domainid.SessionRecord) error {
	if !rec.Complete() {
		return errors.New("redisstore: refusing to save incomplete session record")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	// Let Redis expire the record with the credential when the expiry is
	// readable; tokens without a readable expiry persist until cleared and
	// are judged at load time instead.
	var ttl time.Duration
	if expiry, ok := s.inspector.Expiry(rec.Credential); ok {
		ttl = time.Until(expiry)
		if ttl <= 0 {
			return errors.New("redisstore: session credential already expired")
		}
	}

	return s.client.Set(ctx, s.key, data, ttl).Err()
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
