// Package cache keeps reassembled policy documents keyed by the tail hash
// they were committed under. Ledger content is immutable, so entries never
// need invalidation; the TTL only bounds memory on the Redis side.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "policystore:doc:"

type Documents struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Documents {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Documents{rdb: rdb, ttl: ttl}
}

// Get returns the cached document for a tail hash. A nil receiver or any
// Redis error reads as a miss; the caller falls back to the ledger.
func (d *Documents) Get(ctx context.Context, tailHash string) ([]byte, bool) {
	if d == nil {
		return nil, false
	}
	b, err := d.rdb.Get(ctx, keyPrefix+tailHash).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Put stores a reassembled document. Failures are ignored: the cache is an
// optimization over an immutable source of truth.
func (d *Documents) Put(ctx context.Context, tailHash string, doc []byte) {
	if d == nil {
		return
	}
	d.rdb.Set(ctx, keyPrefix+tailHash, doc, d.ttl)
}
