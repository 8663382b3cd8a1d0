package expiration

import (
	"time"

	"github.com/krisalay/memoize/types"
)

/*
FixedTTL implements "expire after write".

The expiry is computed exactly once, at write time, as write-time + TTL.
It is never recomputed and never pushed forward by later reads. Once the
clock passes ExpireAt, the entry is stale and the next read removes it.

A TTL of zero (or negative) means entries never expire. Callers that want
"no expiration" simply leave the TTL unset.
*/
type FixedTTL[V any] struct {

	// TTL defines how long an entry remains valid AFTER it is written.
	TTL time.Duration
}

// IsExpired checks whether the entry is stale at this moment.
// An entry is live while now <= ExpireAt.
func (f *FixedTTL[V]) IsExpired(ent *types.CacheEntry[V], now time.Time) bool {
	return !ent.ExpireAt.IsZero() && now.After(ent.ExpireAt)
}

/*
OnWrite is called when the entry is first written or replaced.
- We record when the entry was created
- We stamp ExpireAt as now + TTL, but only when a positive TTL is configured

This is the ONLY place ExpireAt is ever assigned.
*/
func (f *FixedTTL[V]) OnWrite(ent *types.CacheEntry[V], now time.Time) {
	ent.CreatedAt = now

	if f.TTL > 0 {
		ent.ExpireAt = now.Add(f.TTL)
	}
}
