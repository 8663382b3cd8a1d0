package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/krisalay/memoize/expiration"
	"github.com/krisalay/memoize/types"
)

/*
Engine is the "brain" of a memoizer.
It is responsible for the BEHAVIOR of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When a stored result is expired
- What a caller gets back when a read finds a stale entry
- How metrics are recorded
- What gets logged on the hit/miss/expire paths

It does NOT:
- Store data
- Invoke the wrapped function
- Handle locking
*/
type Engine[V any] struct {

	// Expiration controls when a stored result should be considered too old.
	// If this is nil, entries never expire based on time.
	Expiration expiration.Strategy[V]

	// ExpireFunc produces the value a caller receives when a read discovers
	// a stale entry. The stale value itself is never returned. If nil, the
	// caller receives the zero value of V.
	ExpireFunc func() V

	// Metrics is how we keep track of what the memoizer is doing.
	// Hits, misses, expirations.
	Metrics types.Metrics

	// Logger emits debug events on the hit/miss/expire/store paths.
	// Defaults to a no-op logger.
	Logger zerolog.Logger
}

// New creates an Engine, filling in no-op defaults so the hot paths never
// need nil checks.
func New[V any](
	exp expiration.Strategy[V],
	expireFunc func() V,
	metrics types.Metrics,
	logger zerolog.Logger,
) *Engine[V] {

	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &Engine[V]{
		Expiration: exp,
		ExpireFunc: expireFunc,
		Metrics:    metrics,
		Logger:     logger,
	}
}

/*
IsExpired checks whether an entry is stale.

BEHAVIOR:
---------
- Delegates the decision to the configured Expiration strategy
- Uses current wall-clock time
- Returns false if no expiration strategy is configured
*/
func (e *Engine[V]) IsExpired(ent *types.CacheEntry[V]) bool {
	return e.Expiration != nil &&
		e.Expiration.IsExpired(ent, time.Now())
}

// OnHit is called when a call is answered from the store.
func (e *Engine[V]) OnHit(key string) {
	e.Metrics.Hit()
	e.Logger.Debug().Str("key", key).Msg("memoize hit")
}

// OnMiss is called when a key has no live entry and the wrapped function
// is about to run.
func (e *Engine[V]) OnMiss(key string) {
	e.Metrics.Miss()
	e.Logger.Debug().Str("key", key).Msg("memoize miss")
}

/*
OnExpire is called when a read discovers a stale entry. The entry has
already been removed by the time this runs.

The return value is what the caller of the wrapper receives for this call:
the result of the configured expiry callback, or the zero value of V when
none is configured. That zero value is indistinguishable from a genuinely
cached zero value; callers that need to tell the two apart must configure
an ExpireFunc with a distinguishable result.
*/
func (e *Engine[V]) OnExpire(key string) V {
	e.Metrics.Expire()
	e.Logger.Debug().Str("key", key).Msg("memoize expired")

	if e.ExpireFunc == nil {
		var zero V
		return zero
	}
	return e.ExpireFunc()
}

/*
OnWrite is called whenever a freshly computed result is about to be stored.

This is where expiration rules related to writes are applied: the entry's
expiry is stamped exactly once, here.
*/
func (e *Engine[V]) OnWrite(ent *types.CacheEntry[V]) {
	now := time.Now()

	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, now)
	} else {
		ent.CreatedAt = now
	}

	e.Logger.Debug().
		Str("key", ent.Key).
		Time("expireAt", ent.ExpireAt).
		Msg("memoize store")
}
