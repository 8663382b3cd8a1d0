/*
Package memoize wraps a function so repeated calls with equivalent arguments
skip recomputation and return a previously stored result, optionally expiring
a fixed duration after it was computed.

The memoizer never looks at arguments itself: a caller-supplied key function
maps each argument to a string, and two calls are "the same" exactly when
their keys are equal. Failed computations are never stored, so a call after
a failure always re-runs the wrapped function.
*/
package memoize

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/memoize/engine"
	"github.com/krisalay/memoize/expiration"
	"github.com/krisalay/memoize/store"
	"github.com/krisalay/memoize/types"
)

// Func is the shape of a synchronous wrapped function and of the wrapper
// returned for it.
type Func[A, V any] func(A) (V, error)

// KeyFunc derives the cache key for an argument. The memoizer performs no
// structural comparison of arguments; collisions are the caller's
// responsibility to avoid.
type KeyFunc[A any] func(A) string

/*
outcome classifies what a store lookup found. Keeping this explicit (instead
of collapsing everything into a zero-value sentinel) is what lets the call
paths stay shared between the plain and the context-aware memoizers.
*/
type outcome int

const (
	outcomeMiss outcome = iota
	outcomeHit
	outcomeExpired
)

/*
core is everything a memoizer does that does not depend on the calling
convention: key lookup, expiration, storing results, metrics. The plain and
context-aware memoizers differ only in how they obtain a result on a miss,
so both delegate here.
*/
type core[V any] struct {
	store  store.Store[V]
	engine *engine.Engine[V]

	// mu serializes the delete-on-expiry and store-after-compute sequences
	// so the last completed write wins whole. Reads stay lock-free.
	mu sync.Mutex

	// sf is non-nil only when single-flight is enabled; it coalesces
	// concurrent computations of the same missing key.
	sf *singleflight.Group
}

func newCore[V any](cfg config[V]) *core[V] {
	var exp expiration.Strategy[V]
	if cfg.ttl > 0 {
		exp = &expiration.FixedTTL[V]{TTL: cfg.ttl}
	}

	c := &core[V]{
		store:  store.NewCOWStore[V](),
		engine: engine.New(exp, cfg.expireFunc, cfg.metrics, cfg.logger),
	}

	if cfg.singleFlight {
		c.sf = &singleflight.Group{}
	}
	return c
}

/*
lookup consults the store for key and classifies the result.

- Live entry: record a hit, return the stored value.
- Stale entry: remove it, then return the expiry callback's result. The
  wrapped function is NOT invoked on this path; the next call for this key
  starts cold.
- No entry: report a miss so the caller runs the wrapped function.
*/
func (c *core[V]) lookup(key string) (V, outcome) {
	ent, ok := c.store.Get(key)
	if !ok {
		var zero V
		return zero, outcomeMiss
	}

	if c.engine.IsExpired(ent) {
		c.mu.Lock()
		// Only delete the entry we observed; a parallel caller may have
		// stored a fresh one in the meantime.
		if cur, ok := c.store.Get(key); ok && cur == ent {
			c.store.Delete(key)
		}
		c.mu.Unlock()

		return c.engine.OnExpire(key), outcomeExpired
	}

	c.engine.OnHit(key)
	return ent.Value, outcomeHit
}

/*
fill runs compute for a key that had no live entry and stores the result on
success.

Without single-flight, concurrent callers that missed on the same key each
run compute independently and the last completed write wins. With it, one
caller computes and the rest share that outcome.
*/
func (c *core[V]) fill(key string, compute func() (V, error)) (V, error) {
	c.engine.OnMiss(key)

	if c.sf != nil {
		v, err, _ := c.sf.Do(key, func() (any, error) {
			return c.computeAndStore(key, compute)
		})
		if err != nil {
			var zero V
			return zero, err
		}
		return v.(V), nil
	}

	return c.computeAndStore(key, compute)
}

func (c *core[V]) computeAndStore(key string, compute func() (V, error)) (V, error) {
	v, err := compute()
	if err != nil {
		// Failures are never cached: the error propagates unchanged and a
		// later call for this key re-runs the wrapped function.
		var zero V
		return zero, err
	}

	ent := &types.CacheEntry[V]{
		Key:   key,
		Value: v,
	}

	// Stamp the expiry exactly once, at write time.
	c.engine.OnWrite(ent)

	c.mu.Lock()
	c.store.Put(key, ent)
	c.mu.Unlock()

	return v, nil
}

func (c *core[V]) forget(key string) {
	c.mu.Lock()
	c.store.Delete(key)
	c.mu.Unlock()
}

func (c *core[V]) reset() {
	c.mu.Lock()
	c.store.Reset()
	c.mu.Unlock()
}

/*
Memoizer is the synchronous variant: calls run entirely within the caller's
goroutine with no suspension point.

A Memoizer owns its store exclusively. Nothing outside the instance can read
or write the stored entries.
*/
type Memoizer[A, V any] struct {
	core   *core[V]
	target Func[A, V]
	key    KeyFunc[A]
}

// New creates a memoizer around target, deriving cache keys with key.
func New[A, V any](target Func[A, V], key KeyFunc[A], opts ...Option[V]) *Memoizer[A, V] {
	cfg := defaultConfig[V]()
	for _, o := range opts {
		o(&cfg)
	}

	return &Memoizer[A, V]{
		core:   newCore(cfg),
		target: target,
		key:    key,
	}
}

/*
Call invokes the wrapped function through the cache.

1. Derive the key.
2. Live entry  => return the stored value, target not invoked.
3. Stale entry => remove it, return the expiry callback's result, target
   not invoked.
4. No entry    => invoke target. On success store and return the result; on
   error store nothing and return the error unchanged.
*/
func (m *Memoizer[A, V]) Call(arg A) (V, error) {
	key := m.key(arg)

	if v, out := m.core.lookup(key); out != outcomeMiss {
		return v, nil
	}

	return m.core.fill(key, func() (V, error) {
		return m.target(arg)
	})
}

// Forget drops the entry for a derived key, if present. The next call for
// that key is treated as cold. Idempotent.
func (m *Memoizer[A, V]) Forget(key string) {
	m.core.forget(key)
}

// Reset drops every stored entry.
func (m *Memoizer[A, V]) Reset() {
	m.core.reset()
}

// Size returns how many entries are currently stored, including entries
// that are stale but not yet observed by a read.
func (m *Memoizer[A, V]) Size() int64 {
	return m.core.store.Size()
}

// NewFunc is like New but returns the wrapper as a bare function, for
// callers that only ever need Call.
func NewFunc[A, V any](target Func[A, V], key KeyFunc[A], opts ...Option[V]) Func[A, V] {
	return New(target, key, opts...).Call
}

// pair tuples two arguments so the two-argument adapters can reuse the
// single-argument core.
type pair[A1, A2 any] struct {
	first  A1
	second A2
}

// NewFunc2 adapts a two-argument function. The key function receives both
// arguments, exactly as the target does.
func NewFunc2[A1, A2, V any](
	target func(A1, A2) (V, error),
	key func(A1, A2) string,
	opts ...Option[V],
) func(A1, A2) (V, error) {

	m := New(
		func(p pair[A1, A2]) (V, error) { return target(p.first, p.second) },
		func(p pair[A1, A2]) string { return key(p.first, p.second) },
		opts...,
	)

	return func(a1 A1, a2 A2) (V, error) {
		return m.Call(pair[A1, A2]{first: a1, second: a2})
	}
}
