package memoize

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/krisalay/memoize/types"
)

/*
This file defines the optional knobs of a memoizer.

Everything here has a safe default:
- no TTL (results never expire)
- zero-value expiry result
- no metrics
- no logging
- no coalescing of concurrent misses

So the minimal call is just New(target, keyFn).
*/

// config is assembled from options at construction time and then owned by
// the memoizer; it is never mutated afterwards.
type config[V any] struct {
	ttl          time.Duration
	expireFunc   func() V
	metrics      types.Metrics
	logger       zerolog.Logger
	singleFlight bool
}

func defaultConfig[V any]() config[V] {
	return config[V]{
		logger: zerolog.Nop(),
	}
}

// Option configures a memoizer at construction time.
type Option[V any] func(*config[V])

/*
WithTTL makes stored results expire a fixed duration after they are written.

The expiry of an entry is stamped once, at write time, and is never extended
by reads. A non-positive duration is the same as not setting a TTL at all:
results never expire.
*/
func WithTTL[V any](d time.Duration) Option[V] {
	return func(c *config[V]) {
		c.ttl = d
	}
}

/*
WithExpireFunc sets the callback invoked when a call finds its entry stale.

The callback's return value is what the caller receives for that call — the
stale value is never returned, and the wrapped function is NOT invoked on
that call. Without this option the caller receives the zero value of V,
which is indistinguishable from a genuinely cached zero value.
*/
func WithExpireFunc[V any](f func() V) Option[V] {
	return func(c *config[V]) {
		c.expireFunc = f
	}
}

// WithMetrics records hit/miss/expire events on the given Metrics.
func WithMetrics[V any](m types.Metrics) Option[V] {
	return func(c *config[V]) {
		c.metrics = m
	}
}

// WithLogger emits debug events on the hit/miss/expire/store paths.
func WithLogger[V any](l zerolog.Logger) Option[V] {
	return func(c *config[V]) {
		c.logger = l
	}
}

/*
WithSingleFlight coalesces concurrent calls for the same not-yet-cached key
into a single execution of the wrapped function; the other callers block and
receive the same result.

This is OFF by default: without it, two goroutines that miss on the same key
both run the wrapped function and the last write wins. Turn it on when the
wrapped function is expensive enough that duplicate in-flight work matters.
*/
func WithSingleFlight[V any]() Option[V] {
	return func(c *config[V]) {
		c.singleFlight = true
	}
}
