package memoize

import "context"

// ContextFunc is the shape of a context-aware wrapped function and of the
// wrapper returned for it. This is the variant to use when the computation
// suspends: I/O, RPCs, anything that should honor cancellation.
type ContextFunc[A, V any] func(context.Context, A) (V, error)

/*
ContextMemoizer is the suspending variant of Memoizer.

Hits and expiry reads never suspend: they are answered from the store
without touching the context. The only point a call can block on external
work is awaiting the wrapped function on a miss, and that invocation
receives the caller's context unchanged.

Key, expiration and store logic are shared with the plain Memoizer; only
how the result is obtained differs.
*/
type ContextMemoizer[A, V any] struct {
	core   *core[V]
	target ContextFunc[A, V]
	key    KeyFunc[A]
}

// NewContext creates a memoizer around a context-aware target.
func NewContext[A, V any](target ContextFunc[A, V], key KeyFunc[A], opts ...Option[V]) *ContextMemoizer[A, V] {
	cfg := defaultConfig[V]()
	for _, o := range opts {
		o(&cfg)
	}

	return &ContextMemoizer[A, V]{
		core:   newCore(cfg),
		target: target,
		key:    key,
	}
}

/*
Call invokes the wrapped function through the cache. The contract is the
same as Memoizer.Call; ctx is forwarded to the wrapped function on a miss
and consulted nowhere else.

A context error coming back from the wrapped function is an ordinary
failure: nothing is stored and the error propagates unchanged.

With single-flight enabled, a coalesced caller waits on a computation that
was started with the FIRST caller's context; cancelling its own context
does not unblock it.
*/
func (m *ContextMemoizer[A, V]) Call(ctx context.Context, arg A) (V, error) {
	key := m.key(arg)

	if v, out := m.core.lookup(key); out != outcomeMiss {
		return v, nil
	}

	return m.core.fill(key, func() (V, error) {
		return m.target(ctx, arg)
	})
}

// Forget drops the entry for a derived key, if present. Idempotent.
func (m *ContextMemoizer[A, V]) Forget(key string) {
	m.core.forget(key)
}

// Reset drops every stored entry.
func (m *ContextMemoizer[A, V]) Reset() {
	m.core.reset()
}

// Size returns how many entries are currently stored.
func (m *ContextMemoizer[A, V]) Size() int64 {
	return m.core.store.Size()
}

// NewContextFunc is like NewContext but returns the wrapper as a bare
// function.
func NewContextFunc[A, V any](target ContextFunc[A, V], key KeyFunc[A], opts ...Option[V]) ContextFunc[A, V] {
	return NewContext(target, key, opts...).Call
}

// NewContextFunc2 adapts a two-argument context-aware function.
func NewContextFunc2[A1, A2, V any](
	target func(context.Context, A1, A2) (V, error),
	key func(A1, A2) string,
	opts ...Option[V],
) func(context.Context, A1, A2) (V, error) {

	m := NewContext(
		func(ctx context.Context, p pair[A1, A2]) (V, error) {
			return target(ctx, p.first, p.second)
		},
		func(p pair[A1, A2]) string { return key(p.first, p.second) },
		opts...,
	)

	return func(ctx context.Context, a1 A1, a2 A2) (V, error) {
		return m.Call(ctx, pair[A1, A2]{first: a1, second: a2})
	}
}
