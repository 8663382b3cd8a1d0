package types

import "time"

/*
CacheEntry is one memoized result.

An entry belongs to exactly ONE memoizer instance. It is written whole and
replaced whole: a later computation for the same key swaps the entry in,
it never merges into an existing one.

ExpireAt is stamped ONCE, when the entry is written. Reads never push it
forward. A zero ExpireAt means the entry never expires.
*/
type CacheEntry[V any] struct {
	Key       string
	Value     V
	CreatedAt time.Time
	ExpireAt  time.Time // zero => no TTL
}
