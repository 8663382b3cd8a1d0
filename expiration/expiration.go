// This file defines how memoized entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/memoize/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of
hard-coding expiration logic into the memoizer, we define a strategy so
expiration behavior can be swapped easily.

Note there is deliberately NO on-access hook here: a memoized result keeps
the expiry it was written with. Reads must never extend an entry's life.
*/
type Strategy[V any] interface {

	// IsExpired checks if the entry is expired at the given moment.
	IsExpired(*types.CacheEntry[V], time.Time) bool

	// OnWrite is called when an entry is written or replaced, and is the
	// only place an expiry time is ever set.
	OnWrite(*types.CacheEntry[V], time.Time)
}
