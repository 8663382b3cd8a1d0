package types

// This file defines how the memoizer reports what it is doing.

/*
Metrics is an interface that defines what the memoizer wants to measure.
Each method represents an event in the lifecycle of a wrapped call. The
memoizer calls these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a call is answered from the store without
	// invoking the wrapped function.
	Hit()

	// Miss is called when a key has no entry and the wrapped function
	// has to be invoked.
	Miss()

	// Expire is called when a read discovers a stale entry and removes it.
	Expire()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

We don't want to force every user of the memoizer to implement metrics.
If someone does not care about metrics, everything still works without
nil pointer checks or "if metrics != nil" conditions everywhere.
*/
type NoopMetrics struct{}

// All methods below intentionally do nothing.
func (NoopMetrics) Hit()    {}
func (NoopMetrics) Miss()   {}
func (NoopMetrics) Expire() {}
