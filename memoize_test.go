package memoize_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	memoize "github.com/krisalay/memoize"
)

//
// ================= TEST HELPERS =================
//

// sumKey matches the classic "key:x-y" derivation for two ints.
func sumKey(x, y int) string {
	return fmt.Sprintf("key:%d-%d", x, y)
}

// countingMetrics counts cache lifecycle events.
type countingMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	expired int
}

func (m *countingMetrics) Hit()    { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *countingMetrics) Miss()   { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *countingMetrics) Expire() { m.mu.Lock(); m.expired++; m.mu.Unlock() }

//
// ================= BASIC CACHING =================
//

func TestHitDeterminism(t *testing.T) {
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return x + y, nil
		},
		sumKey,
	)

	v, err := fn(3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}

	v, err = fn(3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7 on second call, got %d", v)
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected target invoked exactly once, got %d", n)
	}
}

func TestKeyIsolation(t *testing.T) {
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return x + y, nil
		},
		sumKey,
	)

	fn(3, 4)
	fn(5, 6)

	v, _ := fn(3, 4)
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	v, _ = fn(5, 6)
	if v != 11 {
		t.Fatalf("expected 11, got %d", v)
	}

	// One invocation per distinct key, no cross-talk.
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 target invocations, got %d", n)
	}
}

func TestSameArgumentsSameKey(t *testing.T) {
	// The memoizer compares derived keys, never arguments. Two logically
	// different calls that collide on the key share one entry.
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return x + y, nil
		},
		func(x, y int) string { return "constant" },
	)

	a, _ := fn(1, 2)
	b, _ := fn(9, 9)

	if a != 3 || b != 3 {
		t.Fatalf("expected collided key to reuse first result, got %d and %d", a, b)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 invocation under key collision, got %d", n)
	}
}

//
// ================= EXPIRATION =================
//

func TestExpirationReturnsZeroValueByDefault(t *testing.T) {
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return x + y, nil
		},
		sumKey,
		memoize.WithTTL[int](50*time.Millisecond),
	)

	v, _ := fn(3, 4)
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}

	time.Sleep(120 * time.Millisecond)

	// The stale read returns the default expiry result (zero value) and
	// must NOT run the target.
	v, err := fn(3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected zero value after expiration, got %d", v)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("target must not run on the expiry read, got %d invocations", n)
	}

	// The entry was removed, so the NEXT call is cold again.
	v, _ = fn(3, 4)
	if v != 7 {
		t.Fatalf("expected recomputed 7 after expiry, got %d", v)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected recomputation after expiry, got %d invocations", n)
	}
}

func TestExpirationCallback(t *testing.T) {
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (string, error) {
			atomic.AddInt32(&calls, 1)
			return fmt.Sprintf("%d", x+y), nil
		},
		sumKey,
		memoize.WithTTL[string](50*time.Millisecond),
		memoize.WithExpireFunc(func() string { return "Expired" }),
	)

	v, _ := fn(3, 4)
	if v != "7" {
		t.Fatalf("expected \"7\", got %q", v)
	}

	time.Sleep(120 * time.Millisecond)

	v, _ = fn(3, 4)
	if v != "Expired" {
		t.Fatalf("expected \"Expired\", got %q", v)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("target must not run on the expiry read, got %d invocations", n)
	}
}

func TestNoExpirationByDefault(t *testing.T) {
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return x + y, nil
		},
		sumKey,
	)

	fn(3, 4)
	time.Sleep(100 * time.Millisecond)

	v, _ := fn(3, 4)
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected no recomputation without TTL, got %d invocations", n)
	}
}

func TestZeroTTLMeansNoExpiration(t *testing.T) {
	var calls int32

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return x + y, nil
		},
		sumKey,
		memoize.WithTTL[int](0),
	)

	fn(3, 4)
	time.Sleep(50 * time.Millisecond)

	v, _ := fn(3, 4)
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("zero TTL must behave as no expiration, got %d invocations", n)
	}
}

//
// ================= FAILURES =================
//

func TestFailureIsNotCached(t *testing.T) {
	var calls int32
	boom := errors.New("boom")

	m := memoize.New(
		func(n int) (int, error) {
			c := atomic.AddInt32(&calls, 1)
			if c == 1 {
				return 0, boom
			}
			return n * n, nil
		},
		func(n int) string { return fmt.Sprintf("sq:%d", n) },
	)

	if _, err := m.Call(5); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// The failure must not have been stored: the second call re-runs
	// the target and succeeds.
	v, err := m.Call(5)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if v != 25 {
		t.Fatalf("expected 25, got %d", v)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 invocations, got %d", n)
	}
}

//
// ================= CONTEXT VARIANT =================
//

func TestContextMemoize(t *testing.T) {
	ctx := context.Background()
	var calls int32

	fn := memoize.NewContextFunc2(
		func(ctx context.Context, x, y int) (int, error) {
			atomic.AddInt32(&calls, 1)
			select {
			case <-time.After(100 * time.Millisecond):
				return x + y, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		},
		sumKey,
	)

	start := time.Now()
	v, err := fn(ctx, 3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Fatalf("first call should have awaited the computation")
	}

	// Second call is answered from the store, with no delay.
	start = time.Now()
	v, _ = fn(ctx, 3, 4)
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("second call should not have awaited the computation")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 invocation, got %d", n)
	}
}

func TestContextRejectionIsNotCached(t *testing.T) {
	ctx := context.Background()
	var calls int32

	m := memoize.NewContext(
		func(ctx context.Context, _ struct{}) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "", errors.New("boom")
		},
		func(struct{}) string { return "reject" },
	)

	if _, err := m.Call(ctx, struct{}{}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := m.Call(ctx, struct{}{}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom on retry, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("rejections must never be cached, got %d invocations", n)
	}
}

func TestContextCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := memoize.NewContext(
		func(ctx context.Context, _ struct{}) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 1, nil
		},
		func(struct{}) string { return "cancelled" },
	)

	if _, err := m.Call(ctx, struct{}{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The cancelled attempt stored nothing; a live context succeeds.
	v, err := m.Call(context.Background(), struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
}

//
// ================= CONCURRENCY =================
//

func TestConcurrentHits(t *testing.T) {
	var calls int32

	m := memoize.New(
		func(k string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "value", nil
		},
		func(k string) string { return k },
	)

	m.Call("key")

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Call("key")
			if err != nil || v != "value" {
				t.Errorf("expected value, got %q (err %v)", v, err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 invocation, got %d", n)
	}
}

func TestSingleFlightCoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	var calls int32

	m := memoize.NewContext(
		func(ctx context.Context, k string) (string, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(50 * time.Millisecond)
			return "computed:" + k, nil
		},
		func(k string) string { return k },
		memoize.WithSingleFlight[string](),
	)

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Call(ctx, "hot")
			if err != nil || v != "computed:hot" {
				t.Errorf("expected computed:hot, got %q (err %v)", v, err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected coalesced single invocation, got %d", n)
	}
}

//
// ================= MANAGEMENT & OBSERVABILITY =================
//

func TestForgetMakesNextCallCold(t *testing.T) {
	var calls int32

	m := memoize.New(
		func(n int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return n * 2, nil
		},
		func(n int) string { return fmt.Sprintf("dbl:%d", n) },
	)

	m.Call(21)
	m.Forget("dbl:21")
	m.Forget("dbl:21") // idempotent

	v, _ := m.Call(21)
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected recomputation after Forget, got %d invocations", n)
	}
}

func TestResetAndSize(t *testing.T) {
	m := memoize.New(
		func(n int) (int, error) { return n, nil },
		func(n int) string { return fmt.Sprintf("id:%d", n) },
	)

	for i := 0; i < 5; i++ {
		m.Call(i)
	}
	if m.Size() != 5 {
		t.Fatalf("expected 5 entries, got %d", m.Size())
	}

	m.Reset()
	if m.Size() != 0 {
		t.Fatalf("expected empty store after Reset, got %d", m.Size())
	}
}

func TestMetricsEvents(t *testing.T) {
	metrics := &countingMetrics{}

	fn := memoize.NewFunc2(
		func(x, y int) (int, error) { return x + y, nil },
		sumKey,
		memoize.WithTTL[int](50*time.Millisecond),
		memoize.WithMetrics[int](metrics),
	)

	fn(3, 4) // miss
	fn(3, 4) // hit
	time.Sleep(120 * time.Millisecond)
	fn(3, 4) // expire
	fn(3, 4) // miss again (cold after expiry)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.misses != 2 {
		t.Fatalf("expected 2 misses, got %d", metrics.misses)
	}
	if metrics.hits != 1 {
		t.Fatalf("expected 1 hit, got %d", metrics.hits)
	}
	if metrics.expired != 1 {
		t.Fatalf("expected 1 expiration, got %d", metrics.expired)
	}
}
