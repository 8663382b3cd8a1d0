package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	memoize "github.com/krisalay/memoize"
	"github.com/krisalay/memoize/keys"
)

// ================= METRICS =================
type Metrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	expired int
}

func (m *Metrics) Hit()    { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()   { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Expire() { m.mu.Lock(); m.expired++; m.mu.Unlock() }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS    : %d\n", m.hits)
	fmt.Printf("MISSES  : %d\n", m.misses)
	fmt.Printf("EXPIRED : %d\n", m.expired)
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("TTL            : 1s fixed (expire after write)")
	fmt.Println("EXPIRY RESULT  : -1 sentinel")
	fmt.Println("SINGLE-FLIGHT  : on (context variant)")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	metrics := &Metrics{}

	// A deliberately slow "computation" so the caching effect is visible.
	slowSum := func(x, y int) (int, error) {
		fmt.Printf("TARGET → computing %d+%d\n", x, y)
		time.Sleep(200 * time.Millisecond)
		return x + y, nil
	}

	sum := memoize.NewFunc2(
		slowSum,
		func(x, y int) string { return keys.Join("sum", x, y) },
		memoize.WithTTL[int](1*time.Second),
		memoize.WithExpireFunc(func() int { return -1 }),
		memoize.WithMetrics[int](metrics),
		memoize.WithLogger[int](logger),
	)

	// ====================================================
	fmt.Println("\n==================== 1) COLD CALL ====================")
	v, _ := sum(3, 4)
	fmt.Println("MEMO   → sum(3,4) =", v)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	start := time.Now()
	v, _ = sum(3, 4)
	fmt.Printf("MEMO   → sum(3,4) = %d (took %v)\n", v, time.Since(start).Truncate(time.Millisecond))

	// ====================================================
	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	time.Sleep(1200 * time.Millisecond)

	v, _ = sum(3, 4)
	fmt.Println("MEMO   → sum(3,4) after TTL =", v, "(expiry result, target not invoked)")

	v, _ = sum(3, 4)
	fmt.Println("MEMO   → sum(3,4) recomputed =", v)

	// ====================================================
	fmt.Println("\n==================== 4) SINGLE-FLIGHT ====================")

	fetch := memoize.NewContext(
		func(ctx context.Context, id string) (string, error) {
			fmt.Println("TARGET → fetching", id)
			time.Sleep(300 * time.Millisecond)
			return "profile-of-" + id, nil
		},
		func(id string) string { return keys.Join("profile", id) },
		memoize.WithSingleFlight[string](),
		memoize.WithLogger[string](logger),
	)

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := fetch.Call(ctx, "alice")
			fmt.Printf("GOROUTINE-%d → %s\n", id, val)
		}(i)
	}
	wg.Wait()

	// ====================================================
	metrics.Print()

	fmt.Println("\n==================== SHUTDOWN ====================")
	fmt.Println("SYSTEM → done")
}
