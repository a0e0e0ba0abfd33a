package cache

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// A mixed workload of concurrent Put/Get/PutWithTTL/Remove on random keys.
// Should pass under `-race` without detector reports, and hits+misses must
// equal the number of Get calls.
func TestRace_Sharded(t *testing.T) {
	c, err := NewSharded[string, []byte](Options[string, []byte]{
		Capacity: 8_192,
		Shards:   32,
		TTL:      50 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(time.Second)

	var gets atomic.Uint64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9: // ~5% — PutWithTTL
					c.PutWithTTL(k, []byte("x"), time.Duration(10+r.Intn(20))*time.Millisecond)
				case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19: // ~10% — Put
					c.Put(k, []byte("x"))
				default: // ~80% — Get
					_, _ = c.Get(k)
					gets.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	st := c.Stats()
	if st.Hits+st.Misses != gets.Load() {
		t.Fatalf("hits+misses=%d, gets=%d", st.Hits+st.Misses, gets.Load())
	}
	if st.Size > c.ShardCount()*((8_192+31)/32) {
		t.Fatalf("size %d exceeds total capacity", st.Size)
	}
}

// Concurrent GetOrLoad calls for the same key trigger the Loader once;
// subsequent calls are cache hits.
func TestSynced_GetOrLoad_Singleflight(t *testing.T) {
	var calls int64

	c, err := NewSynced[string, string](Options[string, string]{
		Capacity: 64,
		TTL:      time.Hour,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	const N = 64
	var g errgroup.Group
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := make(chan struct{})
	for i := 0; i < N; i++ {
		g.Go(func() error {
			<-start
			v, err := c.GetOrLoad(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	// Late arrivals may find the value already cached, never load twice.
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}
	if v, err := c.GetOrLoad(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}

func TestSharded_GetOrLoad(t *testing.T) {
	t.Parallel()

	c, err := NewSharded[int, string](Options[int, string]{
		Capacity: 128,
		Shards:   4,
		TTL:      time.Hour,
		Loader: func(_ context.Context, k int) (string, error) {
			return strconv.Itoa(k), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		i := i
		g.Go(func() error {
			v, err := c.GetOrLoad(context.Background(), i%8)
			if err != nil {
				return err
			}
			if v != strconv.Itoa(i%8) {
				return fmt.Errorf("key %d: got %q", i%8, v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 8 {
		t.Fatalf("want 8 resident entries, got %d", c.Len())
	}
}
