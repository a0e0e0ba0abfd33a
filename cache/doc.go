// Package cache layers time-to-live expiry and hit/miss accounting over the
// fixed-capacity LRU store from package lru.
//
// Design
//
//   - Storage: TTLCache owns one lru.Store whose values are (deadline, value)
//     pairs. Deadlines are absolute UnixNano taken from Options.Clock at Put.
//
//   - Expiry is lazy. Get compares the deadline with the clock; an expired
//     entry is deleted and reported as ErrNotFound, exactly like an absent
//     one. There is no background sweep, so expired entries keep occupying
//     capacity until they are read or pushed out by newer keys.
//
//   - Counters: every Get is either a hit or a miss. Clean resets both
//     together with the store.
//
//   - Concurrency: TTLCache has no locking. Synced puts one mutex around it;
//     Sharded spreads keys over a power-of-two number of Synced shards.
//
//   - GetOrLoad: on Synced and Sharded, concurrent loads of one key are
//     coalesced (singleflight). If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom exports them to Prometheus.
//
//   - Callbacks: Options.OnEvict(k, v, reason) runs for every capacity or
//     TTL eviction (reason is EvictCapacity or EvictTTL).
//
// Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    TTL:      time.Minute,
//	})
//	if err != nil {
//	    return err
//	}
//	c.Put("a", []byte("1"))
//	if v, err := c.Get("a"); err == nil {
//	    _ = v
//	}
//	fmt.Printf("%+v\n", c.Stats()) // {Hits:1 Misses:0 Size:1}
//
// Shared between goroutines
//
//	c, err := cache.NewSharded[string, string](cache.Options[string, string]{
//	    Capacity: 50_000,
//	    TTL:      30 * time.Second,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return fetch(ctx, k)
//	    },
//	})
//	v, err := c.GetOrLoad(ctx, "key")
//
// Exporting metrics
//
//	m := prom.New(nil, "lrucache", "demo", nil) // implements Metrics
//	c, err := cache.NewSynced[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    Metrics:  m,
//	})
package cache
