// Command bench runs a synthetic Zipf workload against the cache and exposes
// optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/lrucache/cache"
	pmet "github.com/IvanBrykalov/lrucache/metrics/prom"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := defaultConfig()

	// ---- Flags ----
	configPath := flag.String("config", "", "YAML workload file; explicit flags override it")
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "cache flavour: sharded | synced")
	flag.IntVar(&cfg.Capacity, "cap", cfg.Capacity, "cache capacity (entries)")
	flag.IntVar(&cfg.Shards, "shards", cfg.Shards, "number of shards (0=auto, sharded mode only)")
	flag.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "entry time-to-live")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of worker goroutines")
	flag.DurationVar(&cfg.Duration, "duration", cfg.Duration, "benchmark duration")
	flag.IntVar(&cfg.ReadPct, "reads", cfg.ReadPct, "read percentage [0..100]")
	flag.IntVar(&cfg.Keys, "keys", cfg.Keys, "keyspace size")
	flag.Float64Var(&cfg.ZipfS, "zipf_s", cfg.ZipfS, "Zipf s > 1 (skew)")
	flag.Float64Var(&cfg.ZipfV, "zipf_v", cfg.ZipfV, "Zipf v")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.IntVar(&cfg.Preload, "preload", cfg.Preload, "preload entries (-1 = cap/2, 0 = none)")
	flag.StringVar(&cfg.PprofAddr, "pprof", cfg.PprofAddr, "serve pprof at addr (e.g. :6060); empty = disabled")
	flag.StringVar(&cfg.MetricsAddr, "http", cfg.MetricsAddr, "serve Prometheus metrics at addr; empty = disabled")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace | debug | info | warn | error")
	flag.Parse()

	if *configPath != "" {
		explicit := map[string]string{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })
		if err := loadFile(*configPath, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, "bench:", err)
			os.Exit(2)
		}
		for name, v := range explicit {
			_ = flag.Set(name, v)
		}
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "bench",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})
	if err := cfg.validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger hclog.Logger) error {
	// ---- pprof + Prometheus (both on DefaultServeMux) ----
	metrics := pmet.New(nil, "lrucache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	for _, addr := range cfg.listenAddrs() {
		addr := addr
		go func() {
			logger.Info("http: serving", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("http: server stopped", "addr", addr, "error", err)
			}
		}()
	}

	// ---- Build cache ----
	opt := cache.Options[string, string]{
		Capacity: cfg.Capacity,
		Shards:   cfg.Shards,
		TTL:      cfg.TTL,
		Metrics:  metrics,
		Logger:   logger.Named("cache"),
	}
	var (
		c   cache.Cache[string, string]
		err error
	)
	switch cfg.Mode {
	case "synced":
		c, err = cache.NewSynced[string, string](opt)
	default:
		c, err = cache.NewSharded[string, string](opt)
	}
	if err != nil {
		return fmt.Errorf("build cache: %w", err)
	}

	for i := 0; i < cfg.Preload; i++ {
		c.Put("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}
	logger.Info("starting",
		"mode", cfg.Mode, "cap", cfg.Capacity, "shards", cfg.Shards, "ttl", cfg.TTL,
		"workers", cfg.Workers, "keys", cfg.Keys, "duration", cfg.Duration, "seed", cfg.Seed)

	// ---- Load generation ----
	var reads, writes atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			r := rand.New(rand.NewSource(cfg.Seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(cfg.Keys-1))
			key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

			for ctx.Err() == nil {
				if int(r.Int31n(100)) < cfg.ReadPct {
					reads.Add(1)
					_, _ = c.Get(key())
				} else {
					writes.Add(1)
					c.Put(key(), "v"+strconv.Itoa(r.Int()))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	// ---- Report ----
	st := c.Stats()
	ops := reads.Load() + writes.Load()
	hitRate := 0.0
	if n := st.Hits + st.Misses; n > 0 {
		hitRate = float64(st.Hits) / float64(n) * 100
	}
	logger.Info("done",
		"elapsed", elapsed,
		"ops", ops,
		"ops_per_sec", fmt.Sprintf("%.0f", float64(ops)/elapsed.Seconds()),
		"reads", reads.Load(),
		"writes", writes.Load(),
		"hits", st.Hits,
		"misses", st.Misses,
		"hit_rate", fmt.Sprintf("%.2f%%", hitRate),
		"size", st.Size)
	return nil
}
