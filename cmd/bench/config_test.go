package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	p := writeFile(t, `
mode: synced
capacity: 512
ttl: 250ms
duration: 2s
reads: 95
zipf_s: 1.3
`)
	require.NoError(t, loadFile(p, &cfg))
	require.Equal(t, "synced", cfg.Mode)
	require.Equal(t, 512, cfg.Capacity)
	require.Equal(t, 250*time.Millisecond, cfg.TTL)
	require.Equal(t, 2*time.Second, cfg.Duration)
	require.Equal(t, 95, cfg.ReadPct)
	require.Equal(t, 1.3, cfg.ZipfS)
	require.Equal(t, 1_000_000, cfg.Keys, "unset fields keep defaults")

	require.NoError(t, cfg.validate())
	require.Equal(t, 256, cfg.Preload, "unset preload is half the capacity")
}

func TestValidate_Preload(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct{ in, want int }{
		"auto":     {-1, 500},
		"none":     {0, 0},
		"explicit": {42, 42},
	} {
		cfg := defaultConfig()
		cfg.Capacity = 1000
		cfg.Preload = tc.in
		require.NoError(t, cfg.validate(), name)
		require.Equal(t, tc.want, cfg.Preload, name)
	}

	cfg := defaultConfig()
	p := writeFile(t, "capacity: 64\npreload: 0\n")
	require.NoError(t, loadFile(p, &cfg))
	require.NoError(t, cfg.validate())
	require.Zero(t, cfg.Preload, "preload: 0 in the file disables preloading")
}

func TestListenAddrs(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		pprof, metrics string
		want           []string
	}{
		"both":     {":6060", ":8080", []string{":6060", ":8080"}},
		"same":     {":8080", ":8080", []string{":8080"}},
		"metrics":  {"", ":8080", []string{":8080"}},
		"disabled": {"", "", nil},
	} {
		cfg := config{PprofAddr: tc.pprof, MetricsAddr: tc.metrics}
		require.Equal(t, tc.want, cfg.listenAddrs(), name)
	}
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.Error(t, loadFile(writeFile(t, "capacityy: 10\n"), &cfg))
	require.Error(t, loadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	for name, mut := range map[string]func(*config){
		"mode":  func(c *config) { c.Mode = "lfu" },
		"reads": func(c *config) { c.ReadPct = 101 },
		"keys":  func(c *config) { c.Keys = 0 },
		"zipf":  func(c *config) { c.ZipfS = 1 },
	} {
		cfg := defaultConfig()
		mut(&cfg)
		require.Error(t, cfg.validate(), name)
	}
}
