package main

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// config describes one benchmark run. It can be loaded from a YAML file;
// flags given explicitly on the command line take precedence.
type config struct {
	Mode     string        `yaml:"mode"` // sharded | synced
	Capacity int           `yaml:"capacity"`
	Shards   int           `yaml:"shards"`
	TTL      time.Duration `yaml:"ttl"`

	Workers  int           `yaml:"workers"`
	Duration time.Duration `yaml:"duration"`
	ReadPct  int           `yaml:"reads"`

	Keys    int     `yaml:"keys"`
	ZipfS   float64 `yaml:"zipf_s"`
	ZipfV   float64 `yaml:"zipf_v"`
	Seed    int64   `yaml:"seed"`
	Preload int     `yaml:"preload"` // -1 = capacity/2, 0 = none

	MetricsAddr string `yaml:"metrics_addr"`
	PprofAddr   string `yaml:"pprof_addr"`
	LogLevel    string `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		Mode:        "sharded",
		Capacity:    100_000,
		TTL:         time.Minute,
		Workers:     2 * runtime.GOMAXPROCS(0),
		Duration:    10 * time.Second,
		ReadPct:     80,
		Keys:        1_000_000,
		ZipfS:       1.1,
		ZipfV:       1.0,
		Seed:        time.Now().UnixNano(),
		Preload:     -1,
		MetricsAddr: ":8080",
		LogLevel:    "info",
	}
}

// loadFile decodes a YAML workload file over cfg. Unknown keys are rejected.
func loadFile(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// validate checks ranges and fills derived defaults.
func (c *config) validate() error {
	switch c.Mode {
	case "sharded", "synced":
	default:
		return fmt.Errorf("unknown mode %q (use sharded or synced)", c.Mode)
	}
	if c.ReadPct < 0 || c.ReadPct > 100 {
		return fmt.Errorf("reads must be in [0..100], got %d", c.ReadPct)
	}
	if c.Keys < 1 {
		return fmt.Errorf("keys must be >= 1, got %d", c.Keys)
	}
	if c.ZipfS <= 1 || c.ZipfV < 1 {
		return fmt.Errorf("zipf needs s > 1 and v >= 1, got s=%v v=%v", c.ZipfS, c.ZipfV)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Preload < 0 {
		c.Preload = c.Capacity / 2
	}
	return nil
}

// listenAddrs returns the distinct non-empty HTTP addresses to serve, in
// flag order. pprof and metrics share DefaultServeMux, so one listener per
// address serves both.
func (c *config) listenAddrs() []string {
	var out []string
	for _, addr := range []string{c.PprofAddr, c.MetricsAddr} {
		if addr == "" || slices.Contains(out, addr) {
			continue
		}
		out = append(out, addr)
	}
	return out
}
