// Command seekcat reads streams through a seekcache session and reports
// their digests and cache statistics.
//
// The first pass reads each stream front to back. Every later pass reads it
// again, optionally in shuffled chunk order, and verifies each chunk against
// the first pass, so later passes should be served entirely from the cache.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
)

type config struct {
	storeDir    string
	memory      bool
	passes      int
	chunk       int
	seed        uint64
	plainHTTP   bool
	concurrency int
	verbose     bool
	httpLatency time.Duration
	httpBPS     int64
}

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

func runMain(args []string, stdout, stderr io.Writer) int {
	cfg, descriptors, err := parseFlags(args, stderr)
	if err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, "seekcat:", err)
		return 2
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := run(ctx, cfg, descriptors, logger)
	for _, r := range results {
		if r.descriptor == "" {
			continue
		}
		fmt.Fprintf(stdout, "%s  %s size=%d hits=%d misses=%d hit_ratio=%.2f\n",
			r.digest, r.descriptor, r.size, r.stats.Hits, r.stats.Misses, r.stats.HitRatio())
	}
	if err != nil {
		fmt.Fprintln(stderr, "seekcat:", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (config, []string, error) {
	var (
		cfg     config
		httpBPS string
	)
	fs := pflag.NewFlagSet("seekcat", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: seekcat [flags] DESCRIPTOR...")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.storeDir, "store-dir", "", "directory for anonymous backing files (default os.TempDir)")
	fs.BoolVar(&cfg.memory, "memory", false, "keep cached bytes in memory instead of a temp file")
	fs.IntVar(&cfg.passes, "passes", 2, "number of full read passes over each stream")
	fs.IntVar(&cfg.chunk, "chunk", 32<<10, "read buffer size in bytes")
	fs.Uint64Var(&cfg.seed, "random-seed", 0, "when non-zero, passes after the first read chunks in shuffled order")
	fs.BoolVar(&cfg.plainHTTP, "plain-http", false, "use plain HTTP for oci:// registries")
	fs.IntVarP(&cfg.concurrency, "concurrency", "j", 4, "sessions opened in parallel")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "debug logging")
	fs.DurationVar(&cfg.httpLatency, "http-latency", 0, "added latency per HTTP request, to emulate slow sources")
	fs.StringVar(&httpBPS, "http-bps", "", "bytes/sec throttle for HTTP responses (e.g. 10MBps)")

	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}
	if httpBPS != "" {
		bps, err := parseBytesPerSecond(httpBPS)
		if err != nil {
			return config{}, nil, err
		}
		cfg.httpBPS = bps
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return config{}, nil, fmt.Errorf("no descriptors given")
	}
	if cfg.passes < 1 {
		return config{}, nil, fmt.Errorf("passes must be >= 1, got %d", cfg.passes)
	}
	if cfg.chunk < 1 {
		return config{}, nil, fmt.Errorf("chunk must be >= 1, got %d", cfg.chunk)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	return cfg, fs.Args(), nil
}
