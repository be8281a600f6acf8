package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/seekcache/internal/testutil"
)

func writeSource(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testConfig(t *testing.T) config {
	t.Helper()
	return config{
		storeDir:    t.TempDir(),
		passes:      3,
		chunk:       4096,
		concurrency: 2,
	}
}

func TestRunSecondPassIsCached(t *testing.T) {
	t.Parallel()

	data := testutil.RandomBytes(50_000, 1)
	path := writeSource(t, data)

	for _, tc := range []struct {
		name   string
		memory bool
		seed   uint64
	}{
		{"sequential", false, 0},
		{"shuffled", false, 99},
		{"memory", true, 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.memory = tc.memory
			cfg.seed = tc.seed
			results, err := run(context.Background(), cfg, []string{path}, slog.New(slog.DiscardHandler))
			require.NoError(t, err)
			require.Len(t, results, 1)

			r := results[0]
			assert.Equal(t, digest.FromBytes(data), r.digest)
			assert.Equal(t, int64(len(data)), r.size)
			// 13 chunks per pass; only the first pass touches the file.
			assert.Equal(t, int64(13), r.stats.Misses)
			assert.Equal(t, int64(26), r.stats.Hits)
			assert.Equal(t, int64(2*len(data)), r.stats.BytesHit)
			assert.True(t, r.stats.EndConfirmed)
		})
	}
}

func TestRunMultipleDescriptors(t *testing.T) {
	t.Parallel()

	a := testutil.RandomBytes(10_000, 2)
	b := testutil.RandomBytes(3, 3)
	descs := []string{writeSource(t, a), "cache:" + writeSource(t, b), writeSource(t, nil)}

	results, err := run(context.Background(), testConfig(t), descs, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, digest.FromBytes(a), results[0].digest)
	assert.Equal(t, digest.FromBytes(b), results[1].digest)
	assert.Equal(t, digest.FromBytes(nil), results[2].digest)
	assert.Equal(t, descs[1], results[1].descriptor)
}

func TestRunMissingSource(t *testing.T) {
	t.Parallel()

	_, err := run(context.Background(), testConfig(t),
		[]string{filepath.Join(t.TempDir(), "missing")}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}

func TestRunHTTPThrottled(t *testing.T) {
	t.Parallel()

	data := testutil.RandomBytes(20_000, 4)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.seed = 5
	cfg.httpLatency = time.Millisecond
	cfg.httpBPS = 10 << 20
	results, err := run(context.Background(), cfg, []string{srv.URL + "/blob"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(data), results[0].digest)
	// Every byte is fetched once; the two later passes never reach the server.
	assert.Equal(t, int64(len(data)), results[0].stats.BytesMissed)
	assert.Equal(t, int64(2*len(data)), results[0].stats.BytesHit)
}

func TestRunMain(t *testing.T) {
	t.Parallel()

	data := testutil.RandomBytes(1000, 6)
	path := writeSource(t, data)

	var stdout, stderr bytes.Buffer
	code := runMain([]string{"--store-dir", t.TempDir(), "--passes", "2", path}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), digest.FromBytes(data).String())
	assert.Contains(t, stdout.String(), "size=1000 hits=1 misses=1 hit_ratio=0.50")
}

func TestRunMainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no descriptors", nil, 2},
		{"zero passes", []string{"--passes", "0", "x"}, 2},
		{"bad bps", []string{"--http-bps", "fast", "x"}, 2},
		{"unknown flag", []string{"--nope", "x"}, 2},
		{"help", []string{"--help"}, 0},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.code, runMain(tt.args, io.Discard, io.Discard))
		})
	}
}

func TestParseBytesPerSecond(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"64k", 64 << 10, false},
		{"64KB", 64 << 10, false},
		{"10MBps", 10 << 20, false},
		{"2m/s", 2 << 20, false},
		{" 1g ", 1 << 30, false},
		{"", 0, true},
		{"k", 0, true},
		{"-5", 0, true},
		{"fast", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseBytesPerSecond(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
