package seekcache

import (
	"io"
	"math/rand/v2"
	"testing"

	"github.com/meigma/seekcache/internal/testutil"
	"github.com/meigma/seekcache/store"
)

var benchSinkInt int

func BenchmarkSessionReplay(b *testing.B) {
	cases := []struct {
		name   string
		size   int
		chunk  int
		random bool
		temp   bool
	}{
		{name: "size=4m/chunk=4k/seq/memory", size: 4 << 20, chunk: 4 << 10},
		{name: "size=4m/chunk=4k/random/memory", size: 4 << 20, chunk: 4 << 10, random: true},
		{name: "size=4m/chunk=64k/seq/tempfile", size: 4 << 20, chunk: 64 << 10, temp: true},
		{name: "size=4m/chunk=4k/random/tempfile", size: 4 << 20, chunk: 4 << 10, random: true, temp: true},
	}

	for _, bc := range cases {
		b.Run(bc.name, func(b *testing.B) {
			data := testutil.RandomBytes(bc.size, 1)
			var st store.Store = store.NewMemory()
			if bc.temp {
				tmp, err := store.NewTempFile(b.TempDir())
				if err != nil {
					b.Fatal(err)
				}
				st = tmp
			}
			s := New(testutil.NewMockStream(data), st)
			b.Cleanup(func() { _ = s.Close() })

			// Warm the cache with one sequential pass.
			buf := make([]byte, bc.chunk)
			if _, err := io.CopyBuffer(io.Discard, struct{ io.Reader }{s}, buf); err != nil {
				b.Fatal(err)
			}

			chunks := bc.size / bc.chunk
			rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // benchmark access pattern
			b.SetBytes(int64(bc.chunk))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx := i % chunks
				if bc.random {
					idx = rng.IntN(chunks)
				}
				if _, err := s.Seek(int64(idx*bc.chunk), io.SeekStart); err != nil {
					b.Fatal(err)
				}
				n, err := io.ReadFull(s, buf)
				if err != nil {
					b.Fatal(err)
				}
				benchSinkInt = n
			}
		})
	}
}

func BenchmarkSessionColdRead(b *testing.B) {
	data := testutil.RandomBytes(1<<20, 2)
	buf := make([]byte, 32<<10)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := New(testutil.NewMockStream(data), store.NewMemory())
		n, err := io.CopyBuffer(io.Discard, struct{ io.Reader }{s}, buf)
		if err != nil {
			b.Fatal(err)
		}
		benchSinkInt = int(n)
		_ = s.Close()
	}
}
