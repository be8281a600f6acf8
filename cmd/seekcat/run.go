package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/seekcache"
	seekhttp "github.com/meigma/seekcache/http"
	"github.com/meigma/seekcache/oci"
	"github.com/meigma/seekcache/store"
)

var errChunkMismatch = errors.New("chunk differs from first pass")

type result struct {
	descriptor string
	digest     digest.Digest
	size       int64
	stats      seekcache.Stats
}

// run processes every descriptor, at most cfg.concurrency at a time. Results
// keep the order of descriptors; entries for failed descriptors are zero.
func run(ctx context.Context, cfg config, descriptors []string, logger *slog.Logger) ([]result, error) {
	results := make([]result, len(descriptors))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i, desc := range descriptors {
		g.Go(func() error {
			r, err := cat(ctx, cfg, desc, logger.With(slog.String("descriptor", desc)))
			if err != nil {
				return fmt.Errorf("%s: %w", desc, err)
			}
			results[i] = r
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func sessionOptions(cfg config, logger *slog.Logger) []seekcache.Option {
	opts := []seekcache.Option{
		seekcache.WithLogger(logger),
		seekcache.WithHTTPOptions(seekhttp.WithClient(newHTTPClient(cfg))),
		seekcache.WithOCIOptions(oci.WithPlainHTTP(cfg.plainHTTP), oci.WithDockerConfig()),
	}
	if cfg.memory {
		opts = append(opts, seekcache.WithStore(store.NewMemory()))
	} else {
		opts = append(opts, seekcache.WithStoreDir(cfg.storeDir))
	}
	return opts
}

// cat reads one descriptor cfg.passes times and returns its digest.
func cat(ctx context.Context, cfg config, desc string, logger *slog.Logger) (result, error) {
	s, err := seekcache.Open(ctx, desc, seekcache.ReadOnly, sessionOptions(cfg, logger)...)
	if err != nil {
		return result{}, err
	}

	r, err := readPasses(s, cfg)
	r.descriptor = desc
	r.stats = s.Stats()
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return result{}, err
	}
	return r, nil
}

func readPasses(s *seekcache.Session, cfg config) (result, error) {
	buf := make([]byte, cfg.chunk)
	digester := digest.Canonical.Digester()

	// First pass: sequential, remembering a digest per chunk.
	var (
		chunks []digest.Digest
		size   int64
	)
	for {
		n, err := io.ReadFull(s, buf)
		if n > 0 {
			_, _ = digester.Hash().Write(buf[:n])
			chunks = append(chunks, digest.FromBytes(buf[:n]))
			size += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return result{}, err
		}
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	for pass := 1; pass < cfg.passes; pass++ {
		if cfg.seed != 0 {
			rng := rand.New(rand.NewPCG(cfg.seed, uint64(pass))) //nolint:gosec // reproducible read order
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		if err := verifyPass(s, buf, chunks, order, size); err != nil {
			return result{}, fmt.Errorf("pass %d: %w", pass+1, err)
		}
	}

	return result{digest: digester.Digest(), size: size}, nil
}

func verifyPass(s *seekcache.Session, buf []byte, chunks []digest.Digest, order []int, size int64) error {
	chunkSize := int64(len(buf))
	for _, i := range order {
		off := int64(i) * chunkSize
		n := min(chunkSize, size-off)
		if _, err := s.Seek(off, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(s, buf[:n]); err != nil {
			return fmt.Errorf("read chunk at %d: %w", off, err)
		}
		if got := digest.FromBytes(buf[:n]); got != chunks[i] {
			return fmt.Errorf("%w: offset %d: got %s, want %s", errChunkMismatch, off, got, chunks[i])
		}
	}
	return nil
}
