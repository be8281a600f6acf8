// Package seekcache provides a transparent, disk-backed read cache for slow
// seekable byte streams.
//
// A [Session] wraps an inner [Stream] (a local file, an HTTP endpoint serving
// range requests, an OCI registry blob) and records every byte it reads from
// it in an anonymous backing store. Later reads of the same region are served
// from the store without contacting the inner stream again, while the bytes
// returned stay identical to reading the source directly.
//
// # Quick Start
//
// Open a remote file through the cache:
//
//	s, err := seekcache.Open(ctx, "cache:https://example.com/movie.mkv", seekcache.ReadOnly)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	header := make([]byte, 4096)
//	if _, err := io.ReadFull(s, header); err != nil {
//	    return err
//	}
//	// Seeking back into fetched bytes never touches the network.
//	if _, err := s.Seek(0, io.SeekStart); err != nil {
//	    return err
//	}
//
// # Seeking
//
// Seeks inside the region already observed are resolved locally. The inner
// stream is only repositioned when a later read misses the cache and the
// inner position differs from the session cursor. Seeks past the observed
// region are recorded locally as well and reconciled on the next read.
//
// [SeekSize] asks for the total size of the stream without moving the
// cursor.
//
// # Backing Stores
//
// By default each session appends cached bytes to an unlinked temporary
// file. Use [WithStoreDir] to choose its directory or [WithStore] to supply
// any [store.Store], such as [store.NewMemory].
//
// A Session is not safe for concurrent use. The cache grows for the lifetime
// of the session and is discarded on Close.
package seekcache
