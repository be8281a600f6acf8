package seekcache

// Stats is a snapshot of a session's cache counters.
type Stats struct {
	Hits         int64 // reads served from the backing store
	Misses       int64 // reads that went to the inner stream
	BytesHit     int64
	BytesMissed  int64
	Extents      int   // cached runs in the index
	KnownEnd     int64 // highest offset known to exist
	EndConfirmed bool  // KnownEnd is the true end of the stream
}

// HitRatio returns the fraction of reads served from the cache, or 0 if
// nothing was read.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the session's counters. It remains valid after Close.
func (s *Session) Stats() Stats {
	return Stats{
		Hits:         s.hits,
		Misses:       s.misses,
		BytesHit:     s.bytesHit,
		BytesMissed:  s.bytesMissed,
		Extents:      s.index.Len(),
		KnownEnd:     s.knownEnd,
		EndConfirmed: s.endConfirmed,
	}
}
