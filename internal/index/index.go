// Package index tracks which byte ranges of a stream have been cached.
package index

import (
	"errors"
	"fmt"

	"github.com/google/btree"
)

const degree = 32

var (
	// ErrCorrupt is returned when an insert would overlap an existing extent
	// or collide with a different extent at the same logical offset.
	ErrCorrupt = errors.New("index: corrupt")

	// ErrEmptyExtent is returned when inserting an extent with no bytes.
	ErrEmptyExtent = errors.New("index: empty extent")
)

// Extent is one contiguous run of bytes copied from the inner stream.
type Extent struct {
	LogicalOffset  int64 // stream position of the first byte
	PhysicalOffset int64 // position of the first byte in the backing store
	Length         int32
}

// End returns the logical offset one past the last byte of the extent.
func (e Extent) End() int64 {
	return e.LogicalOffset + int64(e.Length)
}

// Contains reports whether off falls inside the extent.
func (e Extent) Contains(off int64) bool {
	return off >= e.LogicalOffset && off < e.End()
}

func (e Extent) String() string {
	return fmt.Sprintf("[%d,%d)@%d", e.LogicalOffset, e.End(), e.PhysicalOffset)
}

func less(a, b Extent) bool {
	return a.LogicalOffset < b.LogicalOffset
}

// Index is an ordered set of non-overlapping extents keyed by logical offset.
//
// Index is not safe for concurrent use.
type Index struct {
	tree *btree.BTreeG[Extent]
}

// New returns an empty index.
func New() *Index {
	return &Index{tree: btree.NewG(degree, less)}
}

// Insert adds e to the index.
//
// Inserting an extent identical to one already present is a no-op.
func (idx *Index) Insert(e Extent) error {
	if e.Length <= 0 {
		return ErrEmptyExtent
	}
	if existing, ok := idx.tree.Get(e); ok {
		if existing == e {
			return nil
		}
		return fmt.Errorf("%w: insert %s collides with %s", ErrCorrupt, e, existing)
	}
	if prev, ok := idx.Floor(e.LogicalOffset); ok && prev.End() > e.LogicalOffset {
		return fmt.Errorf("%w: insert %s overlaps %s", ErrCorrupt, e, prev)
	}
	if next, ok := idx.Next(e.LogicalOffset); ok && next.LogicalOffset < e.End() {
		return fmt.Errorf("%w: insert %s overlaps %s", ErrCorrupt, e, next)
	}
	idx.tree.ReplaceOrInsert(e)
	return nil
}

// Floor returns the extent with the greatest logical offset <= off.
func (idx *Index) Floor(off int64) (Extent, bool) {
	var (
		found Extent
		ok    bool
	)
	idx.tree.DescendLessOrEqual(Extent{LogicalOffset: off}, func(e Extent) bool {
		found, ok = e, true
		return false
	})
	return found, ok
}

// Next returns the extent with the smallest logical offset > off.
func (idx *Index) Next(off int64) (Extent, bool) {
	var (
		found Extent
		ok    bool
	)
	idx.tree.AscendGreaterOrEqual(Extent{LogicalOffset: off}, func(e Extent) bool {
		if e.LogicalOffset == off {
			return true
		}
		found, ok = e, true
		return false
	})
	return found, ok
}

// Len returns the number of extents.
func (idx *Index) Len() int {
	return idx.tree.Len()
}

// Bytes returns the total number of cached bytes.
func (idx *Index) Bytes() int64 {
	var total int64
	idx.tree.Ascend(func(e Extent) bool {
		total += int64(e.Length)
		return true
	})
	return total
}

// Clear drops every extent.
func (idx *Index) Clear() {
	idx.tree.Clear(false)
}
