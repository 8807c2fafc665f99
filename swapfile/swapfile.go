// Package swapfile implements the fixed-capacity swap-file manager: the
// table of at most MaxFile virtual pages a process has written out to its
// backing store, and the read/write primitives over it.
package swapfile

import (
	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
)

// slot is one swap-set entry. Its file offset is always index*PGSIZE, so
// it is never stored separately.
type slot struct {
	used bool
	va   uint32
}

// Set is the fixed MaxFile-slot swap-set table for one process, paired
// with the SwapBackend that actually persists page contents.
type Set struct {
	slots   [defs.MaxFile]slot
	backend kernel.SwapBackend
}

// New returns a swap set backed by backend. Create() must already have
// been called on backend.
func New(backend kernel.SwapBackend) *Set {
	return &Set{backend: backend}
}

// Close tears down the backing store at process termination.
func (s *Set) Close() error {
	return s.backend.Destroy()
}

// Len reports how many slots are occupied.
func (s *Set) Len() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].used {
			n++
		}
	}
	return n
}

// IndexOf returns the slot index backing va, or -1 if none.
func (s *Set) IndexOf(va uint32) int {
	for i := range s.slots {
		if s.slots[i].used && s.slots[i].va == va {
			return i
		}
	}
	return -1
}

func (s *Set) freeIndex() int {
	for i := range s.slots {
		if !s.slots[i].used {
			return i
		}
	}
	return -1
}

// WriteOut writes PGSIZE bytes of page content to the slot for va,
// allocating a free slot if va does not already own one. It fails
// fatally, via panic, if no slot is available and va does not already
// own one — the caller is expected to have kept resident+swap counts
// within MaxTotal so this can never happen in practice.
func (s *Set) WriteOut(va uint32, page []byte) defs.Errno {
	if len(page) != defs.PGSIZE {
		panic("swapfile: page must be PGSIZE bytes")
	}
	i := s.IndexOf(va)
	if i == -1 {
		i = s.freeIndex()
		if i == -1 {
			panic("swapfile: write_out with swap set full")
		}
		s.slots[i] = slot{used: true, va: va}
	}
	off := int64(i) * defs.PGSIZE
	if err := s.backend.WriteAt(off, page); err != nil {
		return defs.ErrSwapFull
	}
	return defs.ErrNone
}

// ReadIn finds the slot matching va, reads PGSIZE bytes into dst, and
// marks the slot free.
func (s *Set) ReadIn(va uint32, dst []byte) defs.Errno {
	if len(dst) != defs.PGSIZE {
		panic("swapfile: dst must be PGSIZE bytes")
	}
	i := s.IndexOf(va)
	if i == -1 {
		panic("swapfile: read_in of VA with no swap slot")
	}
	off := int64(i) * defs.PGSIZE
	if err := s.backend.ReadAt(off, dst); err != nil {
		return defs.ErrFault
	}
	s.slots[i] = slot{}
	return defs.ErrNone
}

// CopyOccupancyFrom overwrites s's slot-occupancy table with src's. It
// does not touch either backend's bytes: callers that need the backing
// content copied too (e.g. forking a process) must do that separately,
// before or after calling this.
func (s *Set) CopyOccupancyFrom(src *Set) {
	s.slots = src.slots
}

// Drop removes va from the swap set without reading its contents, used by
// shrink when a paged-out page falls outside the new size.
func (s *Set) Drop(va uint32) {
	if i := s.IndexOf(va); i != -1 {
		s.slots[i] = slot{}
	}
}
