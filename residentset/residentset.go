// Package residentset implements the fixed-capacity resident-set manager:
// the table of at most MaxPsyc virtual pages a process currently has
// backed by a physical frame, plus the per-entry metadata the replacement
// policies read and mutate.
package residentset

import "github.com/blumenra/vmpaging/defs"

// Slot is one resident-set entry. The owning page directory is
// deliberately not stored here: a Set always belongs to exactly one
// process's address space, so the page directory is implicit in which Set
// the caller is holding, which makes the per-entry `pgdir` field the
// original source carries redundant.
type Slot struct {
	Used bool
	// VA is the user virtual address this slot backs.
	VA uint32
	// AccessHistory is the NFUA/LAPA shift register; MSB is most recent tick.
	AccessHistory uint32
	// CreateOrder is SCFIFO's monotonic insertion stamp.
	CreateOrder uint64
	// AQRank is AQ's queue position.
	AQRank uint64
}

// Set is the fixed MaxPsyc-slot resident-set table for one process.
type Set struct {
	slots       [defs.MaxPsyc]Slot
	createCtr   uint64
	aqCtr       uint64
}

// New returns an empty resident set.
func New() *Set {
	return &Set{}
}

// Len reports how many slots are in use.
func (s *Set) Len() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].Used {
			n++
		}
	}
	return n
}

// Full reports whether the set has no free slot.
func (s *Set) Full() bool {
	return s.Len() == defs.MaxPsyc
}

// IndexOf returns the slot index backing va, or -1 if none.
func (s *Set) IndexOf(va uint32) int {
	for i := range s.slots {
		if s.slots[i].Used && s.slots[i].VA == va {
			return i
		}
	}
	return -1
}

// Insert finds a free slot for va and initialises its metadata.
// initHistory seeds AccessHistory (0 for NFUA, 0xFFFFFFFF for LAPA). It
// returns defs.ErrOOM if the set is already full — callers must evict
// first.
func (s *Set) Insert(va uint32, initHistory uint32) (int, defs.Errno) {
	if s.IndexOf(va) != -1 {
		panic("residentset: insert of already-resident VA")
	}
	for i := range s.slots {
		if !s.slots[i].Used {
			s.createCtr++
			s.aqCtr++
			s.slots[i] = Slot{
				Used:          true,
				VA:            va,
				AccessHistory: initHistory,
				CreateOrder:   s.createCtr,
				AQRank:        s.aqCtr,
			}
			return i, defs.ErrNone
		}
	}
	return -1, defs.ErrOOM
}

// Remove marks the slot backing va free. It is idempotent: removing a VA
// that is not resident is a no-op.
func (s *Set) Remove(va uint32) {
	if i := s.IndexOf(va); i != -1 {
		s.slots[i] = Slot{}
	}
}

// RemoveAt frees the slot at index i directly; used by swap-out once the
// victim index has already been resolved.
func (s *Set) RemoveAt(i int) {
	s.slots[i] = Slot{}
}

// SlotAt returns a pointer to slot i so policies can mutate its metadata
// (SCFIFO's second-chance rewrite of CreateOrder, AQ's rank swaps). i must
// be in-range; callers only ever obtain it from IndexOf/UsedIndices.
func (s *Set) SlotAt(i int) *Slot {
	return &s.slots[i]
}

// UsedIndices returns the indices of all occupied slots, in slot order.
// The aging clock and every policy use it to scan the live entries.
func (s *Set) UsedIndices() []int {
	idx := make([]int, 0, defs.MaxPsyc)
	for i := range s.slots {
		if s.slots[i].Used {
			idx = append(idx, i)
		}
	}
	return idx
}

// NextAQRank reserves and returns the next AQ rank, used by the AQ policy's
// rank-swap bookkeeping if a fresh rank is ever needed beyond Insert's.
func (s *Set) NextAQRank() uint64 {
	s.aqCtr++
	return s.aqCtr
}

// NextCreateOrder reserves and returns the next SCFIFO create-order stamp,
// used by the second-chance forgiveness rewrite.
func (s *Set) NextCreateOrder() uint64 {
	s.createCtr++
	return s.createCtr
}
