// Package policy implements the four pluggable page-replacement policies
// behind a single interface, selected by passing a Policy value in rather
// than a build-time macro, the same way biscuit already abstracts frame
// allocation behind mem.Page_i (mem/mem.go) rather than compiling a
// different allocator per build.
package policy

import (
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/pgtable"
	"github.com/blumenra/vmpaging/residentset"
)

// Policy is the capability every replacement strategy implements.
type Policy interface {
	// Name identifies the policy, e.g. for metrics labels.
	Name() string
	// InitHistory returns the AccessHistory a freshly-inserted slot should
	// start with (0 for NFUA, 0xFFFFFFFF for LAPA).
	InitHistory() uint32
	// OnInsert is called right after residentset.Set.Insert succeeds, in
	// case a policy needs to do more than seed AccessHistory (AQ does not;
	// Insert already assigns a fresh AQRank).
	OnInsert(set *residentset.Set, idx int)
	// OnTick runs once per aging-clock tick over the process's resident
	// set.
	OnTick(set *residentset.Set, walker kernel.PageTableWalker)
	// SelectVictim returns the index of the slot to evict. It must never
	// be called on an empty set.
	SelectVictim(set *residentset.Set, walker kernel.PageTableWalker) int
}

// None disables paging entirely: its SelectVictim always panics, because
// with no policy the grow/fault paths must never reach the point of
// needing a victim.
type None struct{}

func (None) Name() string                                    { return "none" }
func (None) InitHistory() uint32                              { return 0 }
func (None) OnInsert(*residentset.Set, int)                   {}
func (None) OnTick(*residentset.Set, kernel.PageTableWalker)  {}
func (None) SelectVictim(*residentset.Set, kernel.PageTableWalker) int {
	panic("policy: SelectVictim called under the None policy")
}

// lowestIndex scans the used slots and returns the one for which less
// reports true against the current best, breaking ties toward the lower
// slot index by only ever replacing best on a strict improvement.
func lowestIndex(set *residentset.Set, less func(a, b *residentset.Slot) bool) int {
	used := set.UsedIndices()
	if len(used) == 0 {
		panic("policy: SelectVictim called on an empty resident set")
	}
	best := used[0]
	for _, i := range used[1:] {
		if less(set.SlotAt(i), set.SlotAt(best)) {
			best = i
		}
	}
	return best
}

func popcount32(v uint32) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// walkResident resolves the PTE backing a resident slot. It panics if the
// PTE is missing, since every resident slot must have a present PTE.
func walkResident(set *residentset.Set, walker kernel.PageTableWalker, idx int) *pgtable.PTE {
	slot := set.SlotAt(idx)
	pte, ok := walker.Walk(slot.VA, false)
	if !ok {
		panic("policy: missing PTE for resident slot")
	}
	return pte
}
