package policy

import (
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/residentset"
)

// AQ is the Advancing Queue policy: the victim is the slot with the
// smallest aq_rank, and each aging-clock tick walks the resident set in
// rank order promoting accessed pages past unaccessed neighbours that
// currently block them.
//
// Rank assignment is strictly increasing with creation order, matching
// every other policy's "older is more vulnerable" convention (see
// DESIGN.md for the rationale — a decrementing variant was considered and
// rejected because it would make freshly-created pages the first evicted).
// A touched page must climb toward higher, safer ranks over successive
// ticks, so a tick swaps an accessed slot past the unaccessed neighbour
// ranked just above it, never the reverse.
type AQ struct{}

func (AQ) Name() string        { return "aq" }
func (AQ) InitHistory() uint32 { return 0 }

// OnInsert does nothing extra: residentset.Set.Insert already assigns a
// fresh, strictly-increasing AQRank to every new slot.
func (AQ) OnInsert(*residentset.Set, int) {}

// OnTick walks the resident set in ascending rank order and, for each
// adjacent pair where the lower-ranked slot is accessed and the
// higher-ranked one is not, swaps their ranks — bubbling recently-touched
// pages one step toward safety per tick. Every resident PTE's accessed bit
// is sampled once, up front, and cleared after the scan: a slot sits in
// two adjacent pairs, and clearing mid-scan would make its second
// observation see its own just-cleared bit instead of the tick's actual
// sample.
func (AQ) OnTick(set *residentset.Set, walker kernel.PageTableWalker) {
	indices := rankOrder(set)
	accessed := make([]bool, len(indices))
	for i, idx := range indices {
		accessed[i] = walkResident(set, walker, idx).Accessed()
	}
	for i := 0; i+1 < len(indices); i++ {
		if accessed[i] && !accessed[i+1] {
			prior := set.SlotAt(indices[i])
			after := set.SlotAt(indices[i+1])
			prior.AQRank, after.AQRank = after.AQRank, prior.AQRank
		}
	}
	for i, idx := range indices {
		if accessed[i] {
			walkResident(set, walker, idx).ClearAccessed()
		}
	}
}

// SelectVictim returns the slot with the smallest aq_rank, ties broken
// toward the lower slot index.
func (AQ) SelectVictim(set *residentset.Set, walker kernel.PageTableWalker) int {
	return lowestIndex(set, func(a, b *residentset.Slot) bool {
		return a.AQRank < b.AQRank
	})
}

// rankOrder returns the used slot indices sorted by ascending AQRank.
func rankOrder(set *residentset.Set) []int {
	idx := set.UsedIndices()
	// insertion sort: MaxPsyc is tiny (16) and this runs once per tick.
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && set.SlotAt(idx[j-1]).AQRank > set.SlotAt(idx[j]).AQRank; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
	return idx
}
