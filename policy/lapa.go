package policy

import (
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/residentset"
)

// LAPA is Least-Accessed-with-Popcount-Aging: the same shift-register
// aging as NFUA, but the victim is chosen by the smallest population count
// of AccessHistory rather than its raw numeric value, and fresh slots seed
// the register all-ones so an unreferenced new page isn't immediately the
// best (lowest-popcount) candidate.
type LAPA struct{}

func (LAPA) Name() string        { return "lapa" }
func (LAPA) InitHistory() uint32 { return 0xFFFFFFFF }
func (LAPA) OnInsert(*residentset.Set, int) {}

// OnTick reuses NFUA's aging step; LAPA and NFUA differ only in victim
// selection, not in how history is accumulated.
func (LAPA) OnTick(set *residentset.Set, walker kernel.PageTableWalker) {
	ageAccessHistories(set, walker)
}

// SelectVictim returns the slot with the smallest popcount(AccessHistory),
// ties broken toward the lower slot index.
func (LAPA) SelectVictim(set *residentset.Set, walker kernel.PageTableWalker) int {
	return lowestIndex(set, func(a, b *residentset.Slot) bool {
		return popcount32(a.AccessHistory) < popcount32(b.AccessHistory)
	})
}
