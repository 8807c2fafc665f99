package policy

import (
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/residentset"
)

// NFUA is Not-Frequently-Used-with-Aging: the victim is the slot whose
// AccessHistory, read as an unsigned 32-bit integer, is smallest — older
// references decay exponentially because the MSB holds the most recent
// tick's sample.
type NFUA struct{}

func (NFUA) Name() string        { return "nfua" }
func (NFUA) InitHistory() uint32 { return 0 }
func (NFUA) OnInsert(*residentset.Set, int) {}

// OnTick shifts every resident slot's AccessHistory right by one and
// samples the current hardware accessed bit into the MSB, clearing it
// afterward.
func (NFUA) OnTick(set *residentset.Set, walker kernel.PageTableWalker) {
	ageAccessHistories(set, walker)
}

// SelectVictim returns the slot with the smallest AccessHistory, ties
// broken toward the lower slot index.
func (NFUA) SelectVictim(set *residentset.Set, walker kernel.PageTableWalker) int {
	return lowestIndex(set, func(a, b *residentset.Slot) bool {
		return a.AccessHistory < b.AccessHistory
	})
}

// ageAccessHistories performs the shared NFUA/LAPA aging-clock step: shift
// right, sample PTE.Accessed into the MSB, clear PTE.Accessed.
func ageAccessHistories(set *residentset.Set, walker kernel.PageTableWalker) {
	for _, i := range set.UsedIndices() {
		slot := set.SlotAt(i)
		pte := walkResident(set, walker, i)
		slot.AccessHistory >>= 1
		if pte.Accessed() {
			slot.AccessHistory |= 0x80000000
			pte.ClearAccessed()
		}
	}
}
