package policy

import (
	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/residentset"
)

// SCFIFO is second-chance FIFO: the victim is the slot with the smallest
// CreateOrder, but a candidate whose PTE accessed bit is set is forgiven —
// its accessed bit is cleared and its CreateOrder is bumped to the current
// maximum, as if it had just been created — and the scan restarts.
type SCFIFO struct{}

func (SCFIFO) Name() string        { return "scfifo" }
func (SCFIFO) InitHistory() uint32 { return 0 }
func (SCFIFO) OnInsert(*residentset.Set, int) {}

// OnTick does nothing: SCFIFO only consults PTE.Accessed at victim
// selection time, not on every clock tick.
func (SCFIFO) OnTick(*residentset.Set, kernel.PageTableWalker) {}

// SelectVictim finds the smallest-CreateOrder slot, granting forgiveness
// to any accessed candidate and rescanning. It is guaranteed to terminate
// within MaxPsyc forgivenesses because each forgiven slot's CreateOrder
// strictly increases.
func (SCFIFO) SelectVictim(set *residentset.Set, walker kernel.PageTableWalker) int {
	for forgiven := 0; forgiven <= defs.MaxPsyc; forgiven++ {
		victim := lowestIndex(set, func(a, b *residentset.Slot) bool {
			return a.CreateOrder < b.CreateOrder
		})
		pte := walkResident(set, walker, victim)
		if !pte.Accessed() {
			return victim
		}
		pte.ClearAccessed()
		set.SlotAt(victim).CreateOrder = set.NextCreateOrder()
	}
	panic("policy: SCFIFO failed to converge on a victim")
}
