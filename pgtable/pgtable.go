// Package pgtable centralises the PTE flag transitions for this paging
// subsystem. It is the only place user PTE bits change state, which is
// what lets the rest of the subsystem reason about the invariant "exactly
// one of {present, paged-out, neither} holds per user PTE" without
// re-deriving it at every call site.
package pgtable

import "github.com/blumenra/vmpaging/defs"

// Frame identifies a physical frame by number. The allocator that hands
// these out lives in package kernel; this package only ever stores and
// clears the number, never interprets it.
type Frame uint64

// PTE is a single page table entry. It deliberately has no knowledge of
// its owning page directory or virtual address — those are the caller's
// responsibility (mirrors walkpgdir returning a bare pte_t*).
type PTE struct {
	Flags defs.PTEFlags
	Frame Frame
}

// Present reports whether the entry is frame-backed.
func (p *PTE) Present() bool { return p.Flags&defs.PteP != 0 }

// PagedOut reports whether the entry is backed by a swap slot.
func (p *PTE) PagedOut() bool { return p.Flags&defs.PtePG != 0 }

// Accessed reports the hardware-maintained accessed bit.
func (p *PTE) Accessed() bool { return p.Flags&defs.PteA != 0 }

// ClearAccessed clears the accessed bit. Only the aging clock and the
// SCFIFO second-chance scan are supposed to call this.
func (p *PTE) ClearAccessed() { p.Flags &^= defs.PteA }

// TLBFlusher invalidates the translation cache for the address space a PTE
// belongs to. Install, Evict and Reinstate each call it once. Clear takes
// no flusher and does not invalidate the translation cache.
type TLBFlusher interface {
	InvalidateTLB()
}

// Install performs the absent -> resident transition: the PTE must have
// had neither Present nor PagedOut set.
func Install(pte *PTE, frame Frame, flusher TLBFlusher) {
	if pte.Flags&(defs.PteP|defs.PtePG) != 0 {
		panic("pgtable: install over a mapped PTE")
	}
	pte.Flags = defs.PteP | defs.PteW | defs.PteU
	pte.Frame = frame
	flusher.InvalidateTLB()
}

// Evict performs the resident -> swapped transition. The PTE must be
// present; its frame bits are cleared as part of clearing the physical
// address out of the PTE.
func Evict(pte *PTE, flusher TLBFlusher) {
	if !pte.Present() {
		panic("pgtable: evict of a non-resident PTE")
	}
	pte.Flags = pte.Flags&^(defs.PteP) | defs.PtePG
	pte.Frame = 0
	flusher.InvalidateTLB()
}

// Reinstate performs the swapped -> resident transition. The PTE must be
// paged-out and not present.
func Reinstate(pte *PTE, frame Frame, flusher TLBFlusher) {
	if pte.Present() {
		panic("pgtable: reinstate over a present PTE")
	}
	if !pte.PagedOut() {
		panic("pgtable: reinstate of a PTE that was never paged out")
	}
	pte.Flags = (pte.Flags &^ defs.PtePG) | defs.PteP | defs.PteW | defs.PteU
	pte.Frame = frame
	flusher.InvalidateTLB()
}

// Clear removes both Present and PagedOut, returning the PTE to "neither"
// (never faulted in). Used by shrink and free_all.
func Clear(pte *PTE) {
	pte.Flags = 0
	pte.Frame = 0
}
