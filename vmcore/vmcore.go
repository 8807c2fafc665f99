// Package vmcore ties the page table, resident set, swap set and
// replacement policy together into one process's paged address space. It
// is the layer that drives the PTE state machine in pgtable and enforces
// the resident/swap capacity invariants; everything below it is a plain
// data structure with no notion of "this process" or "page fault".
package vmcore

import (
	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/pgtable"
	"github.com/blumenra/vmpaging/policy"
	"github.com/blumenra/vmpaging/residentset"
	"github.com/blumenra/vmpaging/swapfile"
	"github.com/blumenra/vmpaging/util"
)

// AddressSpace is one process's page directory plus the paging-subsystem
// bookkeeping layered over it. The zero value is not usable; build one
// with New.
type AddressSpace struct {
	pgdir    kernel.PageTableWalker
	frames   kernel.FrameAllocator
	swapBE   kernel.SwapBackend
	swap     *swapfile.Set
	resident *residentset.Set
	pol      policy.Policy
	proc     kernel.ProcessInfo

	sz uint32

	pagedOutCount  uint64
	pageFaultCount uint64
}

// New returns an address space of size zero for proc, using pgdir/frames
// for mapping and frame allocation, swapBE as the already-Create()d swap
// backend, and pol as the active replacement policy (policy.None disables
// paging bookkeeping entirely).
func New(pgdir kernel.PageTableWalker, frames kernel.FrameAllocator, swapBE kernel.SwapBackend, pol policy.Policy, proc kernel.ProcessInfo) *AddressSpace {
	return &AddressSpace{
		pgdir:    pgdir,
		frames:   frames,
		swapBE:   swapBE,
		swap:     swapfile.New(swapBE),
		resident: residentset.New(),
		pol:      pol,
		proc:     proc,
	}
}

// Size returns the current process size in bytes.
func (as *AddressSpace) Size() uint32 { return as.sz }

// PagedOutCount returns the number of evictions this address space has
// performed, whether driven by Grow or by a page fault.
func (as *AddressSpace) PagedOutCount() uint64 { return as.pagedOutCount }

// PageFaultCount returns the number of faults HandlePageFault resolved by
// reading a page back in from swap.
func (as *AddressSpace) PageFaultCount() uint64 { return as.pageFaultCount }

// Resident exposes the resident-set for metrics and tests; callers must
// not mutate it directly.
func (as *AddressSpace) Resident() *residentset.Set { return as.resident }

// Swap exposes the swap-set for metrics and tests; callers must not
// mutate it directly.
func (as *AddressSpace) Swap() *swapfile.Set { return as.swap }

// PageDirForTest exposes the underlying page table walker for scenarios
// and tests that need to inspect or seed frame contents directly.
func (as *AddressSpace) PageDirForTest() kernel.PageTableWalker { return as.pgdir }

// FramesForTest exposes the underlying frame allocator for scenarios and
// tests that need to inspect or seed frame contents directly.
func (as *AddressSpace) FramesForTest() kernel.FrameAllocator { return as.frames }

func (as *AddressSpace) none() bool {
	_, isNone := as.pol.(policy.None)
	return isNone
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Grow extends the process from its current size to newSize, allocating
// and mapping one frame per new page. If newSize is not larger than the
// current size it is a no-op returning the current size. A non-bootstrap
// process under an active policy is rejected up front with ErrOversize if
// newSize would push its page count past defs.MaxTotal; otherwise pages
// are installed one at a time, evicting a resident victim whenever the
// resident set is already full, and on any mid-loop failure the partial
// growth is rolled back via Shrink before returning.
func (as *AddressSpace) Grow(newSize uint32) (uint32, defs.Errno) {
	oldSize := as.sz
	if newSize <= oldSize {
		return oldSize, defs.ErrNone
	}

	isNone := as.none()
	if !isNone && !as.proc.IsBootstrap() {
		newPages := util.Roundup(newSize, uint32(defs.PGSIZE)) / defs.PGSIZE
		if newPages > defs.MaxTotal {
			return 0, defs.ErrOversize
		}
	}

	start := util.Roundup(oldSize, uint32(defs.PGSIZE))
	for va := start; va < newSize; va += defs.PGSIZE {
		frame, ok := as.frames.AllocFrame()
		if !ok {
			as.Shrink(newSize, oldSize)
			return 0, defs.ErrOOM
		}
		zero(as.frames.Bytes(frame))

		pte, _ := as.pgdir.Walk(va, true)
		pgtable.Install(pte, frame, as.pgdir)

		if isNone {
			continue
		}
		if as.resident.Full() {
			as.swapOut()
		}
		idx, errno := as.resident.Insert(va, as.pol.InitHistory())
		if errno != defs.ErrNone {
			panic("vmcore: resident set still full immediately after swap-out")
		}
		as.pol.OnInsert(as.resident, idx)
	}

	as.sz = newSize
	return newSize, defs.ErrNone
}

// Shrink walks pages in [roundup(newSize, PGSIZE), oldSize) and frees
// each one: a resident page's frame is returned to the allocator and its
// resident-set entry removed, a paged-out page is dropped from the swap
// set, and either way the PTE is cleared back to "neither". Pages that
// were never mapped (holes) are skipped. It returns newSize and also
// updates the address space's recorded size.
func (as *AddressSpace) Shrink(oldSize, newSize uint32) uint32 {
	start := util.Roundup(newSize, uint32(defs.PGSIZE))
	for va := start; va < oldSize; va += defs.PGSIZE {
		pte, ok := as.pgdir.Walk(va, false)
		if !ok {
			continue
		}
		switch {
		case pte.Present():
			as.frames.FreeFrame(pte.Frame)
			if !as.none() {
				as.resident.Remove(va)
			}
			pgtable.Clear(pte)
		case pte.PagedOut():
			if !as.none() {
				as.swap.Drop(va)
			}
			pgtable.Clear(pte)
		}
	}
	as.sz = newSize
	return newSize
}

// FreeAll releases every page in the process, from size down to zero, and
// tears down the swap backend.
func (as *AddressSpace) FreeAll() {
	as.Shrink(as.sz, 0)
	as.swap.Close()
}

// swapOut evicts the policy's chosen victim, writing its frame to swap
// and freeing both the frame and the resident slot. It increments
// pagedOutCount, the counter that tracks how many times this address
// space has had to make room by eviction.
func (as *AddressSpace) swapOut() {
	victimIdx := as.pol.SelectVictim(as.resident, as.pgdir)
	va := as.resident.SlotAt(victimIdx).VA

	pte, ok := as.pgdir.Walk(va, false)
	if !ok || !pte.Present() {
		panic("vmcore: resident slot has no present PTE")
	}

	if errno := as.swap.WriteOut(va, as.frames.Bytes(pte.Frame)); errno != defs.ErrNone {
		panic("vmcore: swap-out write failed: " + errno.Error())
	}
	as.frames.FreeFrame(pte.Frame)
	as.resident.RemoveAt(victimIdx)
	pgtable.Evict(pte, as.pgdir)
	as.pagedOutCount++
}

// HandlePageFault resolves a fault at faultVA. If the fault lands on a
// PTE that is not paged-out (absent, never faulted in, or already
// present), it returns ErrFault and changes nothing. Otherwise it allocates
// a frame, reinstates the PTE, and reads the page back in, evicting a
// resident victim first if the resident set is already full.
func (as *AddressSpace) HandlePageFault(faultVA uint32) defs.Errno {
	va := util.Rounddown(faultVA, uint32(defs.PGSIZE))
	pte, ok := as.pgdir.Walk(va, false)
	if !ok || !pte.PagedOut() {
		return defs.ErrFault
	}

	as.pageFaultCount++

	frame, ok := as.frames.AllocFrame()
	if !ok {
		return defs.ErrOOM
	}

	if !as.resident.Full() {
		pgtable.Reinstate(pte, frame, as.pgdir)
		if errno := as.swap.ReadIn(va, as.frames.Bytes(frame)); errno != defs.ErrNone {
			return errno
		}
		idx, errno := as.resident.Insert(va, as.pol.InitHistory())
		if errno != defs.ErrNone {
			panic("vmcore: resident set unexpectedly full after a free-slot check")
		}
		as.pol.OnInsert(as.resident, idx)
		return defs.ErrNone
	}

	as.pagedOutCount++
	victimIdx := as.pol.SelectVictim(as.resident, as.pgdir)
	victimVA := as.resident.SlotAt(victimIdx).VA

	pgtable.Reinstate(pte, frame, as.pgdir)
	var scratch [defs.PGSIZE]byte
	if errno := as.swap.ReadIn(va, scratch[:]); errno != defs.ErrNone {
		return errno
	}
	copy(as.frames.Bytes(frame), scratch[:])

	victimPTE, ok := as.pgdir.Walk(victimVA, false)
	if !ok || !victimPTE.Present() {
		panic("vmcore: victim slot has no present PTE")
	}
	if errno := as.swap.WriteOut(victimVA, as.frames.Bytes(victimPTE.Frame)); errno != defs.ErrNone {
		return errno
	}
	as.frames.FreeFrame(victimPTE.Frame)
	pgtable.Evict(victimPTE, as.pgdir)
	as.resident.RemoveAt(victimIdx)

	idx, errno := as.resident.Insert(va, as.pol.InitHistory())
	if errno != defs.ErrNone {
		panic("vmcore: resident set still full after evicting a victim")
	}
	as.pol.OnInsert(as.resident, idx)
	return defs.ErrNone
}

// Tick runs one aging-clock step over the resident set. It is a no-op
// under policy.None.
func (as *AddressSpace) Tick() {
	if as.none() {
		return
	}
	as.pol.OnTick(as.resident, as.pgdir)
}

// Touch sets the hardware-maintained accessed bit on the PTE backing va,
// standing in for a simulated memory reference. It is a no-op if va has
// no PTE.
func (as *AddressSpace) Touch(va uint32) {
	pte, ok := as.pgdir.Walk(va, false)
	if !ok {
		return
	}
	pte.Flags |= defs.PteA
}

// Clone mirrors every page in [0, as.sz) into child, which must already
// be constructed (via New) with its own empty page directory, frame
// allocator and resident set, and the same policy as the parent. Clone
// neither reads nor changes the child's swap set. A paged-out parent page becomes a paged-out child PTE with no
// frame and no swap-slot content copied — that is the responsibility of
// the caller's process-fork path, which owns the swap backend and can
// copy it wholesale before or after calling Clone (see Fork). A resident
// parent page is deep-copied into a freshly allocated child frame. Any VA
// below size that is neither present nor paged-out on the parent is an
// invariant violation and panics: the process-fork path must never be
// invoked concurrently with a fault on the same address space.
func (as *AddressSpace) Clone(child *AddressSpace) defs.Errno {
	for va := uint32(0); va < as.sz; va += defs.PGSIZE {
		parentPTE, ok := as.pgdir.Walk(va, false)
		if !ok || (!parentPTE.Present() && !parentPTE.PagedOut()) {
			panic("vmcore: clone found a VA within process size with no PTE")
		}

		switch {
		case parentPTE.PagedOut():
			childPTE, _ := child.pgdir.Walk(va, true)
			childPTE.Flags = defs.PtePG
		case parentPTE.Present():
			frame, ok := child.frames.AllocFrame()
			if !ok {
				child.FreeAll()
				return defs.ErrOOM
			}
			copy(child.frames.Bytes(frame), as.frames.Bytes(parentPTE.Frame))
			childPTE, _ := child.pgdir.Walk(va, true)
			pgtable.Install(childPTE, frame, child.pgdir)
			if !as.none() {
				idx, errno := child.resident.Insert(va, as.pol.InitHistory())
				if errno != defs.ErrNone {
					child.FreeAll()
					return defs.ErrOOM
				}
				child.pol.OnInsert(child.resident, idx)
			}
		}
	}
	child.sz = as.sz
	return defs.ErrNone
}
