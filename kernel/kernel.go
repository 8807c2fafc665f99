// Package kernel holds the collaborator interfaces external to the paging
// subsystem (the frame allocator, the page-table walker, the swap-file
// backend, process identity) along with one concrete, runnable
// implementation of each. Nothing in vmcore, policy, residentset or
// swapfile depends on the concrete types here — only on these interfaces —
// the same separation biscuit draws between vm's Vm_t and mem's
// Physmem_t (mem/mem.go's Page_i interface).
package kernel

import "github.com/blumenra/vmpaging/pgtable"

// FrameAllocator hands out and reclaims physical page frames.
type FrameAllocator interface {
	AllocFrame() (pgtable.Frame, bool)
	FreeFrame(pgtable.Frame)
	// Bytes returns the PGSIZE-length backing store for a frame so callers
	// can zero it or copy page contents to/from swap.
	Bytes(pgtable.Frame) []byte
}

// PageTableWalker resolves a virtual address to its PTE within one
// process's page directory, creating intermediate structure when create is
// true.
type PageTableWalker interface {
	Walk(va uint32, create bool) (pte *pgtable.PTE, ok bool)
	// Remove drops any PTE at va entirely, modelling a hole left by a
	// freed page-table page.
	Remove(va uint32)
	pgtable.TLBFlusher
}

// SwapBackend is one process's fixed-size backing store: create/destroy
// the store and read/write fixed-size slots within it. The pid is
// implicit in the receiver: each process owns exactly one SwapBackend
// instance.
type SwapBackend interface {
	Create() error
	Destroy() error
	WriteAt(offset int64, buf []byte) error
	ReadAt(offset int64, buf []byte) error
}

// ProcessInfo answers the questions vmcore needs about process identity
// without hard-coding PIDs.
type ProcessInfo interface {
	PID() int
	// IsBootstrap reports whether this process is exempt from MaxTotal,
	// e.g. init or the shell.
	IsBootstrap() bool
}
