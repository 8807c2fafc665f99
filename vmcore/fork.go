package vmcore

import (
	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
)

// Fork builds a child address space for childProc, sharing the parent's
// replacement policy, and populates it from parent via Clone. This is the
// "process-fork path" collaborator: besides calling Clone for the
// page-table and resident-memory side, it also copies the parent's raw
// swap-file bytes to the child's swap backend before cloning, so that a
// fault on an inherited paged-out page in the child reads back the
// parent's data rather than whatever childSwapBE happened to contain. A
// fork implementation that skips this step will clone PTE classification
// correctly but silently corrupt every inherited paged-out page.
func Fork(parent *AddressSpace, childPgdir kernel.PageTableWalker, childFrames kernel.FrameAllocator, childSwapBE kernel.SwapBackend, childProc kernel.ProcessInfo) (*AddressSpace, error) {
	if err := childSwapBE.Create(); err != nil {
		return nil, err
	}

	child := New(childPgdir, childFrames, childSwapBE, parent.pol, childProc)

	if err := copySwapBytes(parent.swapBE, childSwapBE); err != nil {
		child.swap.Close()
		return nil, err
	}
	child.swap.CopyOccupancyFrom(parent.swap)

	if errno := parent.Clone(child); errno != 0 {
		child.FreeAll()
		return nil, errno
	}
	return child, nil
}

func copySwapBytes(src, dst kernel.SwapBackend) error {
	buf := make([]byte, defs.MaxFile*defs.PGSIZE)
	if err := src.ReadAt(0, buf); err != nil {
		return err
	}
	return dst.WriteAt(0, buf)
}
