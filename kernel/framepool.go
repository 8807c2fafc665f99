package kernel

import (
	"sync"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/pgtable"
)

// FramePool is a reference FrameAllocator backed by a simple free list,
// modelled on Physmem_t's freei/freelen bookkeeping in biscuit's
// mem/mem.go, minus the per-CPU fast path (there is exactly one simulated
// CPU here).
type FramePool struct {
	mu    sync.Mutex
	pages map[pgtable.Frame][]byte
	next  pgtable.Frame
	free  []pgtable.Frame
}

// NewFramePool returns an empty pool; frames are allocated lazily, so no
// fixed physical memory size needs to be configured up front.
func NewFramePool() *FramePool {
	return &FramePool{pages: make(map[pgtable.Frame][]byte)}
}

// AllocFrame returns a fresh zeroed frame, reusing freed frame numbers
// before minting new ones.
func (fp *FramePool) AllocFrame() (pgtable.Frame, bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	var f pgtable.Frame
	if n := len(fp.free); n > 0 {
		f = fp.free[n-1]
		fp.free = fp.free[:n-1]
	} else {
		fp.next++
		f = fp.next
	}
	fp.pages[f] = make([]byte, defs.PGSIZE)
	return f, true
}

// FreeFrame releases a frame back to the pool.
func (fp *FramePool) FreeFrame(f pgtable.Frame) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if _, ok := fp.pages[f]; !ok {
		panic("kernel: freeing unallocated frame")
	}
	delete(fp.pages, f)
	fp.free = append(fp.free, f)
}

// Bytes returns the backing slice for a frame.
func (fp *FramePool) Bytes(f pgtable.Frame) []byte {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	b, ok := fp.pages[f]
	if !ok {
		panic("kernel: access to unallocated frame")
	}
	return b
}
