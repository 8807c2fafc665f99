package kernel

import "github.com/blumenra/vmpaging/pgtable"

// PageDir is a reference PageTableWalker: a flat map from page-aligned
// virtual address to PTE, standing in for the two-level (or four-level)
// hardware tables walkpgdir traverses. Since this package owns the only
// implementation, intermediate page-table pages and the "holes" they can
// leave are modelled directly as absent map entries rather than
// simulating a second level that would never be exercised elsewhere.
type PageDir struct {
	entries    map[uint32]*pgtable.PTE
	tlbFlushes int
}

// NewPageDir returns an empty page directory.
func NewPageDir() *PageDir {
	return &PageDir{entries: make(map[uint32]*pgtable.PTE)}
}

// Walk returns the PTE for va, allocating a zero PTE if create is true and
// none exists yet.
func (pd *PageDir) Walk(va uint32, create bool) (*pgtable.PTE, bool) {
	pte, ok := pd.entries[va]
	if !ok {
		if !create {
			return nil, false
		}
		pte = &pgtable.PTE{}
		pd.entries[va] = pte
	}
	return pte, true
}

// Remove drops any PTE at va, modelling a page-table hole.
func (pd *PageDir) Remove(va uint32) {
	delete(pd.entries, va)
}

// InvalidateTLB satisfies pgtable.TLBFlusher. The reference implementation
// only counts invocations — there is no real TLB to flush in a simulation —
// which is enough for tests asserting every transition flushes exactly
// once.
func (pd *PageDir) InvalidateTLB() {
	pd.tlbFlushes++
}

// TLBFlushes reports how many times InvalidateTLB has been called.
func (pd *PageDir) TLBFlushes() int {
	return pd.tlbFlushes
}

// Mapped reports whether va has any PTE at all.
func (pd *PageDir) Mapped(va uint32) bool {
	_, ok := pd.entries[va]
	return ok
}
