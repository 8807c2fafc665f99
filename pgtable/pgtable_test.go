package pgtable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blumenra/vmpaging/defs"
)

type countingFlusher struct{ n int }

func (f *countingFlusher) InvalidateTLB() { f.n++ }

func TestInstallSetsPresentAndFlushes(t *testing.T) {
	pte := &PTE{}
	f := &countingFlusher{}
	Install(pte, Frame(7), f)

	assert.True(t, pte.Present(), "installed PTE is not present")
	assert.False(t, pte.PagedOut(), "installed PTE must not be paged out")
	assert.Equal(t, Frame(7), pte.Frame)
	assert.Equal(t, 1, f.n, "InvalidateTLB call count")
}

func TestInstallOverMappedPanics(t *testing.T) {
	pte := &PTE{Flags: defs.PteP}
	assert.Panics(t, func() { Install(pte, 1, &countingFlusher{}) }, "expected panic installing over a present PTE")
}

func TestEvictThenReinstateRoundTrips(t *testing.T) {
	pte := &PTE{}
	f := &countingFlusher{}
	Install(pte, 3, f)

	Evict(pte, f)
	assert.False(t, pte.Present(), "evicted PTE must not be present")
	assert.True(t, pte.PagedOut(), "evicted PTE must be paged out")
	assert.Equal(t, Frame(0), pte.Frame)

	Reinstate(pte, 9, f)
	assert.True(t, pte.Present(), "reinstated PTE must be present")
	assert.False(t, pte.PagedOut(), "reinstated PTE must not be paged out")
	assert.Equal(t, Frame(9), pte.Frame)
	assert.Equal(t, 3, f.n, "InvalidateTLB call count")
}

func TestEvictOfNonPresentPanics(t *testing.T) {
	pte := &PTE{}
	assert.Panics(t, func() { Evict(pte, &countingFlusher{}) }, "expected panic evicting a non-resident PTE")
}

func TestReinstateOverPresentPanics(t *testing.T) {
	pte := &PTE{}
	f := &countingFlusher{}
	Install(pte, 1, f)
	assert.Panics(t, func() { Reinstate(pte, 2, f) }, "expected panic reinstating a present PTE")
}

func TestReinstateOfNeverPagedOutPanics(t *testing.T) {
	pte := &PTE{}
	assert.Panics(t, func() { Reinstate(pte, 2, &countingFlusher{}) }, "expected panic reinstating a PTE that was never paged out")
}

func TestClearReturnsToNeither(t *testing.T) {
	pte := &PTE{}
	f := &countingFlusher{}
	Install(pte, 4, f)
	Clear(pte)
	assert.False(t, pte.Present(), "cleared PTE must not be present")
	assert.False(t, pte.PagedOut(), "cleared PTE must not be paged out")
	assert.Equal(t, Frame(0), pte.Frame)
}

func TestAccessedBit(t *testing.T) {
	pte := &PTE{}
	assert.False(t, pte.Accessed(), "fresh PTE must not be accessed")
	pte.Flags |= defs.PteA
	assert.True(t, pte.Accessed(), "expected accessed bit to be set")
	pte.ClearAccessed()
	assert.False(t, pte.Accessed(), "expected ClearAccessed to clear the bit")
}
