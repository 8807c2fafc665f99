package vmcore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/policy"
)

func TestForkInheritsSwappedPageContent(t *testing.T) {
	parent := newTestAS(t, false, policy.NFUA{})
	parent.Grow(defs.PGSIZE)
	pte, _ := parent.PageDirForTest().Walk(0, false)
	marker := bytes.Repeat([]byte{0x5A}, defs.PGSIZE)
	copy(parent.FramesForTest().Bytes(pte.Frame), marker)

	parent.Grow(uint32(defs.MaxPsyc+1) * defs.PGSIZE) // forces VA 0 out to swap

	childSwapBE := kernel.NewMemSwapBackend()
	child, err := Fork(parent, kernel.NewPageDir(), kernel.NewFramePool(), childSwapBE, kernel.NewProcess(2, false))
	require.NoError(t, err, "fork failed")

	assert.Equal(t, parent.Swap().Len(), child.Swap().Len())
	assert.Equal(t, parent.Resident().Len(), child.Resident().Len())

	childScratch := make([]byte, defs.PGSIZE)
	require.Equal(t, defs.ErrNone, child.swap.ReadIn(0, childScratch), "reading child swap content")
	assert.Equal(t, marker, childScratch, "forked child's swapped-out page content does not match parent's")
}

func TestForkChildIsIndependentOfParent(t *testing.T) {
	parent := newTestAS(t, false, policy.NFUA{})
	parent.Grow(defs.PGSIZE)

	childSwapBE := kernel.NewMemSwapBackend()
	child, err := Fork(parent, kernel.NewPageDir(), kernel.NewFramePool(), childSwapBE, kernel.NewProcess(2, false))
	require.NoError(t, err, "fork failed")

	child.Grow(2 * defs.PGSIZE)
	assert.NotEqual(t, parent.Size(), child.Size(), "growing the child must not affect the parent's size")
}
