package kernel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blumenra/vmpaging/defs"
)

func TestFramePoolAllocFreeReuse(t *testing.T) {
	fp := NewFramePool()
	f1, ok := fp.AllocFrame()
	require.True(t, ok, "alloc failed")
	fp.FreeFrame(f1)
	f2, ok := fp.AllocFrame()
	require.True(t, ok, "alloc after free failed")
	assert.Equal(t, f1, f2, "expected frame number to be reused")
}

func TestFramePoolBytesAreZeroedPerAllocAndIsolated(t *testing.T) {
	fp := NewFramePool()
	f1, _ := fp.AllocFrame()
	f2, _ := fp.AllocFrame()
	assert.Equal(t, make([]byte, defs.PGSIZE), fp.Bytes(f2), "freshly allocated frame must be zeroed")
	copy(fp.Bytes(f1), []byte{1, 2, 3})
	assert.NotEqual(t, fp.Bytes(f1), fp.Bytes(f2), "distinct frames must not share backing storage")
}

func TestFramePoolDoubleFreePanics(t *testing.T) {
	fp := NewFramePool()
	f, _ := fp.AllocFrame()
	fp.FreeFrame(f)
	assert.Panics(t, func() { fp.FreeFrame(f) }, "expected panic freeing an unallocated frame")
}

func TestPageDirWalkCreateAndMapped(t *testing.T) {
	pd := NewPageDir()
	assert.False(t, pd.Mapped(0), "fresh page directory must have no mappings")
	_, ok := pd.Walk(0, false)
	assert.False(t, ok, "Walk with create=false on an absent VA must fail")

	pte, ok := pd.Walk(0, true)
	require.True(t, ok)
	require.NotNil(t, pte, "Walk with create=true must allocate a PTE")
	assert.True(t, pd.Mapped(0), "expected VA to be mapped after create")

	pd.Remove(0)
	assert.False(t, pd.Mapped(0), "expected VA to be unmapped after Remove")
}

func TestPageDirInvalidateTLBCounts(t *testing.T) {
	pd := NewPageDir()
	pd.InvalidateTLB()
	pd.InvalidateTLB()
	assert.Equal(t, 2, pd.TLBFlushes())
}

func TestMemSwapBackendRoundTrip(t *testing.T) {
	be := NewMemSwapBackend()
	assert.Error(t, be.WriteAt(0, []byte{1}), "expected error writing before Create")

	require.NoError(t, be.Create())
	page := bytes.Repeat([]byte{0x55}, defs.PGSIZE)
	require.NoError(t, be.WriteAt(0, page))

	got := make([]byte, defs.PGSIZE)
	require.NoError(t, be.ReadAt(0, got))
	assert.Equal(t, page, got, "round-tripped bytes do not match")
	assert.NoError(t, be.Destroy())
}

func TestFileSwapBackendRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "swap")
	be := NewFileSwapBackend(dir, 42)
	require.NoError(t, be.Create())

	page := bytes.Repeat([]byte{0x99}, defs.PGSIZE)
	require.NoError(t, be.WriteAt(0, page))

	got := make([]byte, defs.PGSIZE)
	require.NoError(t, be.ReadAt(0, got))
	assert.Equal(t, page, got, "round-tripped bytes do not match")

	path := filepath.Join(dir, "swap.42")
	_, err := os.Stat(path)
	require.NoError(t, err, "expected backing file to exist")

	require.NoError(t, be.Destroy())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected backing file to be removed after Destroy")
}

func TestSimpleProcess(t *testing.T) {
	p := NewProcess(7, true)
	assert.Equal(t, 7, p.PID())
	assert.True(t, p.IsBootstrap(), "expected bootstrap process to report IsBootstrap() true")
	assert.False(t, NewProcess(8, false).IsBootstrap(), "expected non-bootstrap process to report IsBootstrap() false")
}
