package residentset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blumenra/vmpaging/defs"
)

func TestInsertAndIndexOf(t *testing.T) {
	s := New()
	idx, errno := s.Insert(4096, 0)
	require.Equal(t, defs.ErrNone, errno)
	assert.Equal(t, idx, s.IndexOf(4096))
	assert.Equal(t, -1, s.IndexOf(8192), "IndexOf of absent VA must be -1")
}

func TestInsertAssignsIncreasingCreateOrderAndAQRank(t *testing.T) {
	s := New()
	i0, _ := s.Insert(0, 0)
	i1, _ := s.Insert(4096, 0)
	assert.Greater(t, s.SlotAt(i1).CreateOrder, s.SlotAt(i0).CreateOrder, "CreateOrder must increase with each insert")
	assert.Greater(t, s.SlotAt(i1).AQRank, s.SlotAt(i0).AQRank, "AQRank must increase with each insert")
}

func TestInsertOfAlreadyResidentPanics(t *testing.T) {
	s := New()
	s.Insert(0, 0)
	assert.Panics(t, func() { s.Insert(0, 0) }, "expected panic inserting an already-resident VA")
}

func TestFullAndOOM(t *testing.T) {
	s := New()
	for i := 0; i < defs.MaxPsyc; i++ {
		_, errno := s.Insert(uint32(i)*4096, 0)
		require.Equalf(t, defs.ErrNone, errno, "insert %d", i)
	}
	assert.True(t, s.Full(), "expected set to report full at MaxPsyc entries")
	_, errno := s.Insert(uint32(defs.MaxPsyc)*4096, 0)
	assert.Equal(t, defs.ErrOOM, errno, "insert past capacity")
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New()
	s.Insert(0, 0)
	s.Remove(0)
	assert.Equal(t, 0, s.Len())
	assert.NotPanics(t, func() { s.Remove(0) }, "removing an absent VA must be a no-op")
}

func TestRemoveAtFreesSlot(t *testing.T) {
	s := New()
	idx, _ := s.Insert(0, 0)
	s.RemoveAt(idx)
	assert.Equal(t, 0, s.Len(), "expected empty set after RemoveAt")
}

func TestUsedIndicesMatchesLen(t *testing.T) {
	s := New()
	s.Insert(0, 0)
	s.Insert(4096, 0)
	s.Remove(0)
	used := s.UsedIndices()
	require.Len(t, used, s.Len())
	assert.Len(t, used, 1)
}
