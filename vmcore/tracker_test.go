package vmcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/policy"
)

func TestTrackerAddGetRemove(t *testing.T) {
	tr := NewTracker()
	as := newTestAS(t, false, policy.NFUA{})
	tr.Add(5, as)

	got, ok := tr.Get(5)
	require.True(t, ok)
	assert.Same(t, as, got, "expected Get to return the address space added under pid 5")
	assert.Equal(t, 1, tr.Len())

	tr.Remove(5)
	_, ok = tr.Get(5)
	assert.False(t, ok, "expected pid 5 to be gone after Remove")
	assert.Equal(t, 0, tr.Len())
}

func TestTrackerAddDuplicatePIDPanics(t *testing.T) {
	tr := NewTracker()
	tr.Add(1, newTestAS(t, false, policy.NFUA{}))
	assert.Panics(t, func() {
		tr.Add(1, newTestAS(t, false, policy.NFUA{}))
	}, "expected panic adding a duplicate pid")
}

func TestTrackerPIDsAreSorted(t *testing.T) {
	tr := NewTracker()
	for _, pid := range []int{5, 1, 3} {
		tr.Add(pid, newTestAS(t, false, policy.NFUA{}))
	}
	assert.Equal(t, []int{1, 3, 5}, tr.PIDs())
}

func TestTrackerTickDrivesEveryAddressSpace(t *testing.T) {
	tr := NewTracker()
	as1 := newTestAS(t, false, policy.NFUA{})
	as1.Grow(defs.PGSIZE)
	tr.Add(1, as1)

	as1.Touch(0)
	tr.Tick()

	pte, _ := as1.PageDirForTest().Walk(0, false)
	assert.False(t, pte.Accessed(), "expected Tracker.Tick to age the access bit down to cleared")
}
