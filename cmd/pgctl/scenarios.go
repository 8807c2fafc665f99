package main

import (
	"bytes"
	"fmt"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/policy"
	"github.com/blumenra/vmpaging/vmcore"
)

type scenarioResult struct {
	resident   int
	swap       int
	pagedOut   uint64
	pageFaults uint64
	err        error
}

type scenarioFunc func(pol policy.Policy) scenarioResult

var scenarioNames = []string{
	"linear-fill",
	"cap-boundary",
	"fork-inherit",
	"swap-roundtrip",
	"scfifo-second-chance",
	"aq-promotion",
}

var scenarios = map[string]scenarioFunc{
	"linear-fill":          linearFillScenario,
	"cap-boundary":         capBoundaryScenario,
	"fork-inherit":         forkInheritScenario,
	"swap-roundtrip":       swapRoundtripScenario,
	"scfifo-second-chance": scfifoSecondChanceScenario,
	"aq-promotion":         aqPromotionScenario,
}

func newAddressSpace(pid int, bootstrap bool, pol policy.Policy) *vmcore.AddressSpace {
	swapBE := kernel.NewMemSwapBackend()
	if err := swapBE.Create(); err != nil {
		panic(err)
	}
	return vmcore.New(kernel.NewPageDir(), kernel.NewFramePool(), swapBE, pol, kernel.NewProcess(pid, bootstrap))
}

func report(as *vmcore.AddressSpace, err error) scenarioResult {
	return scenarioResult{
		resident:   as.Resident().Len(),
		swap:       as.Swap().Len(),
		pagedOut:   as.PagedOutCount(),
		pageFaults: as.PageFaultCount(),
		err:        err,
	}
}

// linearFillScenario grows a process to MaxTotal pages in one Grow call
// and checks that MaxPsyc pages end up resident and that paged_out_count
// equals MaxTotal-MaxPsyc, one eviction for each page past MaxPsyc.
func linearFillScenario(pol policy.Policy) scenarioResult {
	as := newAddressSpace(100, false, pol)
	target := uint32(defs.MaxTotal) * defs.PGSIZE
	if _, errno := as.Grow(target); errno != defs.ErrNone {
		return report(as, fmt.Errorf("grow to MaxTotal failed: %s", errno))
	}
	if as.Resident().Len() != defs.MaxPsyc {
		return report(as, fmt.Errorf("resident count = %d, want %d", as.Resident().Len(), defs.MaxPsyc))
	}
	wantPagedOut := uint64(defs.MaxTotal - defs.MaxPsyc)
	if as.PagedOutCount() != wantPagedOut {
		return report(as, fmt.Errorf("paged_out_count = %d, want %d", as.PagedOutCount(), wantPagedOut))
	}
	return report(as, nil)
}

// capBoundaryScenario checks that a non-bootstrap process is rejected at
// MaxTotal+1 pages but accepted at exactly MaxTotal.
func capBoundaryScenario(pol policy.Policy) scenarioResult {
	as := newAddressSpace(101, false, pol)
	over := uint32(defs.MaxTotal+1) * defs.PGSIZE
	if _, errno := as.Grow(over); errno != defs.ErrOversize {
		return report(as, fmt.Errorf("grow past MaxTotal returned %s, want ErrOversize", errno))
	}
	if as.Size() != 0 {
		return report(as, fmt.Errorf("size = %d after rejected grow, want 0", as.Size()))
	}
	at := uint32(defs.MaxTotal) * defs.PGSIZE
	if _, errno := as.Grow(at); errno != defs.ErrNone {
		return report(as, fmt.Errorf("grow to exactly MaxTotal failed: %s", errno))
	}
	return report(as, nil)
}

// forkInheritScenario grows a parent under enough pressure to produce
// both resident and paged-out pages, forks a child, and checks that the
// child's resident/swap occupancy and a sampled paged-out page's bytes
// match the parent's.
func forkInheritScenario(pol policy.Policy) scenarioResult {
	parent := newAddressSpace(200, false, pol)
	size := uint32(defs.MaxTotal) * defs.PGSIZE
	if _, errno := parent.Grow(size); errno != defs.ErrNone {
		return report(parent, fmt.Errorf("parent grow failed: %s", errno))
	}

	childSwapBE := kernel.NewMemSwapBackend()
	child, err := vmcore.Fork(parent, kernel.NewPageDir(), kernel.NewFramePool(), childSwapBE, kernel.NewProcess(201, false))
	if err != nil {
		return report(parent, fmt.Errorf("fork failed: %v", err))
	}

	if child.Resident().Len() != parent.Resident().Len() || child.Swap().Len() != parent.Swap().Len() {
		return scenarioResult{err: fmt.Errorf("child occupancy (resident=%d swap=%d) does not match parent (resident=%d swap=%d)",
			child.Resident().Len(), child.Swap().Len(), parent.Resident().Len(), parent.Swap().Len())}
	}

	// The earliest pages created are the ones every policy's tie-break
	// evicts first, so VA 0 is reliably paged out by now; fault it back in
	// on both sides and compare.
	if errno := parent.HandlePageFault(0); errno != defs.ErrNone {
		return report(parent, fmt.Errorf("parent re-fault at VA 0 failed: %s", errno))
	}
	if errno := child.HandlePageFault(0); errno != defs.ErrNone {
		return report(child, fmt.Errorf("child re-fault at VA 0 failed: %s", errno))
	}
	parentPTE, parentOK := parent.PageDirForTest().Walk(0, false)
	childPTE, childOK := child.PageDirForTest().Walk(0, false)
	if !parentOK || !childOK ||
		!bytes.Equal(parent.FramesForTest().Bytes(parentPTE.Frame), child.FramesForTest().Bytes(childPTE.Frame)) {
		return report(child, fmt.Errorf("child's VA 0 content does not match parent's after re-fault"))
	}

	return report(child, nil)
}

// swapRoundtripScenario writes a recognisable byte pattern into the first
// page, grows until that page is evicted, then faults it back in and
// checks the pattern survived the round trip.
func swapRoundtripScenario(pol policy.Policy) scenarioResult {
	as := newAddressSpace(300, false, pol)
	if _, errno := as.Grow(defs.PGSIZE); errno != defs.ErrNone {
		return report(as, fmt.Errorf("initial grow failed: %s", errno))
	}

	pte, ok := as.PageDirForTest().Walk(0, false)
	if !ok || !pte.Present() {
		return report(as, fmt.Errorf("VA 0 not present after initial grow"))
	}
	marker := bytes.Repeat([]byte{0xAB}, defs.PGSIZE)
	copy(as.FramesForTest().Bytes(pte.Frame), marker)

	target := uint32(defs.MaxPsyc+1) * defs.PGSIZE
	if _, errno := as.Grow(target); errno != defs.ErrNone {
		return report(as, fmt.Errorf("grow to force eviction failed: %s", errno))
	}
	if errno := as.HandlePageFault(0); errno != defs.ErrNone {
		return report(as, fmt.Errorf("re-fault at VA 0 failed: %s", errno))
	}

	pte, ok = as.PageDirForTest().Walk(0, false)
	if !ok || !pte.Present() {
		return report(as, fmt.Errorf("VA 0 not present after re-fault"))
	}
	if !bytes.Equal(as.FramesForTest().Bytes(pte.Frame), marker) {
		return report(as, fmt.Errorf("swap round-trip corrupted page contents"))
	}
	return report(as, nil)
}

// scfifoSecondChanceScenario forces the SCFIFO policy regardless of
// --policy, since it exercises that policy's specific forgiveness rule:
// an accessed oldest-CreateOrder page survives one eviction round and is
// rewritten to the back of the queue instead of being evicted.
func scfifoSecondChanceScenario(policy.Policy) scenarioResult {
	pol := policy.SCFIFO{}
	as := newAddressSpace(400, false, pol)
	if _, errno := as.Grow(uint32(defs.MaxPsyc) * defs.PGSIZE); errno != defs.ErrNone {
		return report(as, fmt.Errorf("initial fill failed: %s", errno))
	}
	as.Touch(0)

	if _, errno := as.Grow(uint32(defs.MaxPsyc+1) * defs.PGSIZE); errno != defs.ErrNone {
		return report(as, fmt.Errorf("grow to force eviction failed: %s", errno))
	}
	if as.Swap().IndexOf(0) != -1 {
		return report(as, fmt.Errorf("VA 0 was evicted despite being accessed"))
	}
	return report(as, nil)
}

// aqPromotionScenario forces the AQ policy and checks that repeatedly
// touching two pages and ticking the aging clock moves their aq_rank
// upward, away from the eviction boundary.
func aqPromotionScenario(policy.Policy) scenarioResult {
	pol := policy.AQ{}
	as := newAddressSpace(500, false, pol)
	if _, errno := as.Grow(uint32(defs.MaxPsyc) * defs.PGSIZE); errno != defs.ErrNone {
		return report(as, fmt.Errorf("initial fill failed: %s", errno))
	}

	rankOf := func(va uint32) uint64 {
		idx := as.Resident().IndexOf(va)
		return as.Resident().SlotAt(idx).AQRank
	}
	va5, va7 := uint32(5*defs.PGSIZE), uint32(7*defs.PGSIZE)
	start5, start7 := rankOf(va5), rankOf(va7)

	for i := 0; i < 3; i++ {
		as.Touch(va5)
		as.Touch(va7)
		as.Tick()
	}

	if rankOf(va5) <= start5 || rankOf(va7) <= start7 {
		return report(as, fmt.Errorf("aq_rank did not advance for touched pages"))
	}

	if _, errno := as.Grow(uint32(defs.MaxPsyc+1) * defs.PGSIZE); errno != defs.ErrNone {
		return report(as, fmt.Errorf("grow to force eviction failed: %s", errno))
	}
	if as.Swap().IndexOf(va5) != -1 || as.Swap().IndexOf(va7) != -1 {
		return report(as, fmt.Errorf("a touched, promoted page was evicted"))
	}
	return report(as, nil)
}
