package vmcore

import "sync"

// Tracker owns the set of live address spaces in a simulated system and
// drives the aging clock across all of them at once. This is the multi-process layer cmd/pgctl and
// cmd/pgexporterd both run against; AddressSpace itself knows nothing of
// other processes.
type Tracker struct {
	mu    sync.Mutex
	byPID map[int]*AddressSpace
}

// NewTracker returns an empty process tracker.
func NewTracker() *Tracker {
	return &Tracker{byPID: make(map[int]*AddressSpace)}
}

// Add registers as under pid. It panics if the pid is already
// tracked, mirroring the kernel convention that pid allocation is unique.
func (t *Tracker) Add(pid int, as *AddressSpace) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byPID[pid]; ok {
		panic("vmcore: duplicate pid registered with tracker")
	}
	t.byPID[pid] = as
}

// Remove tears down and forgets the address space for pid, if tracked.
func (t *Tracker) Remove(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if as, ok := t.byPID[pid]; ok {
		as.FreeAll()
		delete(t.byPID, pid)
	}
}

// Get returns the address space for pid, if tracked.
func (t *Tracker) Get(pid int) (*AddressSpace, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	as, ok := t.byPID[pid]
	return as, ok
}

// Tick runs one aging-clock step over every tracked address space, in pid
// order for determinism.
func (t *Tracker) Tick() {
	t.mu.Lock()
	pids := t.pidsLocked()
	t.mu.Unlock()
	for _, pid := range pids {
		if as, ok := t.Get(pid); ok {
			as.Tick()
		}
	}
}

// PIDs returns the tracked pids in ascending order.
func (t *Tracker) PIDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pidsLocked()
}

func (t *Tracker) pidsLocked() []int {
	pids := make([]int, 0, len(t.byPID))
	for pid := range t.byPID {
		pids = append(pids, pid)
	}
	for i := 1; i < len(pids); i++ {
		for j := i; j > 0 && pids[j-1] > pids[j]; j-- {
			pids[j-1], pids[j] = pids[j], pids[j-1]
		}
	}
	return pids
}

// Len reports how many processes are currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byPID)
}
