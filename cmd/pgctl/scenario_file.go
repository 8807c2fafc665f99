package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/policy"
	"github.com/blumenra/vmpaging/vmcore"
)

// procSpec describes one simulated process in a scenario file.
type procSpec struct {
	PID       int   `yaml:"pid"`
	Bootstrap bool  `yaml:"bootstrap"`
	GrowPages int   `yaml:"grow_pages"`
	Touch     []int `yaml:"touch"`
	Ticks     int   `yaml:"ticks"`
	Faults    []int `yaml:"faults"`
}

// workloadSpec is the top-level shape of a --scenario YAML file: an
// ordered list of processes to create and drive against a shared Tracker.
// SwapDir, if set, switches every process from the in-memory swap backend
// to a real per-pid file under that directory, so a scenario file can
// exercise the filesystem-backed path without recompiling anything.
type workloadSpec struct {
	SwapDir   string     `yaml:"swap_dir"`
	Processes []procSpec `yaml:"processes"`
}

type pidResult struct {
	pid        int
	resident   int
	swap       int
	pagedOut   uint64
	pageFaults uint64
}

// runScenarioFile loads a YAML workload from path, drives every process it
// describes against a vmcore.Tracker under pol, and returns each process's
// final counters in ascending pid order.
func runScenarioFile(path string, pol policy.Policy) ([]pidResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario file %q", path)
	}
	var workload workloadSpec
	if err := yaml.Unmarshal(raw, &workload); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario file %q", path)
	}

	tracker := vmcore.NewTracker()
	defer func() {
		for _, pid := range tracker.PIDs() {
			tracker.Remove(pid)
		}
	}()

	results := make([]pidResult, 0, len(workload.Processes))
	for _, p := range workload.Processes {
		var swapBE kernel.SwapBackend
		if workload.SwapDir != "" {
			swapBE = kernel.NewFileSwapBackend(workload.SwapDir, p.PID)
		} else {
			swapBE = kernel.NewMemSwapBackend()
		}
		if err := swapBE.Create(); err != nil {
			return nil, errors.Wrapf(err, "creating swap backend for pid %d", p.PID)
		}
		as := vmcore.New(kernel.NewPageDir(), kernel.NewFramePool(), swapBE, pol, kernel.NewProcess(p.PID, p.Bootstrap))
		tracker.Add(p.PID, as)

		if p.GrowPages > 0 {
			if _, errno := as.Grow(uint32(p.GrowPages) * defs.PGSIZE); errno != defs.ErrNone {
				return nil, errors.Errorf("pid %d: grow to %d pages failed: %s", p.PID, p.GrowPages, errno)
			}
		}
		for _, page := range p.Touch {
			as.Touch(uint32(page) * defs.PGSIZE)
		}
		for i := 0; i < p.Ticks; i++ {
			as.Tick()
		}
		for _, page := range p.Faults {
			if errno := as.HandlePageFault(uint32(page) * defs.PGSIZE); errno != defs.ErrNone {
				return nil, errors.Errorf("pid %d: fault at page %d failed: %s", p.PID, page, errno)
			}
		}
	}

	for _, pid := range tracker.PIDs() {
		as, _ := tracker.Get(pid)
		results = append(results, pidResult{
			pid:        pid,
			resident:   as.Resident().Len(),
			swap:       as.Swap().Len(),
			pagedOut:   as.PagedOutCount(),
			pageFaults: as.PageFaultCount(),
		})
	}
	return results, nil
}
