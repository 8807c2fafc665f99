package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/policy"
	"github.com/blumenra/vmpaging/vmcore"
)

func newTrackedAS(t *testing.T, tracker *vmcore.Tracker, pid int) *vmcore.AddressSpace {
	t.Helper()
	be := kernel.NewMemSwapBackend()
	require.NoError(t, be.Create(), "swap backend create")
	as := vmcore.New(kernel.NewPageDir(), kernel.NewFramePool(), be, policy.NFUA{}, kernel.NewProcess(pid, false))
	tracker.Add(pid, as)
	return as
}

func readGauge(t *testing.T, ch <-chan prometheus.Metric) *dto.Metric {
	t.Helper()
	m := <-ch
	out := &dto.Metric{}
	require.NoError(t, m.Write(out), "writing metric")
	return out
}

func TestCollectEmitsOneSeriesPerTrackedProcess(t *testing.T) {
	tracker := vmcore.NewTracker()
	as := newTrackedAS(t, tracker, 10)
	as.Grow(uint32(defs.MaxPsyc+1) * defs.PGSIZE)

	c := NewCollector(tracker)
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 5, count, "one metric per Desc")
}

func TestCollectReflectsResidentAndSwapCounts(t *testing.T) {
	tracker := vmcore.NewTracker()
	as := newTrackedAS(t, tracker, 20)
	as.Grow(uint32(defs.MaxPsyc+1) * defs.PGSIZE)

	c := NewCollector(tracker)
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	resident := readGauge(t, ch)
	assert.Equal(t, float64(defs.MaxPsyc), resident.GetGauge().GetValue(), "resident_pages")
	swap := readGauge(t, ch)
	assert.Equal(t, float64(1), swap.GetGauge().GetValue(), "swap_pages")
}

func TestDescribeEmitsFiveDescs(t *testing.T) {
	c := NewCollector(vmcore.NewTracker())
	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)
	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 5, count)
}
