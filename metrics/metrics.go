// Package metrics exposes the paging subsystem's counters as Prometheus
// gauges and counters, one label series per tracked process.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blumenra/vmpaging/vmcore"
)

const namespace = "vmpaging"

// Collector implements prometheus.Collector over a vmcore.Tracker,
// scraping every tracked address space on each Collect call the way
// Collector.collect walks every systemd unit in talyz-systemd_exporter's
// systemd.Collector.
type Collector struct {
	tracker *vmcore.Tracker

	residentPages  *prometheus.Desc
	swapPages      *prometheus.Desc
	pagedOutTotal  *prometheus.Desc
	pageFaultTotal *prometheus.Desc
	aqRankSpan     *prometheus.Desc
}

// NewCollector returns a Collector scraping tracker.
func NewCollector(tracker *vmcore.Tracker) *Collector {
	labels := []string{"pid"}
	return &Collector{
		tracker: tracker,
		residentPages: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "resident_pages"),
			"Number of pages currently backed by a physical frame.",
			labels, nil,
		),
		swapPages: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "swap_pages"),
			"Number of pages currently written out to the swap file.",
			labels, nil,
		),
		pagedOutTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "paged_out_total"),
			"Total number of pages this process has had evicted to swap.",
			labels, nil,
		),
		pageFaultTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "page_fault_total"),
			"Total number of page faults this process's address space has resolved.",
			labels, nil,
		),
		aqRankSpan: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "aq_rank_span"),
			"Difference between the highest and lowest AQ rank among resident pages, when the AQ policy is active.",
			labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.residentPages
	ch <- c.swapPages
	ch <- c.pagedOutTotal
	ch <- c.pageFaultTotal
	ch <- c.aqRankSpan
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, pid := range c.tracker.PIDs() {
		as, ok := c.tracker.Get(pid)
		if !ok {
			continue
		}
		label := strconv.Itoa(pid)

		ch <- prometheus.MustNewConstMetric(c.residentPages, prometheus.GaugeValue,
			float64(as.Resident().Len()), label)
		ch <- prometheus.MustNewConstMetric(c.swapPages, prometheus.GaugeValue,
			float64(as.Swap().Len()), label)
		ch <- prometheus.MustNewConstMetric(c.pagedOutTotal, prometheus.CounterValue,
			float64(as.PagedOutCount()), label)
		ch <- prometheus.MustNewConstMetric(c.pageFaultTotal, prometheus.CounterValue,
			float64(as.PageFaultCount()), label)
		ch <- prometheus.MustNewConstMetric(c.aqRankSpan, prometheus.GaugeValue,
			aqRankSpan(as), label)
	}
}

func aqRankSpan(as *vmcore.AddressSpace) float64 {
	used := as.Resident().UsedIndices()
	if len(used) == 0 {
		return 0
	}
	min := as.Resident().SlotAt(used[0]).AQRank
	max := min
	for _, i := range used[1:] {
		rank := as.Resident().SlotAt(i).AQRank
		if rank < min {
			min = rank
		}
		if rank > max {
			max = rank
		}
	}
	return float64(max - min)
}
