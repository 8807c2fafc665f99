// Command pgexporterd runs a synthetic multi-process paging workload on a
// ticker and exposes its counters as Prometheus metrics, standing in for
// the scheduler's periodic access-bit aging tick in a long-running
// process rather than a one-shot CLI invocation.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/coreos/go-systemd/journal"
	"github.com/povilasv/prommod"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/log"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/blumenra/vmpaging/defs"
	"github.com/blumenra/vmpaging/kernel"
	"github.com/blumenra/vmpaging/metrics"
	"github.com/blumenra/vmpaging/policy"
	"github.com/blumenra/vmpaging/vmcore"
)

var (
	listenAddress = kingpin.Flag("web.listen-address", "Address to listen on for telemetry.").Default(":9842").String()
	metricsPath   = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()
	tickInterval  = kingpin.Flag("tick.interval", "Interval between aging-clock ticks and workload growth steps.").Default("1s").Duration()
	numProcesses  = kingpin.Flag("workload.processes", "Number of synthetic processes to simulate.").Default("4").Int()
	policyFlag    = kingpin.Flag("policy", "Replacement policy: nfua, lapa, scfifo, aq or none.").Default("nfua").String()
)

func resolvePolicy(name string) (policy.Policy, error) {
	switch name {
	case "nfua":
		return policy.NFUA{}, nil
	case "lapa":
		return policy.LAPA{}, nil
	case "scfifo":
		return policy.SCFIFO{}, nil
	case "aq":
		return policy.AQ{}, nil
	case "none":
		return policy.None{}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want nfua, lapa, scfifo, aq or none)", name)
	}
}

// process wraps an address space with the per-tick growth state driving
// its synthetic workload: it grows by one page per tick up to MaxTotal,
// then frees everything and starts over, so the ticker keeps exercising
// both the fill path and the steady-state eviction path forever.
type process struct {
	as   *vmcore.AddressSpace
	size uint32
}

func (p *process) step() {
	if p.size >= uint32(defs.MaxTotal)*defs.PGSIZE {
		p.as.Shrink(p.size, 0)
		p.size = 0
		return
	}
	p.size += defs.PGSIZE
	if _, errno := p.as.Grow(p.size); errno != defs.ErrNone {
		log.Errorln("workload grow step failed:", errno)
		return
	}
	// touch the page just below the growth frontier so the active policy
	// has something to age and promote, not just untouched fresh pages.
	if p.size >= 2*defs.PGSIZE {
		p.as.Touch(p.size - 2*defs.PGSIZE)
	}
}

func main() {
	log.AddFlags(kingpin.CommandLine)
	kingpin.Version("pgexporterd (demand-paging metrics exporter)")
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	pol, err := resolvePolicy(*policyFlag)
	if err != nil {
		log.Fatalln(err)
	}

	tracker := vmcore.NewTracker()
	procs := make([]*process, 0, *numProcesses)
	for pid := 1; pid <= *numProcesses; pid++ {
		swapBE := kernel.NewMemSwapBackend()
		if err := swapBE.Create(); err != nil {
			log.Fatalln("creating swap backend:", err)
		}
		as := vmcore.New(kernel.NewPageDir(), kernel.NewFramePool(), swapBE, pol, kernel.NewProcess(pid, false))
		tracker.Add(pid, as)
		procs = append(procs, &process{as: as})
	}

	prometheus.MustRegister(metrics.NewCollector(tracker))
	prometheus.MustRegister(prommod.NewCollector("pgexporterd"))

	http.Handle(*metricsPath, promhttp.Handler())
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>pgexporterd</title></head><body>
<h1>pgexporterd</h1><p><a href="` + *metricsPath + `">Metrics</a></p></body></html>`))
	})

	if journal.Enabled() {
		log.Infoln("journal logging available")
	}

	go runTicker(tracker, procs)

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnln("systemd notify failed:", err)
	} else if ok {
		log.Infoln("notified systemd readiness")
	}

	log.Infoln("listening on", *listenAddress)
	if err := http.ListenAndServe(*listenAddress, nil); err != nil {
		log.Errorln("http server error:", err)
		os.Exit(1)
	}
}

func runTicker(tracker *vmcore.Tracker, procs []*process) {
	ticker := time.NewTicker(*tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		for _, p := range procs {
			p.step()
		}
		tracker.Tick()
		if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
			log.Warnln("systemd watchdog notify failed:", err)
		}
	}
}
