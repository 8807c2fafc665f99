package kernel

// SimpleProcess is a reference ProcessInfo. The bootstrap exemption is
// routed through a predicate supplied at construction time rather than a
// PID comparison — callers decide bootstrap-ness when constructing the
// process, not by inspecting pid here.
type SimpleProcess struct {
	pid       int
	bootstrap bool
}

// NewProcess returns a ProcessInfo for pid. bootstrap marks processes
// exempt from the MaxTotal cap.
func NewProcess(pid int, bootstrap bool) *SimpleProcess {
	return &SimpleProcess{pid: pid, bootstrap: bootstrap}
}

// PID returns the process id.
func (p *SimpleProcess) PID() int { return p.pid }

// IsBootstrap reports whether this process is exempt from MaxTotal.
func (p *SimpleProcess) IsBootstrap() bool { return p.bootstrap }
