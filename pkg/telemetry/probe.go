package telemetry

import (
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// MemoryProbe is the capability interface for host-runtime memory sampling.
// Sample returns the current memory footprint in bytes, or ok=false when
// the signal is unavailable on this runtime.
type MemoryProbe interface {
	Sample() (bytes uint64, ok bool)
}

// processProbe samples the resident set size of the current process.
type processProbe struct {
	proc *process.Process
}

// NewProcessProbe returns a probe backed by the host process table.
// When the process handle cannot be obtained the returned probe reports
// memory as unavailable.
func NewProcessProbe() MemoryProbe {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return UnavailableProbe{}
	}
	return &processProbe{proc: proc}
}

func (p *processProbe) Sample() (uint64, bool) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, false
	}
	return info.RSS, true
}

// UnavailableProbe always reports memory as unavailable.
type UnavailableProbe struct{}

func (UnavailableProbe) Sample() (uint64, bool) {
	return 0, false
}
