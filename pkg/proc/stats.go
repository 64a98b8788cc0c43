// Package proc reads resource usage of running node processes.
package proc

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
)

// Stats is a point-in-time resource snapshot of one node process.
type Stats struct {
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
	Threads    int32   `json:"threads"`
	Status     string  `json:"status"`
}

// ReadStats samples the process with the given PID. Fields that cannot be
// read are left zero rather than failing the whole snapshot.
func ReadStats(pid int) (*Stats, error) {
	if pid <= 0 {
		return nil, errors.New("invalid PID")
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, errors.Wrap(err, "open process")
	}

	st := &Stats{PID: pid}
	if cpu, err := p.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if mi, err := p.MemoryInfo(); err == nil && mi != nil {
		st.MemoryMB = float64(mi.RSS) / (1024 * 1024)
	}
	if n, err := p.NumThreads(); err == nil {
		st.Threads = n
	}
	if s, err := p.Status(); err == nil {
		st.Status = s
	}
	return st, nil
}

// ReadAllStats samples several PIDs, skipping processes that have exited.
func ReadAllStats(pids []int) map[int]*Stats {
	out := make(map[int]*Stats, len(pids))
	for _, pid := range pids {
		st, err := ReadStats(pid)
		if err != nil {
			continue
		}
		out[pid] = st
	}
	return out
}
