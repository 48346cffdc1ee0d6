package communicator

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/teranos/clangcomplete/errors"
)

// BackendStats describes the running backend process.
type BackendStats struct {
	State      State         `json:"state" yaml:"state"`
	Pid        int           `json:"pid" yaml:"pid"`
	SessionID  string        `json:"session_id" yaml:"session_id"`
	Protocol   string        `json:"protocol" yaml:"protocol"`
	Uptime     time.Duration `json:"uptime" yaml:"uptime"`
	Restarts   int           `json:"restarts" yaml:"restarts"`
	RSSBytes   uint64        `json:"rss_bytes" yaml:"rss_bytes"`
	CPUPercent float64       `json:"cpu_percent" yaml:"cpu_percent"`
	Threads    int32         `json:"threads" yaml:"threads"`
}

// BackendStats samples resource usage of the current backend process.
func (c *Communicator) BackendStats() (BackendStats, error) {
	c.mu.Lock()
	stats := BackendStats{
		State:     c.state,
		SessionID: c.session.SessionID,
		Protocol:  c.session.ProtocolVersion,
		Restarts:  c.restarts,
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return stats, errors.Wrapf(errors.ErrBackendUnavailable, "no backend process (state %s)", stats.State)
	}
	stats.Pid = conn.proc.Pid()
	stats.Uptime = time.Since(conn.started)

	proc, err := process.NewProcess(int32(stats.Pid))
	if err != nil {
		return stats, errors.Wrapf(err, "failed to inspect backend pid %d", stats.Pid)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return stats, errors.Wrap(err, "failed to read backend memory")
	}
	stats.RSSBytes = mem.RSS

	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if threads, err := proc.NumThreads(); err == nil {
		stats.Threads = threads
	}
	return stats, nil
}
