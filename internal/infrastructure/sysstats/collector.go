package sysstats

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type SystemStats struct {
	CPUUsage    float64 `json:"cpu_usage"`
	RAMUsage    float64 `json:"ram_usage"`
	Uptime      uint64  `json:"uptime"`
	Hostname    string  `json:"hostname"`
	ProcessRSS  uint64  `json:"process_rss"`
	Goroutines  int     `json:"goroutines"`
	StartedAt   int64   `json:"started_at"`
	CollectedAt int64   `json:"collected_at"`
}

// Collector gathers host and process figures for the health endpoint.
// Collection is best effort: fields that fail to load stay zero.
type Collector struct {
	startedAt time.Time
	proc      *process.Process
}

func NewCollector() *Collector {
	c := &Collector{startedAt: time.Now()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		c.proc = p
	}
	return c
}

func (c *Collector) Collect() *SystemStats {
	stats := &SystemStats{
		Goroutines:  runtime.NumGoroutine(),
		StartedAt:   c.startedAt.Unix(),
		CollectedAt: time.Now().Unix(),
	}

	// Zero interval compares against the previous call instead of sleeping.
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUUsage = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.RAMUsage = memInfo.UsedPercent
	}

	if hostInfo, err := host.Info(); err == nil {
		stats.Uptime = hostInfo.Uptime
		stats.Hostname = hostInfo.Hostname
	}

	if c.proc != nil {
		if memInfo, err := c.proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = memInfo.RSS
		}
	}

	return stats
}
