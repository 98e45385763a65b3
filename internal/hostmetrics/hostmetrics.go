// Package hostmetrics samples host CPU/memory/load figures for the
// status endpoint, using the same library the teacher's telemetry
// layer uses rather than reading /proc by hand.
package hostmetrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one point-in-time host reading.
type Snapshot struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsedPct  float64 `json:"mem_used_percent"`
	LoadAvg1    float64 `json:"load_avg_1"`
	LoadAvg5    float64 `json:"load_avg_5"`
	LoadAvg15   float64 `json:"load_avg_15"`
}

// Sample gathers a Snapshot. CPUPercent reflects overall utilization
// over a short blocking measurement window, following gopsutil's
// own recommended usage for a single aggregate figure.
func Sample(ctx context.Context) (Snapshot, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hostmetrics: cpu percent: %w", err)
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hostmetrics: virtual memory: %w", err)
	}

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hostmetrics: load average: %w", err)
	}

	return Snapshot{
		CPUPercent: cpuPercent,
		MemUsedPct: vm.UsedPercent,
		LoadAvg1:   avg.Load1,
		LoadAvg5:   avg.Load5,
		LoadAvg15:  avg.Load15,
	}, nil
}
