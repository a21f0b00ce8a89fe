package server

import (
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// memoryStats returns system memory usage for the health endpoint.
// Returns nil when the platform query fails; health degrades gracefully.
func memoryStats() map[string]interface{} {
	v, err := mem.VirtualMemory()
	if err != nil || v.Total == 0 {
		return nil
	}

	totalGB := float64(v.Total) / 1024 / 1024 / 1024
	usedGB := float64(v.Total-v.Available) / 1024 / 1024 / 1024

	return map[string]interface{}{
		"total_gb": totalGB,
		"used_gb":  usedGB,
		"percent":  (usedGB / totalGB) * 100,
	}
}

// loadStats returns load averages for the health endpoint.
// Returns nil on platforms without load averages (Windows).
func loadStats() map[string]interface{} {
	avg, err := load.Avg()
	if err != nil {
		return nil
	}

	return map[string]interface{}{
		"load1":  avg.Load1,
		"load5":  avg.Load5,
		"load15": avg.Load15,
	}
}
