package server

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// cpuSampleWindow is how long /health samples CPU usage.
const cpuSampleWindow = 200 * time.Millisecond

// healthHandler reports runtime and host statistics. Probes that fail are
// left out rather than failing the whole report.
func (s *Server) healthHandler(c echo.Context) error {
	ctx := c.Request().Context()

	runtimeInfo := map[string]interface{}{
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"start_time": s.startTime.Format(time.RFC3339),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hInfo, err := host.InfoWithContext(ctx); err == nil {
		runtimeInfo["os"] = hInfo.OS
		runtimeInfo["platform"] = hInfo.Platform
		runtimeInfo["arch"] = hInfo.KernelArch
		runtimeInfo["hostname"] = hInfo.Hostname
	}

	cpuInfo := map[string]interface{}{
		"cores": runtime.NumCPU(),
	}
	if cpuPercent, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(cpuPercent) > 0 {
		cpuInfo["usage_percent"] = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	memoryInfo := map[string]interface{}{
		"heap_alloc_mb": fmt.Sprintf("%.2f MB", float64(ms.HeapAlloc)/1024/1024),
	}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memoryInfo["total_gb"] = fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024)
		memoryInfo["used_gb"] = fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024)
		memoryInfo["used_percent"] = fmt.Sprintf("%.2f%%", v.UsedPercent)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "online",
		"provider": s.cfg.Provider,
		"variant":  s.cfg.Variant,
		"runtime":  runtimeInfo,
		"cpu":      cpuInfo,
		"memory":   memoryInfo,
	})
}
