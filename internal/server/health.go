package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// healthHandler reports the database pool state and host metrics. It answers
// 503 when the database is unreachable.
func (s *Server) healthHandler(c echo.Context) error {
	dbStats := s.db.Health()

	status := http.StatusOK
	state := "online"
	if dbStats["status"] != "up" {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	return c.JSON(status, map[string]interface{}{
		"status":   state,
		"database": dbStats,
		"system":   s.systemStats(),
	})
}

// systemStats collects host metrics. Collection errors leave the
// corresponding section out instead of failing the health check.
func (s *Server) systemStats() map[string]interface{} {
	stats := map[string]interface{}{
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"start_time": s.startTime.Format(time.RFC3339),
	}

	if hInfo, err := host.Info(); err == nil {
		stats["os"] = hInfo.OS
		stats["platform"] = hInfo.Platform
		stats["arch"] = hInfo.KernelArch
		stats["hostname"] = hInfo.Hostname
	}

	// Zero interval compares against the previous call instead of blocking.
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		stats["cpu_usage"] = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	if v, err := mem.VirtualMemory(); err == nil {
		stats["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	}

	if d, err := disk.Usage("/"); err == nil {
		stats["disk"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		}
	}

	return stats
}
