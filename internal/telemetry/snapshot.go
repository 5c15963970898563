package telemetry

import (
	"fmt"
	"time"
)

const (
	bytesPerMB = 1024 * 1024

	timestampLayout = "2006-01-02 15:04:05"
	unavailable     = "unavailable"
)

// Snapshot is one telemetry sample. Optional fields are nil when the
// source could not supply them.
type Snapshot struct {
	BuildDuration time.Duration
	StartedAt     time.Time
	SampledAt     time.Time

	CPUPercent     float64
	CPUTempCelsius *float64

	MemUsedMB  float64
	MemTotalMB float64

	BatteryPercent  *float64
	BatteryCharging *bool
}

// Lines renders a snapshot as the seven fixed rows of the system status
// pane. Missing optional values are shown as "unavailable" so the layout
// never shifts between samples.
func Lines(s Snapshot) []string {
	cpu := fmt.Sprintf("CPU: %.2f%% used, ", s.CPUPercent)
	if s.CPUTempCelsius != nil {
		cpu += fmt.Sprintf("%.1f°C", *s.CPUTempCelsius)
	} else {
		cpu += unavailable
	}

	var memPercent float64
	if s.MemTotalMB > 0 {
		memPercent = s.MemUsedMB / s.MemTotalMB * 100
	}

	bat := "BAT: " + unavailable
	if s.BatteryPercent != nil {
		state := "discharging"
		if s.BatteryCharging != nil && *s.BatteryCharging {
			state = "charging"
		}
		bat = fmt.Sprintf("BAT: %.2f%% (%s)", *s.BatteryPercent, state)
	}

	return []string{
		"Build duration: " + formatDuration(s.BuildDuration),
		"    Started at: " + s.StartedAt.Format(timestampLayout),
		"    Sampled at: " + s.SampledAt.Format(timestampLayout),
		"",
		cpu,
		fmt.Sprintf("MEM: %.2fMB / %.2fMB (%.2f%%)", s.MemUsedMB, s.MemTotalMB, memPercent),
		bat,
	}
}

// formatDuration renders d as DD:HH:MM:SS.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total / 3600 % 24
	minutes := total / 60 % 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", days, hours, minutes, seconds)
}
