// Package telemetry samples host resource usage for the system status pane.
package telemetry

import (
	"fmt"
	"strings"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Source provides point-in-time host metrics. CPU load and memory are
// required; temperature and battery are optional and report ok=false
// when the host cannot supply them.
type Source interface {
	CPUPercent() (float64, error)
	Memory() (usedBytes, totalBytes uint64, err error)
	CPUTemperature() (celsius float64, ok bool)
	Battery() (percent float64, charging bool, ok bool)
}

// cpuSensorPrefixes are the hwmon chip names that report package or die
// temperature on common x86 and ARM hosts, in preference order.
var cpuSensorPrefixes = []string{"coretemp", "k10temp", "cpu_thermal"}

// HostSource reads metrics from the running host via gopsutil and
// distatus/battery.
type HostSource struct {
	batteries func() ([]*battery.Battery, error)
}

// NewHostSource returns a Source for the local machine.
func NewHostSource() *HostSource {
	return &HostSource{batteries: battery.GetAll}
}

// CPUPercent returns total CPU utilization since the previous call.
func (h *HostSource) CPUPercent() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu percent: no samples")
	}
	return percents[0], nil
}

// Memory returns used and total physical memory in bytes.
func (h *HostSource) Memory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, fmt.Errorf("virtual memory: %w", err)
	}
	return vm.Used, vm.Total, nil
}

// CPUTemperature returns the first CPU sensor reading found.
func (h *HostSource) CPUTemperature() (float64, bool) {
	// gopsutil returns partial results alongside warnings, so the error
	// alone does not mean nothing was read.
	temps, _ := host.SensorsTemperatures()
	return pickCPUTemperature(temps)
}

// Battery returns the combined charge of all batteries.
func (h *HostSource) Battery() (float64, bool, bool) {
	return summarizeBatteries(h.batteries())
}

func pickCPUTemperature(temps []host.TemperatureStat) (float64, bool) {
	for _, prefix := range cpuSensorPrefixes {
		for _, t := range temps {
			if strings.HasPrefix(t.SensorKey, prefix) && t.Temperature > 0 {
				return t.Temperature, true
			}
		}
	}
	return 0, false
}
