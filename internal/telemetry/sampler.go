package telemetry

import (
	"log/slog"
	"time"
)

// DefaultInterval is the minimum time between two samples.
const DefaultInterval = 500 * time.Millisecond

// Sampler rate-limits calls into a Source. It is driven synchronously by
// the render loop, which passes the current time explicitly.
type Sampler struct {
	source    Source
	startedAt time.Time
	interval  time.Duration
	logger    *slog.Logger

	last    time.Time
	sampled bool
}

// NewSampler creates a Sampler for a build that started at startedAt.
// If logger is nil, slog.Default() is used.
func NewSampler(source Source, startedAt time.Time, interval time.Duration, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		source:    source,
		startedAt: startedAt,
		interval:  interval,
		logger:    logger,
	}
}

// Due reports whether a new sample should be taken at now.
func (s *Sampler) Due(now time.Time) bool {
	return !s.sampled || now.Sub(s.last) >= s.interval
}

// Sample pulls a fresh snapshot from the source and records now as the
// last sample time. Required metrics that fail are logged and reported as
// zero.
func (s *Sampler) Sample(now time.Time) Snapshot {
	s.last = now
	s.sampled = true

	snap := Snapshot{
		BuildDuration: now.Sub(s.startedAt),
		StartedAt:     s.startedAt,
		SampledAt:     now,
	}

	cpuPercent, err := s.source.CPUPercent()
	if err != nil {
		s.logger.Warn("cpu sample failed", "error", err)
	}
	snap.CPUPercent = cpuPercent

	used, total, err := s.source.Memory()
	if err != nil {
		s.logger.Warn("memory sample failed", "error", err)
	}
	snap.MemUsedMB = float64(used) / bytesPerMB
	snap.MemTotalMB = float64(total) / bytesPerMB

	if celsius, ok := s.source.CPUTemperature(); ok {
		snap.CPUTempCelsius = &celsius
	}

	if percent, charging, ok := s.source.Battery(); ok {
		snap.BatteryPercent = &percent
		snap.BatteryCharging = &charging
	}

	return snap
}
