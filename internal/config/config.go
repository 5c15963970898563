// Package config provides configuration types and defaults for buildwatch.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/shlex"

	"github.com/npratt/buildwatch/internal/build"
	"github.com/npratt/buildwatch/internal/buildlog"
)

// DebugLogFile is the debug log name used when Paths.DebugLog is unset.
const DebugLogFile = "buildwatch-debug.log"

// Config holds all configuration for buildwatch.
type Config struct {
	Phases         []PhaseConfig     `yaml:"phases" mapstructure:"phases"`
	Timing         TimingConfig      `yaml:"timing" mapstructure:"timing"`
	Paths          PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation    LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	NoExitKeypress bool              `yaml:"no_exit_keypress" mapstructure:"no_exit_keypress"`
	Verbose        bool              `yaml:"verbose" mapstructure:"verbose"`

	// Sources lists the config files LoadConfig merged, lowest precedence
	// first.
	Sources []string `yaml:"-" mapstructure:"-"`
}

// PhaseConfig is one build phase. Command is split into argv with shell
// quoting rules; it is never run through a shell. Exec gives argv
// directly and is what a list-valued command decodes into.
type PhaseConfig struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Command string   `yaml:"command" mapstructure:"command"`
	Exec    []string `yaml:"exec" mapstructure:"exec"`
}

// TimingConfig holds the dashboard cadences.
type TimingConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`           // Max wait on a running phase per update
	SpinnerInterval   time.Duration `yaml:"spinner_interval" mapstructure:"spinner_interval"`     // Spinner glyph period
	TelemetryInterval time.Duration `yaml:"telemetry_interval" mapstructure:"telemetry_interval"` // Minimum gap between telemetry samples
}

// PathsConfig holds output file paths.
type PathsConfig struct {
	BuildLog string `yaml:"build_log" mapstructure:"build_log"`
	DebugLog string `yaml:"debug_log" mapstructure:"debug_log"` // Empty means next to the build log
}

// LogRotationConfig holds settings for log file rotation.
// Used for the debug log only; the build log is rewritten on every run.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config that runs "make clean" then "make".
func Default() *Config {
	return &Config{
		Phases: []PhaseConfig{
			{Name: "clean", Command: "make clean"},
			{Name: "build", Command: "make"},
		},
		Timing: TimingConfig{
			PollInterval:      10 * time.Millisecond,
			SpinnerInterval:   100 * time.Millisecond,
			TelemetryInterval: 500 * time.Millisecond,
		},
		Paths: PathsConfig{
			BuildLog: buildlog.DefaultPath,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Argv returns the program and arguments of the phase.
func (p PhaseConfig) Argv() ([]string, error) {
	if len(p.Exec) > 0 {
		if p.Command != "" {
			return nil, fmt.Errorf("phase %q: set either command or exec, not both", p.Name)
		}
		if p.Exec[0] == "" {
			return nil, fmt.Errorf("phase %q: empty program name", p.Name)
		}
		return append([]string(nil), p.Exec...), nil
	}
	argv, err := shlex.Split(p.Command)
	if err != nil {
		return nil, fmt.Errorf("phase %q: parse command: %w", p.Name, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("phase %q: empty command", p.Name)
	}
	return argv, nil
}

// BuildPhases converts the configured phases into build phases.
func (c *Config) BuildPhases() ([]build.Phase, error) {
	if len(c.Phases) == 0 {
		return nil, fmt.Errorf("no build phases configured")
	}

	phases := make([]build.Phase, 0, len(c.Phases))
	for i, pc := range c.Phases {
		if pc.Name == "" {
			return nil, fmt.Errorf("phase %d: missing name", i)
		}
		argv, err := pc.Argv()
		if err != nil {
			return nil, err
		}
		phases = append(phases, build.Phase{Name: pc.Name, Argv: argv})
	}
	return phases, nil
}

// DebugLogPath returns the debug log location.
func (c *Config) DebugLogPath() string {
	if c.Paths.DebugLog != "" {
		return c.Paths.DebugLog
	}
	return filepath.Join(filepath.Dir(c.Paths.BuildLog), DebugLogFile)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Paths.BuildLog == "" {
		return fmt.Errorf("paths.build_log must be set")
	}
	timings := []struct {
		name  string
		value time.Duration
	}{
		{"timing.poll_interval", c.Timing.PollInterval},
		{"timing.spinner_interval", c.Timing.SpinnerInterval},
		{"timing.telemetry_interval", c.Timing.TelemetryInterval},
	}
	for _, tm := range timings {
		if tm.value < 0 {
			return fmt.Errorf("%s must not be negative, got %v", tm.name, tm.value)
		}
	}
	_, err := c.BuildPhases()
	return err
}
