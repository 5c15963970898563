package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ConfigPaths defines the search locations for config files.
const (
	// GlobalConfigDir is the XDG config directory name
	GlobalConfigDir = "buildwatch"
	// GlobalConfigFile is the global config file name
	GlobalConfigFile = "config.yaml"
	// ProjectConfigDir is the project-local config directory
	ProjectConfigDir = ".buildwatch"
	// ProjectConfigFile is the project-local config file name
	ProjectConfigFile = "config.yaml"
)

// LoadConfig loads configuration from files and viper settings.
// Precedence (later overrides earlier):
//  1. Default() values
//  2. ~/.config/buildwatch/config.yaml (global)
//  3. .buildwatch/config.yaml (project)
//  4. --config or BUILDWATCH_CONFIG, which must exist
//  5. Environment variables (BUILDWATCH_*)
//  6. CLI flags (already bound to viper)
//
// A file that sets phases replaces the whole list.
func LoadConfig(v *viper.Viper) (*Config, error) {
	defaultMap, err := structToMap(Default())
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(defaultMap); err != nil {
		return nil, err
	}

	sources, err := configSources(v)
	if err != nil {
		return nil, err
	}
	for _, path := range sources {
		if err := loadConfigFile(v, path); err != nil {
			return nil, err
		}
	}

	// Decode into a zero Config: the defaults are already in v, and reused
	// phase elements would otherwise keep fields the file did not set.
	cfg := &Config{}
	if err := v.Unmarshal(cfg, viperDecodeHook()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Sources = sources
	return cfg, nil
}

// configSources lists the config files to merge, lowest precedence first.
func configSources(v *viper.Viper) ([]string, error) {
	var sources []string
	for _, path := range []string{globalConfigPath(), projectConfigPath()} {
		if path != "" {
			sources = append(sources, path)
		}
	}
	if explicit := v.GetString("config"); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		sources = append(sources, explicit)
	}
	return sources, nil
}

// globalConfigPath returns the global config file path if it exists.
func globalConfigPath() string {
	// Try XDG_CONFIG_HOME first
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		// Fall back to ~/.config
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}

	path := filepath.Join(configDir, GlobalConfigDir, GlobalConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// projectConfigPath returns the project config file path if it exists.
func projectConfigPath() string {
	path := filepath.Join(ProjectConfigDir, ProjectConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// loadConfigFile reads path as YAML, whatever its extension, and merges
// it into v.
func loadConfigFile(v *viper.Viper, path string) error {
	fileViper := viper.New()
	fileViper.SetConfigFile(path)
	fileViper.SetConfigType("yaml")
	if err := fileViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return v.MergeConfigMap(fileViper.AllSettings())
}

// viperDecodeHook returns the decoder config with the duration and phase
// hooks.
func viperDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		phaseHook(),
	))
}

// phaseHook accepts the short phase forms:
//
//	phases:
//	  - make                                  # name and command "make"
//	  - name: build
//	    command: [cmake, --build, out dir]    # argv, no shell splitting
func phaseHook() mapstructure.DecodeHookFuncType {
	phaseType := reflect.TypeOf(PhaseConfig{})
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != phaseType {
			return data, nil
		}
		switch entry := data.(type) {
		case string:
			return map[string]interface{}{"name": entry, "command": entry}, nil
		case map[string]interface{}:
			list, ok := entry["command"].([]interface{})
			if !ok {
				return data, nil
			}
			argv := make([]string, 0, len(list))
			for i, item := range list {
				switch item.(type) {
				case nil, []interface{}, map[string]interface{}:
					return nil, fmt.Errorf("phase %v: command[%d] must be a string, got %v", entry["name"], i, item)
				}
				argv = append(argv, fmt.Sprint(item))
			}
			decoded := make(map[string]interface{}, len(entry))
			for k, val := range entry {
				decoded[k] = val
			}
			delete(decoded, "command")
			decoded["exec"] = argv
			return decoded, nil
		}
		return data, nil
	}
}

// structToMap converts a struct to a map for viper.MergeConfigMap.
func structToMap(cfg *Config) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &result,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationToStringHook(),
		),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	return result, nil
}

// durationToStringHook converts time.Duration to string for YAML compatibility.
func durationToStringHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if from != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return data.(time.Duration).String(), nil
	}
}
