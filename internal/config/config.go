// Package config loads the allocation tool settings from defaults, an optional YAML file and
// ALLOCATION_ prefixed environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/model"
	"go.uber.org/multierr"
)

const EnvPrefix = "ALLOCATION_"

const (
	allocationSection = "allocation"
	weightsField      = "weights"
)

type Config struct {
	Log        LogConfig              `koanf:"log"`
	Task       TaskConfig             `koanf:"task"`
	Annealing  AnnealingConfig        `koanf:"annealing"`
	Metrics    MetricsConfig          `koanf:"metrics"`
	Allocation model.AllocationConfig `koanf:"allocation"` // Defaults for the config section of input files
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TaskConfig bounds how often progress is written to the log
type TaskConfig struct {
	ProgressRate  float64 `koanf:"progress_rate"` // Log lines per second
	ProgressBurst int     `koanf:"progress_burst"`
}

type AnnealingConfig struct {
	InitialTemperature float64 `koanf:"initial_temperature"`
	CoolingRate        float64 `koanf:"cooling_rate"`
	MinTemperature     float64 `koanf:"min_temperature"`
	TrialsPerEpoch     int     `koanf:"trials_per_epoch"`
	ProgressInterval   int     `koanf:"progress_interval"`
	Seed               int64   `koanf:"seed"` // 0 seeds every run from the clock
}

func (annealing AnnealingConfig) Params() allocation.AnnealingParams {
	return allocation.AnnealingParams{
		InitialTemperature: annealing.InitialTemperature,
		CoolingRate:        annealing.CoolingRate,
		MinTemperature:     annealing.MinTemperature,
		TrialsPerEpoch:     annealing.TrialsPerEpoch,
		ProgressInterval:   annealing.ProgressInterval,
	}
}

type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Textfile string `koanf:"textfile"` // Prometheus text file written after every run; empty disables it
}

func Default() Config {
	params := allocation.DefaultAnnealingParams
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Task: TaskConfig{
			ProgressRate:  2,
			ProgressBurst: 1,
		},
		Annealing: AnnealingConfig{
			InitialTemperature: params.InitialTemperature,
			CoolingRate:        params.CoolingRate,
			MinTemperature:     params.MinTemperature,
			TrialsPerEpoch:     params.TrialsPerEpoch,
			ProgressInterval:   params.ProgressInterval,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Allocation: model.DefaultConfig(),
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies environment overrides and
// validates the result.
//
// Environment variables drop the prefix, are lowercased and split on the first underscore:
//
//	ALLOCATION_LOG_LEVEL -> log.level
//	ALLOCATION_ANNEALING_COOLING_RATE -> annealing.cooling_rate
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("cannot load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps ALLOCATION_SECTION_FIELD to section.field. Weight names contain underscores themselves,
// so ALLOCATION_ALLOCATION_WEIGHTS_SLEEP_SCHEDULE maps to allocation.weights.sleep_schedule.
func envKey(variable string) string {
	key := strings.ToLower(strings.TrimPrefix(variable, EnvPrefix))
	section, field, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	if weight, ok := strings.CutPrefix(field, weightsField+"_"); ok && section == allocationSection {
		return section + "." + weightsField + "." + weight
	}
	return section + "." + field
}

// Validate reports every invalid setting at once
func (cfg *Config) Validate() error {
	var err error

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.Log.Level) {
		err = multierr.Append(err, fmt.Errorf("unknown log level %q", cfg.Log.Level))
	}
	if !slices.Contains([]string{"json", "console"}, cfg.Log.Format) {
		err = multierr.Append(err, fmt.Errorf("unknown log format %q", cfg.Log.Format))
	}

	if cfg.Task.ProgressRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("progress rate must be positive: %v", cfg.Task.ProgressRate))
	}
	if cfg.Task.ProgressBurst < 1 {
		err = multierr.Append(err, fmt.Errorf("progress burst must be at least 1: %v", cfg.Task.ProgressBurst))
	}

	if paramsErr := cfg.Annealing.Params().Validate(); paramsErr != nil {
		err = multierr.Append(err, paramsErr)
	}

	if cfg.Allocation.MaxSleepScheduleGap < 0 {
		err = multierr.Append(err, fmt.Errorf("max sleep schedule gap cannot be negative: %v", cfg.Allocation.MaxSleepScheduleGap))
	}
	if cfg.Allocation.EmptyRoomScore < 0 || cfg.Allocation.EmptyRoomScore > 100 {
		err = multierr.Append(err, fmt.Errorf("empty room score must be between 0 and 100: %v", cfg.Allocation.EmptyRoomScore))
	}
	if cfg.Allocation.ProblemThreshold < 0 || cfg.Allocation.ProblemThreshold > 100 {
		err = multierr.Append(err, fmt.Errorf("problem threshold must be between 0 and 100: %v", cfg.Allocation.ProblemThreshold))
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Allocation.Weights)) {
		if cfg.Allocation.Weights[name] < 0 {
			err = multierr.Append(err, fmt.Errorf("weight %q cannot be negative: %v", name, cfg.Allocation.Weights[name]))
		}
	}

	return err
}
