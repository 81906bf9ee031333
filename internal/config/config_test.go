package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	//** Act
	cfg, err := Load("")

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, allocation.DefaultAnnealingParams, cfg.Annealing.Params())
}

func TestLoadFile(t *testing.T) {
	//** Arrange
	path := writeConfig(t, `
log:
  level: debug
  format: json
task:
  progress_rate: 5
annealing:
  cooling_rate: 0.9
  seed: 42
allocation:
  same_gender_required: false
  max_sleep_schedule_gap: 2
  weights:
    noise: 5
`)

	//** Act
	cfg, err := Load(path)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5.0, cfg.Task.ProgressRate)
	assert.Equal(t, 1, cfg.Task.ProgressBurst)
	assert.Equal(t, 0.9, cfg.Annealing.CoolingRate)
	assert.Equal(t, 1000.0, cfg.Annealing.InitialTemperature)
	assert.Equal(t, int64(42), cfg.Annealing.Seed)
	assert.False(t, cfg.Allocation.SameGenderRequired)
	assert.True(t, cfg.Allocation.SmokingHardRule)
	assert.Equal(t, 2, cfg.Allocation.MaxSleepScheduleGap)
	assert.Equal(t, 5.0, cfg.Allocation.Weights[model.WeightNoise])
	assert.Equal(t, 3.0, cfg.Allocation.Weights[model.WeightSleepSchedule])
}

func TestLoadEnvironmentOverride(t *testing.T) {
	//** Arrange
	path := writeConfig(t, "log:\n  level: debug\n")
	t.Setenv("ALLOCATION_LOG_LEVEL", "warn")
	t.Setenv("ALLOCATION_ANNEALING_TRIALS_PER_EPOCH", "10")
	t.Setenv("ALLOCATION_METRICS_TEXTFILE", "/tmp/allocation.prom")
	t.Setenv("ALLOCATION_ALLOCATION_WEIGHTS_SLEEP_SCHEDULE", "4.5")

	//** Act
	cfg, err := Load(path)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Annealing.TrialsPerEpoch)
	assert.Equal(t, "/tmp/allocation.prom", cfg.Metrics.Textfile)
	assert.Equal(t, 4.5, cfg.Allocation.Weights[model.WeightSleepSchedule])
	assert.Equal(t, 2.0, cfg.Allocation.Weights[model.WeightNoise])
}

func TestLoadErrors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("Invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "annealing:\n  cooling_rate: 1.5\n"))
		assert.ErrorContains(t, err, "cooling rate")
	})
}

func TestValidate(t *testing.T) {
	//** Arrange
	cfg := Default()
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"
	cfg.Task.ProgressRate = 0
	cfg.Task.ProgressBurst = 0
	cfg.Allocation.ProblemThreshold = 120
	cfg.Allocation.Weights[model.WeightEating] = -1

	//** Act
	err := cfg.Validate()

	//** Assert
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)

	valid := Default()
	assert.NoError(t, valid.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", envKey("ALLOCATION_LOG_LEVEL"))
	assert.Equal(t, "allocation.same_gender_required", envKey("ALLOCATION_ALLOCATION_SAME_GENDER_REQUIRED"))
	assert.Equal(t, "metrics", envKey("ALLOCATION_METRICS"))
	assert.Equal(t, "allocation.weights.sleep_schedule", envKey("ALLOCATION_ALLOCATION_WEIGHTS_SLEEP_SCHEDULE"))
	assert.Equal(t, "annealing.weights_sleep", envKey("ALLOCATION_ANNEALING_WEIGHTS_SLEEP"))
}
