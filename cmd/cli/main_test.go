package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const cliInput = `{
	"residents": [
		{"id": 1, "residentNo": "2024001", "name": "Ana", "gender": 1, "lifestyle": {"sleepSchedule": 1, "cleanlinessLevel": 4}},
		{"id": 2, "residentNo": "2024002", "name": "Bea", "gender": 1, "lifestyle": {"sleepSchedule": 1, "cleanlinessLevel": 3}},
		{"id": 3, "residentNo": "2024003", "name": "Cleo", "gender": 1, "lifestyle": {"sleepSchedule": 2}}
	],
	"rooms": [
		{"id": 10, "code": "R0101", "floorId": 1, "floorCode": "F1", "beds": [{"id": 100}, {"id": 101}]},
		{"id": 20, "code": "R0201", "floorId": 2, "floorCode": "F2", "beds": [{"id": 200}, {"id": 201}]}
	]
}`

// writeFixtures writes the input file and a quiet config file, returning their paths
func writeFixtures(t *testing.T, extraConfig string) (inputPath, configPath string) {
	dir := t.TempDir()
	inputPath = filepath.Join(dir, "input.json")
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(inputPath, []byte(cliInput), 0600))
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"+extraConfig), 0600))
	return inputPath, configPath
}

func execute(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAllocateWritesJson(t *testing.T) {
	//** Arrange
	inputPath, configPath := writeFixtures(t, "")

	//** Act
	stdout, stderr, err := execute("allocate", "--config", configPath, "--file", inputPath, "--algorithm", "greedy")

	//** Assert
	require.NoError(t, err)
	var outcomes []model.AllocationOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcomes))
	require.Len(t, outcomes, 3)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Success)
	}
	assert.Contains(t, stderr, "Placed: 3 of 3")
	assert.Contains(t, stderr, "greedy, completed")
}

func TestAllocateFiltersWrittenOutcomes(t *testing.T) {
	//** Arrange
	inputPath, configPath := writeFixtures(t, "")

	//** Act
	stdout, stderr, err := execute("allocate", "--config", configPath, "--file", inputPath, "--algorithm", "greedy", "--resident", "4002")

	//** Assert
	require.NoError(t, err)
	var outcomes []model.AllocationOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcomes))
	require.Len(t, outcomes, 1)
	assert.Equal(t, "2024002", outcomes[0].ResidentNo)
	assert.Contains(t, stderr, "Placed: 3 of 3")
	assert.Contains(t, stderr, "Written: 1 of 3 outcomes")

	stdout, _, err = execute("allocate", "--config", configPath, "--file", inputPath, "--algorithm", "greedy", "--min-score", "101")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcomes))
	assert.Empty(t, outcomes)
}

func TestAllocateWritesXlsxAndMetrics(t *testing.T) {
	//** Arrange
	metricsPath := filepath.Join(t.TempDir(), "allocation.prom")
	inputPath, configPath := writeFixtures(t, "annealing:\n  initial_temperature: 10\n  cooling_rate: 0.5\nmetrics:\n  textfile: "+metricsPath+"\n")
	outPath := filepath.Join(t.TempDir(), "result.xlsx")

	//** Act
	stdout, _, err := execute("allocate", "--config", configPath, "--file", inputPath, "--algorithm", "annealing", "--seed", "3", "--out", outPath)

	//** Assert
	require.NoError(t, err)
	assert.Empty(t, stdout)

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Allocation")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `allocation_runs_total{algorithm="annealing",status="completed"} 1`)
}

func TestAllocateRejectsUnknownAlgorithm(t *testing.T) {
	inputPath, configPath := writeFixtures(t, "")

	_, _, err := execute("allocate", "--config", configPath, "--file", inputPath, "--algorithm", "genetic")

	assert.ErrorIs(t, err, allocation.ErrUnknownAlgorithm)
}

func TestAllocateRequiresFile(t *testing.T) {
	_, configPath := writeFixtures(t, "")

	_, _, err := execute("allocate", "--config", configPath)

	assert.Error(t, err)
}

func TestAlgorithms(t *testing.T) {
	//** Act
	stdout, _, err := execute("algorithms")

	//** Assert
	require.NoError(t, err)
	for _, id := range allocation.AlgorithmIds() {
		assert.Contains(t, stdout, id)
	}
	assert.Contains(t, stdout, "yes")
	assert.Contains(t, stdout, "ESTIMATED TIME (1000 RESIDENTS)")
	assert.Contains(t, stdout, "about 2-5 seconds")
	assert.Contains(t, stdout, "Escapes local optima")
	assert.Contains(t, stdout, "Slow; meant for runs")
}

func TestAlgorithmsEstimateForResidents(t *testing.T) {
	//** Act
	stdout, _, err := execute("algorithms", "--residents", "3000")

	//** Assert
	require.NoError(t, err)
	assert.Contains(t, stdout, "about 10-20 seconds")
	assert.Contains(t, stdout, "about 30-60 seconds")
	assert.Contains(t, stdout, "about 5-10 minutes")

	_, _, err = execute("algorithms", "--residents", "-1")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	//** Arrange
	inputPath, configPath := writeFixtures(t, "")

	//** Act
	stdout, _, err := execute("preview", "--config", configPath, "--file", inputPath)

	//** Assert
	require.NoError(t, err)
	var preview allocation.PreviewResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &preview))
	assert.Equal(t, 3, preview.Residents)
	assert.Equal(t, 2, preview.Rooms)
	assert.Equal(t, 4, preview.FreeBeds)
	assert.Equal(t, 0, preview.Shortfall)
	assert.Equal(t, 3, preview.UpperBound)
	assert.Len(t, preview.Estimates, 3)
}
