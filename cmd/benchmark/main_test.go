package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchmarkInputJson = `{
	"residents": [
		{"id": 1, "name": "Ana", "gender": 2},
		{"id": 2, "name": "Bea", "gender": 2}
	],
	"rooms": [
		{"id": 10, "code": "R0101", "beds": [{"id": 100}], "occupants": [{"id": 9, "name": "Cleo", "gender": 2}]},
		{"id": 20, "code": "R0201", "beds": [{"id": 200}, {"id": 201}]}
	]
}`

func writeInputs(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(benchmarkInputJson), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(benchmarkInputJson), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	return dir
}

func TestGetInputs(t *testing.T) {
	//** Arrange
	dir := writeInputs(t)

	//** Act
	inputs, err := getInputs(dir)

	//** Assert
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, filepath.Join(dir, "a.json"), inputs[0].metadata.Name)
	assert.Equal(t, InputMetadata{Name: filepath.Join(dir, "b.json"), Residents: 2, Rooms: 2, FreeBeds: 3, Occupants: 1}, inputs[1].metadata)

	_, err = getInputs(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestMeasureAndCsv(t *testing.T) {
	//** Arrange
	inputs, err := getInputs(writeInputs(t))
	require.NoError(t, err)

	//** Act
	results := make([]BenchmarkResult, 0)
	for _, algorithm := range allocation.AlgorithmIds() {
		result, err := measure(context.Background(), algorithm, inputs[0], 1)
		require.NoError(t, err)
		results = append(results, result)
	}
	var buffer bytes.Buffer
	require.NoError(t, toCsv(&buffer, results))

	//** Assert
	for _, result := range results {
		assert.Equal(t, 2, result.Placed, result.Algorithm)
		assert.True(t, result.Valid, result.Algorithm)
	}

	records, err := csv.NewReader(&buffer).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Algorithm", records[0][0])
	assert.Equal(t, allocation.AlgorithmIds(), []string{records[1][0], records[2][0], records[3][0]})
	assert.Equal(t, "true", records[1][12])
}

func TestMeasureUnknownAlgorithm(t *testing.T) {
	inputs, err := getInputs(writeInputs(t))
	require.NoError(t, err)

	_, err = measure(context.Background(), "genetic", inputs[0], 1)

	assert.ErrorIs(t, err, allocation.ErrUnknownAlgorithm)
}

func TestDefaultInputsAreValid(t *testing.T) {
	//** Act
	inputs, err := getInputs(defaultInputDirectory)

	//** Assert
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	for _, input := range inputs {
		assert.Positive(t, input.metadata.Residents, input.metadata.Name)
		assert.Positive(t, input.metadata.FreeBeds, input.metadata.Name)
	}

	result, err := measure(context.Background(), allocation.GreedyId, inputs[1], 1)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, result.Input.Residents, result.Placed+result.Failed)
}
