package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/limaJavier/allocation/internal/logging"
	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/limaJavier/allocation/pkg/report"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultInputDirectory = "../../test/inputs/"
	defaultOutput         = "benchmark_results.csv"
	MB                    = 1024 * 1024
)

type InputMetadata struct {
	Name      string
	Residents int
	Rooms     int
	FreeBeds  int
	Occupants int
}

type BenchmarkResult struct {
	Algorithm    string
	Input        InputMetadata
	Duration     int64 // Milliseconds
	Memory       float32
	Placed       int
	Failed       int
	AverageScore float64
	Problems     int
	Valid        bool
}

func main() {
	var directory, output string
	var seed int64

	rootCmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run every allocation algorithm over every input file of a directory and write a CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.NewLogger("info", "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			inputs, err := getInputs(directory)
			if err != nil {
				return err
			}

			results := make([]BenchmarkResult, 0, len(inputs)*len(allocation.AlgorithmIds()))
			for _, input := range inputs {
				for _, algorithm := range allocation.AlgorithmIds() {
					logger.Info("benchmarking", zap.String("input", input.metadata.Name), zap.String("algorithm", algorithm))

					result, err := measure(cmd.Context(), algorithm, input, seed)
					if err != nil {
						return fmt.Errorf("benchmark of %q with %q failed: %w", input.metadata.Name, algorithm, err)
					}
					results = append(results, result)
				}
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("cannot create CSV file: %w", err)
			}
			defer file.Close()
			if err := toCsv(file, results); err != nil {
				return err
			}
			return file.Close()
		},
	}
	rootCmd.Flags().StringVar(&directory, "dir", defaultInputDirectory, "Directory containing input files")
	rootCmd.Flags().StringVar(&output, "out", defaultOutput, "Path to the CSV file")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "Seed for the annealing random source")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type benchmarkInput struct {
	metadata InputMetadata
	input    model.ModelInput
}

func getInputs(directory string) ([]benchmarkInput, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}

	inputs := make([]benchmarkInput, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		filename := filepath.Join(directory, entry.Name())
		input, err := model.InputFromJson(filename)
		if err != nil {
			return nil, fmt.Errorf("cannot parse input file %s: %w", filename, err)
		}

		inputs = append(inputs, benchmarkInput{
			metadata: InputMetadata{
				Name:      filename,
				Residents: len(input.Residents),
				Rooms:     len(input.RoomIds()),
				FreeBeds:  input.FreeBeds(),
				Occupants: lo.SumBy(lo.Values(input.Occupants), func(occupants []model.Resident) int { return len(occupants) }),
			},
			input: input,
		})
	}

	slices.SortFunc(inputs, func(a, b benchmarkInput) int { return strings.Compare(a.metadata.Name, b.metadata.Name) })
	return inputs, nil
}

func measure(ctx context.Context, algorithm string, input benchmarkInput, seed int64) (BenchmarkResult, error) {
	allocator, err := allocation.NewAllocator(algorithm, compatibility.NewStandardOracle(), allocation.WithSeed(seed))
	if err != nil {
		return BenchmarkResult{}, err
	}

	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	outcomes, err := allocator.Allocate(ctx, input.input, nil)
	if err != nil {
		return BenchmarkResult{}, err
	}

	duration := time.Since(start)
	runtime.ReadMemStats(&after)

	summary := report.Summarize(outcomes, input.input.Config.ProblemThreshold)
	return BenchmarkResult{
		Algorithm:    algorithm,
		Input:        input.metadata,
		Duration:     duration.Milliseconds(),
		Memory:       float32(after.TotalAlloc-before.TotalAlloc) / MB,
		Placed:       summary.Succeeded,
		Failed:       summary.Failed,
		AverageScore: summary.AverageScore,
		Problems:     summary.Problems,
		Valid:        allocator.Verify(outcomes, input.input),
	}, nil
}

func toCsv(w io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(w)

	header := []string{"Algorithm", "Input", "Residents", "Rooms", "FreeBeds", "Occupants", "Duration(ms)", "Allocated(MB)", "Placed", "Failed", "AverageScore", "Problems", "Valid"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Algorithm,
			result.Input.Name,
			fmt.Sprintf("%d", result.Input.Residents),
			fmt.Sprintf("%d", result.Input.Rooms),
			fmt.Sprintf("%d", result.Input.FreeBeds),
			fmt.Sprintf("%d", result.Input.Occupants),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.Placed),
			fmt.Sprintf("%d", result.Failed),
			fmt.Sprintf("%.2f", result.AverageScore),
			fmt.Sprintf("%d", result.Problems),
			fmt.Sprintf("%v", result.Valid),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
