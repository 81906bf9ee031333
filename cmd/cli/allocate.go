package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/limaJavier/allocation/internal/task"
	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/limaJavier/allocation/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type allocateFlags struct {
	file      string
	algorithm string
	out       string
	seed      int64

	minScore     float64
	maxScore     float64
	problemsOnly bool
	room         string
	resident     string
}

// query turns the result flags into a report query; unset score bounds do not filter
func (flags *allocateFlags) query(cmd *cobra.Command, problemThreshold float64) report.Query {
	query := report.Query{
		ProblemOnly:      flags.problemsOnly,
		ProblemThreshold: problemThreshold,
		RoomCode:         flags.room,
		ResidentNo:       flags.resident,
	}
	if cmd.Flags().Changed("min-score") {
		query.MinScore = lo.ToPtr(flags.minScore)
	}
	if cmd.Flags().Changed("max-score") {
		query.MaxScore = lo.ToPtr(flags.maxScore)
	}
	return query
}

func newAllocateCmd(s *settings) *cobra.Command {
	flags := &allocateFlags{}

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Run an allocation over an input file",
		Long: fmt.Sprintf(`Run an allocation over an input file and write one outcome per resident.

Allowed algorithms are %v, where %q is the default.
Outcomes are written as JSON to standard output unless --out is given; a path
ending in .xlsx produces a spreadsheet. Ctrl-C cancels the run cooperatively.
The result flags narrow the written outcomes; the summary always covers every resident.

Exit codes: 0 success, 1 error, 2 run cancelled.

Examples:
  allocation allocate --file residents.json
  allocation allocate --file residents.json --algorithm annealing --seed 7 --out result.xlsx
  allocation allocate --file residents.json --problems-only --room R0101`,
			allocation.AlgorithmIds(), allocation.DefaultAlgorithm()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAllocate(cmd, s, flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Path to the input file")
	cmd.Flags().StringVar(&flags.algorithm, "algorithm", allocation.DefaultAlgorithm(), "Allocation algorithm")
	cmd.Flags().StringVar(&flags.out, "out", "", "Path to the output file (.json or .xlsx); empty writes JSON to standard output")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Seed for the annealing random source; overrides annealing.seed")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Only write outcomes scoring at least this much")
	cmd.Flags().Float64Var(&flags.maxScore, "max-score", 0, "Only write outcomes scoring at most this much")
	cmd.Flags().BoolVar(&flags.problemsOnly, "problems-only", false, "Only write placements below the problem threshold")
	cmd.Flags().StringVar(&flags.room, "room", "", "Only write outcomes placed in this room code")
	cmd.Flags().StringVar(&flags.resident, "resident", "", "Only write outcomes whose resident number contains this text")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAllocate(cmd *cobra.Command, s *settings, flags *allocateFlags) error {
	cfg, logger, err := s.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	input, err := model.InputFromJsonWithDefaults(flags.file, cfg.Allocation)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}

	//** Build allocator
	opts := []allocation.Option{
		allocation.WithLogger(logger.Named("allocation")),
		allocation.WithAnnealingParams(cfg.Annealing.Params()),
	}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, allocation.WithSeed(flags.seed))
	} else if cfg.Annealing.Seed != 0 {
		opts = append(opts, allocation.WithSeed(cfg.Annealing.Seed))
	}
	allocator, err := allocation.NewAllocator(strings.ToLower(flags.algorithm), compatibility.NewStandardOracle(), opts...)
	if err != nil {
		return err
	}

	//** Run through the task manager
	registry := prometheus.NewRegistry()
	var metrics *task.Metrics
	if cfg.Metrics.Enabled {
		metrics = task.NewMetrics(registry)
	}
	manager := task.NewManager(logger, metrics, task.WithProgressRate(cfg.Task.ProgressRate, cfg.Task.ProgressBurst))
	defer manager.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := manager.Submit(context.Background(), allocator, input)
	if err != nil {
		return err
	}
	snapshot, err := manager.Wait(ctx, id)
	if err != nil {
		logger.Warn("interrupted, cancelling allocation", zap.Stringer("task_id", id))
		if err := manager.Cancel(id); err != nil && !errors.Is(err, task.ErrTaskFinished) {
			return err
		}
		if snapshot, err = manager.Wait(context.Background(), id); err != nil {
			return err
		}
	}

	if snapshot.Status == task.StatusFailed {
		return fmt.Errorf("allocation failed: %s", snapshot.Error)
	}
	outcomes, err := manager.Results(id)
	if err != nil {
		return err
	}
	if snapshot.Status == task.StatusCompleted && !allocator.Verify(outcomes, input) {
		return errors.New("allocation produced an inconsistent result")
	}

	//** Write results
	selected := report.Filter(outcomes, flags.query(cmd, input.Config.ProblemThreshold))
	if err := writeOutcomes(cmd.OutOrStdout(), flags.out, selected, input.Config.ProblemThreshold); err != nil {
		return err
	}
	printSummary(cmd.ErrOrStderr(), snapshot, report.Summarize(outcomes, input.Config.ProblemThreshold))
	if len(selected) != len(outcomes) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Written: %v of %v outcomes match the result filters\n", len(selected), len(outcomes))
	}

	if metrics != nil && cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, registry); err != nil {
			return fmt.Errorf("cannot write metrics: %w", err)
		}
	}

	if snapshot.Status == task.StatusCancelled {
		return errCancelled
	}
	return nil
}

func writeOutcomes(stdout io.Writer, out string, outcomes []model.AllocationOutcome, problemThreshold float64) error {
	if out == "" {
		return report.WriteJson(stdout, outcomes)
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		err = report.WriteXlsx(file, outcomes, problemThreshold)
	} else {
		err = report.WriteJson(file, outcomes)
	}
	if err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}
	return file.Close()
}

func printSummary(w io.Writer, snapshot task.Snapshot, summary report.Summary) {
	fmt.Fprintf(w, "Task: %v (%v, %v)\n", snapshot.Id, snapshot.Algorithm, snapshot.Status)
	fmt.Fprintf(w, "Placed: %v of %v\n", summary.Succeeded, summary.Total)
	fmt.Fprintf(w, "Failed: %v\n", summary.Failed)
	fmt.Fprintf(w, "Average score: %.2f (min %.2f, max %.2f)\n", summary.AverageScore, summary.MinScore, summary.MaxScore)
	fmt.Fprintf(w, "Problem placements: %v\n", summary.Problems)
}
