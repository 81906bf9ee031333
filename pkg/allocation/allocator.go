package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"go.uber.org/zap"
)

// Allocator places residents into free beds. Every input resident appears exactly once in the
// returned outcomes; infeasibility is reported per resident, never as an error.
//
// Allocate returns an error only when the oracle fails (the whole run is aborted and no outcomes are
// returned) or when ctx is cancelled (the outcomes produced so far are returned together with an
// error wrapping ctx.Err()).
type Allocator interface {
	Metadata() Metadata

	Allocate(
		ctx context.Context,
		modelInput model.ModelInput,
		sink ProgressSink,
	) ([]model.AllocationOutcome, error)

	Verify(
		outcomes []model.AllocationOutcome,
		modelInput model.ModelInput,
	) bool
}

const (
	ReasonNoEligibleBed  = "no eligible bed (possible hard-conflict exclusion for all rooms)"
	ReasonNoAvailableBed = "no available bed or all beds conflict"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

type Option func(*options)

type options struct {
	logger          *zap.Logger
	seed            *int64
	annealingParams AnnealingParams
	epochObserver   func(EpochStats)
}

func newOptions(opts []Option) options {
	o := options{
		logger:          zap.NewNop(),
		annealingParams: DefaultAnnealingParams,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSeed makes the annealing acceptance draws reproducible. Without it every run is seeded from the clock.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

func WithAnnealingParams(params AnnealingParams) Option {
	return func(o *options) {
		o.annealingParams = params
	}
}

// WithEpochObserver is called once per annealing epoch after cooling
func WithEpochObserver(observer func(EpochStats)) Option {
	return func(o *options) {
		o.epochObserver = observer
	}
}

type allocatorBase struct {
	oracle   compatibility.Oracle
	options  options
	metadata Metadata
}

func (allocator *allocatorBase) Metadata() Metadata {
	return allocator.metadata
}

func (allocator *allocatorBase) Verify(outcomes []model.AllocationOutcome, modelInput model.ModelInput) bool {
	return model.Verify(outcomes, modelInput)
}

func (allocator *allocatorBase) logStart(modelInput model.ModelInput) {
	allocator.options.logger.Info("allocation started",
		zap.String("algorithm", allocator.metadata.Id),
		zap.Int("residents", len(modelInput.Residents)),
		zap.Int("rooms", len(modelInput.RoomIds())),
		zap.Int("free_beds", modelInput.FreeBeds()),
	)
}

func (allocator *allocatorBase) logFinish(progress *progressCounter) {
	allocator.options.logger.Info("allocation finished",
		zap.String("algorithm", allocator.metadata.Id),
		zap.Int("succeeded", progress.succeeded),
		zap.Int("failed", progress.failed),
	)
}

// Every input resident fails with the same reason; used when there is not a single free bed
func allFailed(residents []model.Resident, reason string, progress *progressCounter) []model.AllocationOutcome {
	outcomes := make([]model.AllocationOutcome, 0, len(residents))
	for _, resident := range residents {
		outcomes = append(outcomes, model.FailedOutcome(resident, reason))
	}
	progress.processed, progress.failed = len(residents), len(residents)
	progress.report("no free beds available")
	return outcomes
}

func cancelled(ctx context.Context, processed, total int) error {
	return fmt.Errorf("allocation cancelled after %d of %d residents: %w", processed, total, ctx.Err())
}

// IsCancellation reports whether err stems from a cancelled or expired context
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
