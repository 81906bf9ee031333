package allocation

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
)

const greedyProgressInterval = 100

type greedyAllocator struct {
	allocatorBase
}

func NewGreedyAllocator(oracle compatibility.Oracle, opts ...Option) Allocator {
	return &greedyAllocator{
		allocatorBase: allocatorBase{
			oracle:   oracle,
			options:  newOptions(opts),
			metadata: greedyMetadata,
		},
	}
}

// Allocate processes residents by descending distinctiveness (stable, so equal scores keep input order)
// and returns outcomes in that same order
func (allocator *greedyAllocator) Allocate(ctx context.Context, modelInput model.ModelInput, sink ProgressSink) ([]model.AllocationOutcome, error) {
	progress := newProgressCounter(sink, len(modelInput.Residents))
	if len(modelInput.Residents) == 0 {
		progress.report("no residents to allocate")
		return []model.AllocationOutcome{}, nil
	}

	allocator.logStart(modelInput)
	ws := newWorkspace(modelInput, allocator.oracle)
	if ws.freeBedCount() == 0 {
		return allFailed(modelInput.Residents, ReasonNoEligibleBed, progress), nil
	}

	progress.report(fmt.Sprintf("allocating %d residents greedily", progress.total))

	outcomes := make([]model.AllocationOutcome, 0, len(modelInput.Residents))
	for _, resident := range sortByDistinctiveness(modelInput.Residents) {
		if ctx.Err() != nil {
			model.FillRoommates(outcomes, modelInput.Occupants)
			return outcomes, cancelled(ctx, progress.processed, progress.total)
		}

		outcome, err := placeResident(ws, resident, nil)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)

		progress.processed++
		if outcome.Success {
			progress.succeeded++
		} else {
			progress.failed++
		}
		if progress.processed%greedyProgressInterval == 0 {
			progress.report(fmt.Sprintf("allocated %d of %d residents", progress.processed, progress.total))
		}
	}

	model.FillRoommates(outcomes, modelInput.Occupants)
	progress.report("allocation finished")
	allocator.logFinish(progress)
	return outcomes, nil
}

// placeResident commits the resident to the best eligible room of the workspace, if any
func placeResident(ws *workspace, resident model.Resident, bonus func(occupants []model.Resident) float64) (model.AllocationOutcome, error) {
	room, match, found, err := ws.bestRoom(resident, bonus)
	if err != nil {
		return model.AllocationOutcome{}, err
	} else if !found {
		return model.FailedOutcome(resident, ReasonNoEligibleBed), nil
	}

	bed := ws.commit(resident, room)
	return model.PlacedOutcome(resident, bed, match), nil
}

func sortByDistinctiveness(residents []model.Resident) []model.Resident {
	sorted := slices.Clone(residents)
	slices.SortStableFunc(sorted, func(a, b model.Resident) int {
		return cmp.Compare(distinctiveness(b), distinctiveness(a))
	})
	return sorted
}

// Residents with strong habits are harder to place, so they are scheduled first
func distinctiveness(resident model.Resident) int {
	lifestyle := resident.Lifestyle
	is := func(value *int, expected int) bool { return value != nil && *value == expected }

	score := 0
	if is(lifestyle.SmokingStatus, 1) {
		score += 10
	}
	if is(lifestyle.SleepSchedule, 0) || is(lifestyle.SleepSchedule, 3) {
		score += 8
	}
	if is(lifestyle.SensitiveToSound, 1) {
		score += 5
	}
	if is(lifestyle.Snores, 1) {
		score += 5
	}
	return score
}
