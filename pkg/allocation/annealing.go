package allocation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	hardConflictPenalty = 100.0
	conflictCountWeight = 50.0
)

// AnnealingParams is the cooling schedule. Temperature starts at InitialTemperature, is multiplied by
// CoolingRate after every epoch of TrialsPerEpoch swaps and the search stops once it is no longer above
// MinTemperature.
type AnnealingParams struct {
	InitialTemperature float64 `koanf:"initial_temperature" json:"initialTemperature"`
	CoolingRate        float64 `koanf:"cooling_rate" json:"coolingRate"`
	MinTemperature     float64 `koanf:"min_temperature" json:"minTemperature"`
	TrialsPerEpoch     int     `koanf:"trials_per_epoch" json:"trialsPerEpoch"`
	ProgressInterval   int     `koanf:"progress_interval" json:"progressInterval"` // Trials between progress reports
}

var DefaultAnnealingParams = AnnealingParams{
	InitialTemperature: 1000,
	CoolingRate:        0.995,
	MinTemperature:     1,
	TrialsPerEpoch:     100,
	ProgressInterval:   500,
}

func (params AnnealingParams) Validate() error {
	if params.MinTemperature <= 0 {
		return fmt.Errorf("min temperature must be positive: %v", params.MinTemperature)
	} else if params.InitialTemperature < params.MinTemperature {
		return fmt.Errorf("initial temperature %v is below min temperature %v", params.InitialTemperature, params.MinTemperature)
	} else if params.CoolingRate <= 0 || params.CoolingRate >= 1 {
		return fmt.Errorf("cooling rate must be greater than 0 and smaller than 1: %v", params.CoolingRate)
	} else if params.TrialsPerEpoch <= 0 {
		return fmt.Errorf("trials per epoch must be positive: %v", params.TrialsPerEpoch)
	} else if params.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive: %v", params.ProgressInterval)
	}
	return nil
}

// EpochStats is the state of the search right after an epoch has cooled
type EpochStats struct {
	Epoch        int
	Temperature  float64
	CurrentScore float64
	BestScore    float64
}

type annealingAllocator struct {
	allocatorBase
}

func NewAnnealingAllocator(oracle compatibility.Oracle, opts ...Option) Allocator {
	return &annealingAllocator{
		allocatorBase: allocatorBase{
			oracle:   oracle,
			options:  newOptions(opts),
			metadata: annealingMetadata,
		},
	}
}

// Allocate returns outcomes in input order. On cancellation no outcome is returned since no resident
// is final before the search ends.
func (allocator *annealingAllocator) Allocate(ctx context.Context, modelInput model.ModelInput, sink ProgressSink) ([]model.AllocationOutcome, error) {
	params := allocator.options.annealingParams
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid annealing parameters: %w", err)
	}

	progress := newProgressCounter(sink, len(modelInput.Residents))
	if len(modelInput.Residents) == 0 {
		progress.report("no residents to allocate")
		return []model.AllocationOutcome{}, nil
	}

	allocator.logStart(modelInput)
	ws := newWorkspace(modelInput, allocator.oracle)
	if ws.freeBedCount() == 0 {
		return allFailed(modelInput.Residents, ReasonNoAvailableBed, progress), nil
	}

	search := &annealingSearch{
		oracle:     allocator.oracle,
		modelInput: modelInput,
		rng:        allocator.rng(),
	}

	//** Initial solution
	progress.report("building initial solution")
	if err := search.initialize(ws); err != nil {
		return nil, err
	}
	current, err := search.objective(search.beds)
	if err != nil {
		return nil, err
	}
	progress.report(fmt.Sprintf("initial solution placed %d of %d residents, score %.2f", len(search.mapped), progress.total, current))

	//** Anneal
	best, bestBeds := current, slices.Clone(search.beds)
	if len(search.mapped) >= 2 {
		temperature := params.InitialTemperature
		trials := 0
		for epoch := 1; temperature > params.MinTemperature; epoch++ {
			if ctx.Err() != nil {
				return nil, cancelled(ctx, 0, progress.total)
			}

			for range params.TrialsPerEpoch {
				a, b := search.swap()
				candidate, err := search.objective(search.beds)
				if err != nil {
					return nil, err
				}

				if delta := candidate - current; delta >= 0 || search.rng.Float64() < math.Exp(delta/temperature) {
					current = candidate
					if current > best {
						best = current
						copy(bestBeds, search.beds)
					}
				} else {
					search.beds[a], search.beds[b] = search.beds[b], search.beds[a]
				}

				trials++
				if trials%params.ProgressInterval == 0 {
					progress.report(fmt.Sprintf("temperature %.2f, current score %.2f, best score %.2f", temperature, current, best))
				}
			}

			temperature *= params.CoolingRate
			if allocator.options.epochObserver != nil {
				allocator.options.epochObserver(EpochStats{
					Epoch:        epoch,
					Temperature:  temperature,
					CurrentScore: current,
					BestScore:    best,
				})
			}
		}
		allocator.options.logger.Debug("annealing finished",
			zap.Int("trials", trials),
			zap.Float64("best_score", best),
		)
	}

	//** Convert best mapping
	outcomes, err := search.convert(bestBeds, progress)
	if err != nil {
		return nil, err
	}

	progress.report("allocation finished")
	allocator.logFinish(progress)
	return outcomes, nil
}

func (allocator *annealingAllocator) rng() *rand.Rand {
	seed := time.Now().UnixNano()
	if allocator.options.seed != nil {
		seed = *allocator.options.seed
	}
	return rand.New(rand.NewSource(seed))
}

// annealingSearch holds one run's mapping. beds is indexed by resident position in the input and is
// only meaningful for positions listed in mapped.
type annealingSearch struct {
	oracle     compatibility.Oracle
	modelInput model.ModelInput
	rng        *rand.Rand
	beds       []model.Bed
	mapped     []int
}

// initialize places residents in input order into the best non-conflicting room, taking its first
// unused bed. Residents left without a bed stay out of the mapping.
func (search *annealingSearch) initialize(ws *workspace) error {
	search.beds = make([]model.Bed, len(search.modelInput.Residents))
	for i, resident := range search.modelInput.Residents {
		if ws.freeBedCount() == 0 {
			break
		}
		room, _, found, err := ws.bestRoom(resident, nil)
		if err != nil {
			return err
		} else if !found {
			continue
		}
		search.beds[i] = ws.commit(resident, room)
		search.mapped = append(search.mapped, i)
	}
	return nil
}

// swap exchanges the beds of two distinct mapped residents and returns their positions
func (search *annealingSearch) swap() (int, int) {
	n := len(search.mapped)
	i := search.rng.Intn(n)
	j := search.rng.Intn(n - 1)
	if j >= i {
		j++
	}
	a, b := search.mapped[i], search.mapped[j]
	search.beds[a], search.beds[b] = search.beds[b], search.beds[a]
	return a, b
}

// occupancy rebuilds every room's residents: pre-existing occupants first, then mapped residents
func (search *annealingSearch) occupancy(beds []model.Bed) map[int64][]model.Resident {
	rooms := make(map[int64][]model.Resident, len(search.modelInput.Occupants))
	for room, occupants := range search.modelInput.Occupants {
		rooms[room] = slices.Clone(occupants)
	}
	for _, i := range search.mapped {
		room := beds[i].RoomId
		rooms[room] = append(rooms[room], search.modelInput.Residents[i])
	}
	return rooms
}

func (search *annealingSearch) evaluate(rooms map[int64][]model.Resident, i int, bed model.Bed) (model.RoomMatchResult, error) {
	resident := search.modelInput.Residents[i]
	roommates := lo.Filter(rooms[bed.RoomId], func(occupant model.Resident, _ int) bool { return occupant.Id != resident.Id })
	result, err := search.oracle.Evaluate(resident, roommates, search.modelInput.Config)
	if err != nil {
		return model.RoomMatchResult{}, fmt.Errorf("cannot evaluate resident %d against room %d: %w", resident.Id, bed.RoomId, err)
	}
	return result, nil
}

// objective is the mean room score of mapped residents, where a hard conflict counts -100 and every
// conflict additionally costs 50 over the whole mapping
func (search *annealingSearch) objective(beds []model.Bed) (float64, error) {
	if len(search.mapped) == 0 {
		return 0, nil
	}

	rooms := search.occupancy(beds)
	sum, conflicts := 0.0, 0
	for _, i := range search.mapped {
		result, err := search.evaluate(rooms, i, beds[i])
		if err != nil {
			return 0, err
		}
		if result.HasHardConflict {
			sum -= hardConflictPenalty
			conflicts++
		} else {
			sum += result.AvgScore
		}
	}
	return (sum - conflictCountWeight*float64(conflicts)) / float64(len(search.mapped)), nil
}

func (search *annealingSearch) convert(beds []model.Bed, progress *progressCounter) ([]model.AllocationOutcome, error) {
	rooms := search.occupancy(beds)
	isMapped := make([]bool, len(search.modelInput.Residents))
	for _, i := range search.mapped {
		isMapped[i] = true
	}

	outcomes := make([]model.AllocationOutcome, 0, len(search.modelInput.Residents))
	for i, resident := range search.modelInput.Residents {
		var outcome model.AllocationOutcome
		if !isMapped[i] {
			outcome = model.FailedOutcome(resident, ReasonNoAvailableBed)
		} else if result, err := search.evaluate(rooms, i, beds[i]); err != nil {
			return nil, err
		} else if result.HasHardConflict {
			outcome = model.FailedOutcome(resident, result.HardConflictReason)
		} else {
			outcome = model.PlacedOutcome(resident, beds[i], result)
		}
		outcomes = append(outcomes, outcome)

		progress.processed++
		if outcome.Success {
			progress.succeeded++
		} else {
			progress.failed++
		}
	}
	model.FillRoommates(outcomes, search.modelInput.Occupants)
	return outcomes, nil
}
