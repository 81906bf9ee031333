package allocation

import (
	"context"
	"testing"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lifestyleInput() model.ModelInput {
	input := buildInput(10, map[int64]int{1: 3, 2: 3, 3: 2, 4: 2})
	for i := range input.Residents {
		input.Residents[i].Lifestyle.SleepSchedule = value((i * 3) % 4)
		input.Residents[i].Lifestyle.CleanlinessLevel = value(1 + (i*2)%5)
		input.Residents[i].Lifestyle.StudyEnvironment = value(i % 4)
	}
	return input
}

func TestAnnealingParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultAnnealingParams.Validate())

	invalid := []AnnealingParams{
		{InitialTemperature: 10, CoolingRate: 1, MinTemperature: 1, TrialsPerEpoch: 1, ProgressInterval: 1},
		{InitialTemperature: 10, CoolingRate: 0, MinTemperature: 1, TrialsPerEpoch: 1, ProgressInterval: 1},
		{InitialTemperature: 10, CoolingRate: 0.5, MinTemperature: 0, TrialsPerEpoch: 1, ProgressInterval: 1},
		{InitialTemperature: 0.5, CoolingRate: 0.5, MinTemperature: 1, TrialsPerEpoch: 1, ProgressInterval: 1},
		{InitialTemperature: 10, CoolingRate: 0.5, MinTemperature: 1, TrialsPerEpoch: 0, ProgressInterval: 1},
		{InitialTemperature: 10, CoolingRate: 0.5, MinTemperature: 1, TrialsPerEpoch: 1, ProgressInterval: 0},
	}
	for _, params := range invalid {
		assert.Error(t, params.Validate(), params)
	}
}

func TestAnnealingRejectsInvalidParams(t *testing.T) {
	//** Arrange
	allocator := NewAnnealingAllocator(scoreOracle(100), WithAnnealingParams(AnnealingParams{}))

	//** Act
	outcomes, err := allocator.Allocate(context.Background(), buildInput(2, map[int64]int{1: 2}), nil)

	//** Assert
	assert.Error(t, err)
	assert.Nil(t, outcomes)
}

func TestAnnealingSchedule(t *testing.T) {
	//** Arrange
	var epochs []EpochStats
	allocator := NewAnnealingAllocator(
		compatibility.NewStandardOracle(),
		WithSeed(11),
		WithAnnealingParams(AnnealingParams{InitialTemperature: 100, CoolingRate: 0.9, MinTemperature: 1, TrialsPerEpoch: 20, ProgressInterval: 50}),
		WithEpochObserver(func(stats EpochStats) { epochs = append(epochs, stats) }),
	)
	input := lifestyleInput()

	//** Act
	outcomes, err := allocator.Allocate(context.Background(), input, nil)

	//** Assert
	require.NoError(t, err)
	assert.True(t, allocator.Verify(outcomes, input))

	// 100 * 0.9^n drops to 1 or below after 44 epochs
	require.Len(t, epochs, 44)
	assert.InDelta(t, 90.0, epochs[0].Temperature, 1e-9)
	for i, stats := range epochs {
		assert.Equal(t, i+1, stats.Epoch)
		assert.GreaterOrEqual(t, stats.BestScore, stats.CurrentScore)
		if i > 0 {
			assert.InDelta(t, 0.9, stats.Temperature/epochs[i-1].Temperature, 1e-9)
			assert.GreaterOrEqual(t, stats.BestScore, epochs[i-1].BestScore)
		}
	}
}

func TestAnnealingBestIsNotWorseThanInitial(t *testing.T) {
	//** Arrange
	input := lifestyleInput()
	oracle := compatibility.NewStandardOracle()

	search := &annealingSearch{oracle: oracle, modelInput: input}
	require.NoError(t, search.initialize(newWorkspace(input, oracle)))
	initial, err := search.objective(search.beds)
	require.NoError(t, err)

	var epochs []EpochStats
	allocator := NewAnnealingAllocator(oracle,
		WithSeed(3),
		WithAnnealingParams(fastAnnealing),
		WithEpochObserver(func(stats EpochStats) { epochs = append(epochs, stats) }),
	)

	//** Act
	_, err = allocator.Allocate(context.Background(), input, nil)

	//** Assert
	require.NoError(t, err)
	require.Len(t, epochs, 3)
	assert.GreaterOrEqual(t, epochs[len(epochs)-1].BestScore, initial)
}

func TestAnnealingSeedIsReproducible(t *testing.T) {
	//** Arrange
	input := lifestyleInput()
	newAllocator := func() Allocator {
		return NewAnnealingAllocator(compatibility.NewStandardOracle(), WithSeed(42), WithAnnealingParams(fastAnnealing))
	}

	//** Act
	first, err := newAllocator().Allocate(context.Background(), input, nil)
	require.NoError(t, err)
	second, err := newAllocator().Allocate(context.Background(), input, nil)
	require.NoError(t, err)

	//** Assert
	assert.Equal(t, first, second)
	assert.Equal(t, lo.Map(input.Residents, func(resident model.Resident, _ int) int64 { return resident.Id }),
		lo.Map(first, func(outcome model.AllocationOutcome, _ int) int64 { return outcome.ResidentId }))
}

func TestAnnealingReportsLateHardConflicts(t *testing.T) {
	//** Arrange
	// Resident 1 cannot live with resident 2, but resident 2 does not mind
	oracle := compatibility.OracleFunc(func(resident model.Resident, occupants []model.Resident, _ model.AllocationConfig) (model.RoomMatchResult, error) {
		if resident.Id == 1 && lo.ContainsBy(occupants, func(occupant model.Resident) bool { return occupant.Id == 2 }) {
			return model.RoomMatchResult{HasHardConflict: true, HardConflictReason: "cannot share with resident 2"}, nil
		}
		return model.RoomMatchResult{AvgScore: 90}, nil
	})
	input := buildInput(2, map[int64]int{1: 2})

	//** Act
	outcomes, err := NewAnnealingAllocator(oracle, WithSeed(1), WithAnnealingParams(fastAnnealing)).Allocate(context.Background(), input, nil)

	//** Assert
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, "cannot share with resident 2", outcomes[0].FailReason)
	assert.True(t, outcomes[1].Success)
	assert.Equal(t, 90.0, outcomes[1].MatchScore)
}

func TestAnnealingProgress(t *testing.T) {
	//** Arrange
	var reports []Progress
	allocator := NewAnnealingAllocator(scoreOracle(60), WithSeed(5), WithAnnealingParams(fastAnnealing))

	//** Act
	_, err := allocator.Allocate(context.Background(), buildInput(4, map[int64]int{1: 2, 2: 2}), func(progress Progress) {
		reports = append(reports, progress)
	})

	//** Assert
	require.NoError(t, err)

	// Two initial reports, one every 5 of 30 trials and the final one
	require.Len(t, reports, 9)
	assert.Equal(t, "building initial solution", reports[0].Message)
	assert.Equal(t, "initial solution placed 4 of 4 residents, score 60.00", reports[1].Message)
	assert.Equal(t, Progress{Total: 4, Processed: 4, Succeeded: 4, Message: "allocation finished"}, reports[8])
}
