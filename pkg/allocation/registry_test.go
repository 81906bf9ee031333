package allocation

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocator(t *testing.T) {
	for _, id := range AlgorithmIds() {
		allocator, err := NewAllocator(id, scoreOracle(100))
		require.NoError(t, err)
		assert.Equal(t, id, allocator.Metadata().Id)
	}

	allocator, err := NewAllocator("genetic", scoreOracle(100))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
	assert.Nil(t, allocator)
}

func TestAlgorithms(t *testing.T) {
	algorithms := Algorithms()

	assert.Equal(t, []string{GreedyId, KMeansId, AnnealingId}, AlgorithmIds())
	assert.Equal(t, KMeansId, DefaultAlgorithm())
	assert.Equal(t, 1, lo.CountBy(algorithms, func(metadata Metadata) bool { return metadata.Recommended }))
	for _, metadata := range algorithms {
		assert.NotEmpty(t, metadata.Name)
		assert.NotEmpty(t, metadata.Description)
		assert.NotEmpty(t, metadata.Advantages)
		assert.NotEmpty(t, metadata.Disadvantages)
	}

	// Listing returns a copy
	algorithms[0].Name = "changed"
	assert.Equal(t, "Greedy", Algorithms()[0].Name)
}

func TestEstimatedTime(t *testing.T) {
	tests := []struct {
		metadata  Metadata
		residents int
		expected  string
	}{
		{greedyMetadata, 0, "about 2-5 seconds"},
		{greedyMetadata, 1000, "about 2-5 seconds"},
		{greedyMetadata, 1001, "about 10-20 seconds"},
		{greedyMetadata, 20000, "about 30-60 seconds"},
		{kMeansMetadata, 5000, "about 30-60 seconds"},
		{kMeansMetadata, 5001, "about 1-2 minutes"},
		{annealingMetadata, 500, "about 30-60 seconds"},
		{annealingMetadata, 501, "about 2-5 minutes"},
		{annealingMetadata, 2001, "about 5-10 minutes"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.metadata.EstimatedTime(test.residents), "%s with %d residents", test.metadata.Id, test.residents)
	}
}
