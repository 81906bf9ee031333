package allocation

import (
	"fmt"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/samber/lo"
)

const (
	GreedyId    = "greedy"
	KMeansId    = "kmeans"
	AnnealingId = "annealing"
)

var allocators = map[string]func(compatibility.Oracle, ...Option) Allocator{
	GreedyId:    NewGreedyAllocator,
	KMeansId:    NewKMeansAllocator,
	AnnealingId: NewAnnealingAllocator,
}

var catalog = []Metadata{greedyMetadata, kMeansMetadata, annealingMetadata}

// NewAllocator builds the strategy registered under id
func NewAllocator(id string, oracle compatibility.Oracle, opts ...Option) (Allocator, error) {
	constructor, ok := allocators[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (allowed: %v)", ErrUnknownAlgorithm, id, AlgorithmIds())
	}
	return constructor(oracle, opts...), nil
}

// AlgorithmIds lists the registered ids in catalog order
func AlgorithmIds() []string {
	return lo.Map(catalog, func(metadata Metadata, _ int) string { return metadata.Id })
}

func Algorithms() []Metadata {
	return append([]Metadata(nil), catalog...)
}

// DefaultAlgorithm is the id of the recommended strategy
func DefaultAlgorithm() string {
	recommended, _ := lo.Find(catalog, func(metadata Metadata) bool { return metadata.Recommended })
	return recommended.Id
}
