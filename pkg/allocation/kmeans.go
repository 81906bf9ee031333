package allocation

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

const (
	clusterSeed             = 42
	maxClusterIterations    = 100
	averageBedsPerRoom      = 4
	sameClusterBonus        = 5.0
	kMeansProgressInterval  = 50
	missingAttributeFeature = 0.5
)

type kMeansAllocator struct {
	allocatorBase
}

func NewKMeansAllocator(oracle compatibility.Oracle, opts ...Option) Allocator {
	return &kMeansAllocator{
		allocatorBase: allocatorBase{
			oracle:   oracle,
			options:  newOptions(opts),
			metadata: kMeansMetadata,
		},
	}
}

// Allocate clusters the residents and places them cluster by cluster (ascending cluster id, input order
// inside a cluster); outcomes are returned in that processing order
func (allocator *kMeansAllocator) Allocate(ctx context.Context, modelInput model.ModelInput, sink ProgressSink) ([]model.AllocationOutcome, error) {
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

	//** Cluster residents
	k := clusterCount(ws.freeBedCount(), len(modelInput.Residents))
	progress.report(fmt.Sprintf("clustering residents, K=%d", k))

	vectors := lo.Map(modelInput.Residents, func(resident model.Resident, _ int) []float64 { return residentVector(resident) })
	assignments, _, _ := kMeans(vectors, k, rand.New(rand.NewSource(clusterSeed)), maxClusterIterations)
	clusters := groupByCluster(modelInput.Residents, assignments, k)

	progress.report("clustering finished, placing residents")

	//** Place residents cluster by cluster
	outcomes := make([]model.AllocationOutcome, 0, len(modelInput.Residents))
	for cluster, members := range clusters {
		memberIds := lo.SliceToMap(members, func(resident model.Resident) (int64, bool) { return resident.Id, true })
		bonus := func(occupants []model.Resident) float64 {
			return sameClusterBonus * float64(lo.CountBy(occupants, func(occupant model.Resident) bool { return memberIds[occupant.Id] }))
		}

		for _, resident := range members {
			if ctx.Err() != nil {
				model.FillRoommates(outcomes, modelInput.Occupants)
				return outcomes, cancelled(ctx, progress.processed, progress.total)
			}

			outcome, err := placeResident(ws, resident, bonus)
			if err != nil {
				return nil, fmt.Errorf("cluster %d: %w", cluster, err)
			}
			outcomes = append(outcomes, outcome)

			progress.processed++
			if outcome.Success {
				progress.succeeded++
			} else {
				progress.failed++
			}
			if progress.processed%kMeansProgressInterval == 0 {
				progress.report(fmt.Sprintf("allocated %d of %d residents", progress.processed, progress.total))
			}
		}
	}

	model.FillRoommates(outcomes, modelInput.Occupants)
	progress.report("allocation finished")
	allocator.logFinish(progress)
	return outcomes, nil
}

// k = max(1, min(freeBeds / 4, residents / 4))
func clusterCount(freeBeds, residents int) int {
	return max(1, min(freeBeds/averageBedsPerRoom, residents/averageBedsPerRoom))
}

// groupByCluster keeps input order inside every cluster; empty clusters are dropped
func groupByCluster(residents []model.Resident, assignments []int, k int) [][]model.Resident {
	clusters := make([][]model.Resident, k)
	for i, resident := range residents {
		clusters[assignments[i]] = append(clusters[assignments[i]], resident)
	}
	return lo.Filter(clusters, func(members []model.Resident, _ int) bool { return len(members) > 0 })
}

// residentVector normalizes every lifestyle attribute onto [0,1]; unanswered attributes sit in the middle
func residentVector(resident model.Resident) []float64 {
	return lo.Map(model.LifestyleAttributes, func(attribute model.LifestyleAttribute, _ int) float64 {
		if normalized, ok := attribute.Normalized(resident.Lifestyle); ok {
			return normalized
		}
		return missingAttributeFeature
	})
}

// kMeans clusters vectors into k groups. Centroids start at k distinct vectors drawn from rng, and the
// loop stops as soon as an iteration changes no assignment or after maxIterations.
func kMeans(vectors [][]float64, k int, rng *rand.Rand, maxIterations int) (assignments []int, iterations int, converged bool) {
	n := len(vectors)
	assignments = make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	if n == 0 {
		return assignments, 0, true
	}
	k = min(k, n)

	//** Initialize centroids from distinct vectors
	centroids := lo.Map(rng.Perm(n)[:k], func(index int, _ int) []float64 {
		return append([]float64(nil), vectors[index]...)
	})

	for iterations < maxIterations {
		iterations++

		//** Assign every vector to its nearest centroid
		changed := false
		for i, vector := range vectors {
			nearest, nearestDistance := 0, math.Inf(1)
			for c, centroid := range centroids {
				if distance := floats.Distance(vector, centroid, 2); distance < nearestDistance {
					nearest, nearestDistance = c, distance
				}
			}
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed {
			return assignments, iterations, true
		}

		//** Move centroids to the mean of their vectors; empty clusters keep their centroid
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(vectors[0]))
		}
		for i, vector := range vectors {
			counts[assignments[i]]++
			floats.Add(sums[assignments[i]], vector)
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	return assignments, iterations, false
}
