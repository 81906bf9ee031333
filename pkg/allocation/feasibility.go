package allocation

import (
	"fmt"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// MatchableUpperBound returns the size of a maximum matching between residents and free beds, where a
// resident is linked to every bed of a room whose pre-existing occupants raise no hard conflict. No
// strategy can place more residents than this.
func MatchableUpperBound(modelInput model.ModelInput, oracle compatibility.Oracle) (int, error) {
	beds := lo.FlatMap(modelInput.RoomIds(), func(room int64, _ int) []model.Bed { return modelInput.Beds[room] })
	if len(modelInput.Residents) == 0 || len(beds) == 0 {
		return 0, nil
	}

	// Eligibility only depends on the room, so every room is evaluated once per resident
	eligible := make(map[[2]int64]bool)
	for i, resident := range modelInput.Residents {
		for _, room := range modelInput.RoomIds() {
			result, err := oracle.Evaluate(resident, modelInput.Occupants[room], modelInput.Config)
			if err != nil {
				return 0, fmt.Errorf("cannot evaluate resident %d against room %d: %w", resident.Id, room, err)
			}
			eligible[[2]int64{int64(i), room}] = !result.HasHardConflict
		}
	}

	neighbors := func(residentAny any, bedAny any) (bool, error) {
		resident := residentAny.(int)
		bed := bedAny.(model.Bed)

		return eligible[[2]int64{int64(resident), bed.RoomId}], nil
	}

	residentsAny := lo.Map(modelInput.Residents, func(_ model.Resident, index int) any { return index })
	bedsAny := lo.Map(beds, func(bed model.Bed, _ int) any { return bed })

	graph, err := bipartitegraph.NewBipartiteGraph(residentsAny, bedsAny, neighbors)
	if err != nil {
		return 0, err
	}
	return len(graph.LargestMatching()), nil
}

type AlgorithmEstimate struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	EstimatedTime string `json:"estimatedTime"`
	Recommended   bool   `json:"recommended"`
}

// PreviewResult sizes a run without executing any strategy
type PreviewResult struct {
	Residents  int                 `json:"residents"`
	Rooms      int                 `json:"rooms"`
	FreeBeds   int                 `json:"freeBeds"`
	Shortfall  int                 `json:"shortfall"` // Residents that cannot get a bed even ignoring compatibility
	UpperBound int                 `json:"upperBound"`
	Estimates  []AlgorithmEstimate `json:"estimates"`
}

func Preview(modelInput model.ModelInput, oracle compatibility.Oracle) (PreviewResult, error) {
	upperBound, err := MatchableUpperBound(modelInput, oracle)
	if err != nil {
		return PreviewResult{}, err
	}

	residents, freeBeds := len(modelInput.Residents), modelInput.FreeBeds()
	return PreviewResult{
		Residents:  residents,
		Rooms:      len(modelInput.RoomIds()),
		FreeBeds:   freeBeds,
		Shortfall:  max(0, residents-freeBeds),
		UpperBound: upperBound,
		Estimates: lo.Map(Algorithms(), func(metadata Metadata, _ int) AlgorithmEstimate {
			return AlgorithmEstimate{
				Id:            metadata.Id,
				Name:          metadata.Name,
				EstimatedTime: metadata.EstimatedTime(residents),
				Recommended:   metadata.Recommended,
			}
		}),
	}, nil
}
