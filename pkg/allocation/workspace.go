package allocation

import (
	"fmt"
	"slices"

	"github.com/limaJavier/allocation/pkg/compatibility"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
)

// workspace is the per-run working copy of bed availability and room occupancy.
// It is cloned from the caller's input so the caller's maps and slices are never touched.
type workspace struct {
	oracle    compatibility.Oracle
	config    model.AllocationConfig
	freeBeds  map[int64][]model.Bed
	occupants map[int64][]model.Resident
	rooms     []int64 // Rooms with at least one free bed, ascending
}

func newWorkspace(modelInput model.ModelInput, oracle compatibility.Oracle) *workspace {
	ws := &workspace{
		oracle:    oracle,
		config:    modelInput.Config,
		freeBeds:  make(map[int64][]model.Bed, len(modelInput.Beds)),
		occupants: make(map[int64][]model.Resident, len(modelInput.Occupants)),
		rooms:     modelInput.RoomIds(),
	}
	for _, room := range ws.rooms {
		ws.freeBeds[room] = slices.Clone(modelInput.Beds[room])
	}
	for room, occupants := range modelInput.Occupants {
		ws.occupants[room] = slices.Clone(occupants)
	}
	return ws
}

func (ws *workspace) freeBedCount() int {
	return lo.SumBy(ws.rooms, func(room int64) int { return len(ws.freeBeds[room]) })
}

// bestRoom evaluates every room that still has a free bed, skips hard conflicts and returns the room
// with the strictly highest score plus bonus. Rooms are visited in ascending id, so the lowest id wins ties.
func (ws *workspace) bestRoom(resident model.Resident, bonus func(occupants []model.Resident) float64) (room int64, match model.RoomMatchResult, found bool, err error) {
	bestScore := 0.0
	for _, candidate := range ws.rooms {
		occupants := ws.occupants[candidate]
		result, err := ws.oracle.Evaluate(resident, occupants, ws.config)
		if err != nil {
			return 0, model.RoomMatchResult{}, false, fmt.Errorf("cannot evaluate resident %d against room %d: %w", resident.Id, candidate, err)
		}

		// Skip rooms with hard conflicts regardless of their score
		if result.HasHardConflict {
			continue
		}

		score := result.AvgScore
		if bonus != nil {
			score += bonus(occupants)
		}
		if !found || score > bestScore {
			room, match, bestScore, found = candidate, result, score, true
		}
	}
	return room, match, found, nil
}

// commit hands the first free bed of room to the resident
func (ws *workspace) commit(resident model.Resident, room int64) model.Bed {
	beds := ws.freeBeds[room]
	bed := beds[0]

	if len(beds) == 1 {
		delete(ws.freeBeds, room)
		ws.rooms = slices.DeleteFunc(ws.rooms, func(id int64) bool { return id == room })
	} else {
		ws.freeBeds[room] = beds[1:]
	}
	ws.occupants[room] = append(ws.occupants[room], resident)
	return bed
}
