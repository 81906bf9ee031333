package model

import "github.com/samber/lo"

// AllocationOutcome is the per-resident result of a run. Placement fields are zero when Success is false.
type AllocationOutcome struct {
	ResidentId      int64    `json:"residentId"`
	ResidentNo      string   `json:"residentNo"`
	ResidentName    string   `json:"residentName"`
	Gender          string   `json:"gender,omitempty"`
	DeptCode        string   `json:"deptCode,omitempty"`
	MajorCode       string   `json:"majorCode,omitempty"`
	ClassCode       string   `json:"classCode,omitempty"`
	BedId           int64    `json:"bedId,omitempty"`
	RoomId          int64    `json:"roomId,omitempty"`
	RoomCode        string   `json:"roomCode,omitempty"`
	FloorId         int64    `json:"floorId,omitempty"`
	FloorCode       string   `json:"floorCode,omitempty"`
	MatchScore      float64  `json:"matchScore"`
	ConflictReasons []string `json:"conflictReasons,omitempty"`
	Advantages      []string `json:"advantages,omitempty"`
	RoommateIds     []int64  `json:"roommateIds,omitempty"` // Everyone sharing the room when the run ends
	Success         bool     `json:"success"`
	FailReason      string   `json:"failReason,omitempty"`
}

func PlacedOutcome(resident Resident, bed Bed, match RoomMatchResult) AllocationOutcome {
	outcome := identityOutcome(resident)
	outcome.BedId = bed.Id
	outcome.RoomId = bed.RoomId
	outcome.RoomCode = bed.RoomCode
	outcome.FloorId = bed.FloorId
	outcome.FloorCode = bed.FloorCode
	outcome.MatchScore = match.AvgScore
	outcome.ConflictReasons = match.Conflicts
	outcome.Advantages = match.Advantages
	outcome.Success = true
	return outcome
}

// FillRoommates sets RoommateIds of every placed outcome from the final occupancy of its room: the
// pre-existing occupants followed by the other placed residents, in outcome order
func FillRoommates(outcomes []AllocationOutcome, occupants map[int64][]Resident) {
	rooms := make(map[int64][]int64, len(occupants))
	for room, residents := range occupants {
		rooms[room] = lo.Map(residents, func(resident Resident, _ int) int64 { return resident.Id })
	}
	for _, outcome := range outcomes {
		if outcome.Success {
			rooms[outcome.RoomId] = append(rooms[outcome.RoomId], outcome.ResidentId)
		}
	}

	for i := range outcomes {
		if outcomes[i].Success {
			outcomes[i].RoommateIds = lo.Without(rooms[outcomes[i].RoomId], outcomes[i].ResidentId)
		}
	}
}

func FailedOutcome(resident Resident, reason string) AllocationOutcome {
	outcome := identityOutcome(resident)
	outcome.FailReason = reason
	return outcome
}

func identityOutcome(resident Resident) AllocationOutcome {
	return AllocationOutcome{
		ResidentId:   resident.Id,
		ResidentNo:   resident.ResidentNo,
		ResidentName: resident.Name,
		Gender:       resident.GenderName(),
		DeptCode:     resident.DeptCode,
		MajorCode:    resident.MajorCode,
		ClassCode:    resident.ClassCode,
	}
}
