package model

// Verify checks that the outcomes are a bijection over the input residents and
// that no free bed was handed out twice or outside the room it belongs to
func Verify(outcomes []AllocationOutcome, input ModelInput) bool {
	if len(outcomes) != len(input.Residents) {
		return false
	}

	//** Index free beds
	freeBeds := make(map[int64]Bed)
	for _, beds := range input.Beds {
		for _, bed := range beds {
			freeBeds[bed.Id] = bed
		}
	}

	//** Count expected residents
	pending := make(map[int64]int)
	for _, resident := range input.Residents {
		pending[resident.Id]++
	}

	usedBeds := make(map[int64]bool)
	for _, outcome := range outcomes {
		// Check that:
		// - Resident was part of the input and has not been reported yet
		// - A successful outcome references a free bed of the reported room
		// - No bed is used twice
		if pending[outcome.ResidentId] == 0 {
			return false
		}
		pending[outcome.ResidentId]--

		if !outcome.Success {
			continue
		}
		bed, ok := freeBeds[outcome.BedId]
		if !ok || bed.RoomId != outcome.RoomId || usedBeds[bed.Id] {
			return false
		}
		usedBeds[bed.Id] = true
	}

	return true
}
