package compatibility

import (
	"fmt"
	"math"

	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
)

type standardOracle struct{}

// NewStandardOracle returns the rule-based oracle: configured hard rules first, then a weighted
// distance over lifestyle dimensions turned into a 0-100 pair score
func NewStandardOracle() Oracle {
	return &standardOracle{}
}

// dimension compares one aspect of two residents. ok is false when either side did not answer.
type dimension struct {
	weight string
	label  string
	diff   func(a, b model.Lifestyle) (diff float64, ok bool)
}

var dimensions = []dimension{
	{model.WeightSleepSchedule, "sleep schedule", func(a, b model.Lifestyle) (float64, bool) {
		return scaledGap(a.SleepSchedule, b.SleepSchedule, 3)
	}},
	{model.WeightCleanliness, "cleanliness", func(a, b model.Lifestyle) (float64, bool) {
		return scaledGap(a.CleanlinessLevel, b.CleanlinessLevel, 4)
	}},
	{model.WeightSocial, "social preference", func(a, b model.Lifestyle) (float64, bool) {
		return scaledGap(a.SocialPreference, b.SocialPreference, 2)
	}},
	{model.WeightStudy, "study environment", func(a, b model.Lifestyle) (float64, bool) {
		return scaledGap(a.StudyEnvironment, b.StudyEnvironment, 3)
	}},
	{model.WeightNoise, "noise tolerance", noiseDiff},
	{model.WeightSmoking, "smoking habits", func(a, b model.Lifestyle) (float64, bool) {
		if a.SmokingStatus == nil || b.SmokingStatus == nil {
			return 0, false
		}
		if smokesAround(a, b) || smokesAround(b, a) {
			return 1, true
		}
		return scaledGap(a.SmokingStatus, b.SmokingStatus, 1)
	}},
	{model.WeightVisitors, "visitor policy", func(a, b model.Lifestyle) (float64, bool) {
		return scaledGap(a.AllowVisitors, b.AllowVisitors, 2)
	}},
	{model.WeightEating, "eating in room", func(a, b model.Lifestyle) (float64, bool) {
		return scaledGap(a.EatInRoom, b.EatInRoom, 2)
	}},
}

func (oracle *standardOracle) Evaluate(resident model.Resident, occupants []model.Resident, config model.AllocationConfig) (model.RoomMatchResult, error) {
	if len(occupants) == 0 {
		return model.RoomMatchResult{AvgScore: config.EmptyRoomScore}, nil
	}

	result := model.RoomMatchResult{
		RoommateMatches: make([]model.RoommateMatch, 0, len(occupants)),
	}
	for _, occupant := range occupants {
		match, advantages := oracle.pair(resident, occupant, config)
		result.RoommateMatches = append(result.RoommateMatches, match)
		result.Advantages = append(result.Advantages, advantages...)

		if match.HardConflict {
			if !result.HasHardConflict {
				result.HardConflictReason = match.Reasons[0]
			}
			result.HasHardConflict = true
		}
		result.Conflicts = append(result.Conflicts, match.Reasons...)
	}

	result.AvgScore = lo.MeanBy(result.RoommateMatches, func(match model.RoommateMatch) float64 { return match.Score })
	result.Conflicts = lo.Uniq(result.Conflicts)
	result.Advantages = lo.Uniq(result.Advantages)
	return result, nil
}

func (oracle *standardOracle) pair(a, b model.Resident, config model.AllocationConfig) (match model.RoommateMatch, advantages []string) {
	match = model.RoommateMatch{ResidentA: a.Id, ResidentB: b.Id}

	//** Hard rules
	if reason, ok := oracle.hardConflict(a, b, config); ok {
		match.HardConflict = true
		match.Reasons = []string{reason}
		return match, nil
	}

	//** Soft score
	var weighted, total float64
	for _, dimension := range dimensions {
		weight := config.Weights[dimension.weight]
		if weight <= 0 {
			continue
		}
		diff, ok := dimension.diff(a.Lifestyle, b.Lifestyle)
		if !ok {
			continue
		}

		weighted += weight * diff
		total += weight
		if diff >= 0.5 {
			match.Reasons = append(match.Reasons, fmt.Sprintf("different %v", dimension.label))
		} else if diff == 0 {
			advantages = append(advantages, fmt.Sprintf("same %v", dimension.label))
		}
	}

	if total == 0 {
		match.Score = config.EmptyRoomScore
	} else {
		match.Score = math.Max(0, math.Min(100, 100-100*weighted/total))
	}
	return match, advantages
}

func (oracle *standardOracle) hardConflict(a, b model.Resident, config model.AllocationConfig) (string, bool) {
	if config.SameGenderRequired && a.Gender != 0 && b.Gender != 0 && a.Gender != b.Gender {
		return fmt.Sprintf("gender mismatch with %v", b.Name), true
	}
	if config.SmokingHardRule && (smokesAround(a.Lifestyle, b.Lifestyle) || smokesAround(b.Lifestyle, a.Lifestyle)) {
		return fmt.Sprintf("smoking is not tolerated by %v", lo.Ternary(smokesAround(a.Lifestyle, b.Lifestyle), b.Name, a.Name)), true
	}
	if config.MaxSleepScheduleGap > 0 && a.Lifestyle.SleepSchedule != nil && b.Lifestyle.SleepSchedule != nil {
		gap := *a.Lifestyle.SleepSchedule - *b.Lifestyle.SleepSchedule
		if gap < 0 {
			gap = -gap
		}
		if gap > config.MaxSleepScheduleGap {
			return fmt.Sprintf("sleep schedule too far from %v", b.Name), true
		}
	}
	return "", false
}

// Checks whether smoker smokes and other explicitly does not tolerate smoking
func smokesAround(smoker, other model.Lifestyle) bool {
	return smoker.SmokingStatus != nil && *smoker.SmokingStatus == 1 &&
		other.SmokingTolerance != nil && *other.SmokingTolerance == 0
}

// Noise conflict: one side is sound sensitive while the other snores or plays loud music
func noiseDiff(a, b model.Lifestyle) (float64, bool) {
	directional := func(sensitive, noisy model.Lifestyle) (float64, bool) {
		if sensitive.SensitiveToSound == nil || (noisy.Snores == nil && noisy.MusicVolume == nil) {
			return 0, false
		}
		if *sensitive.SensitiveToSound == 0 {
			return 0, true
		}
		noise := 0.0
		if noisy.Snores != nil && *noisy.Snores == 1 {
			noise = 1
		}
		if noisy.MusicVolume != nil {
			noise = math.Max(noise, float64(*noisy.MusicVolume)/2)
		}
		return noise, true
	}

	diff1, ok1 := directional(a, b)
	diff2, ok2 := directional(b, a)
	return math.Max(diff1, diff2), ok1 || ok2
}

func scaledGap(a, b *int, span float64) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return math.Abs(float64(*a-*b)) / span, true
}
