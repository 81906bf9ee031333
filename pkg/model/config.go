package model

// Weight keys understood by the standard compatibility oracle
const (
	WeightSleepSchedule = "sleep_schedule"
	WeightCleanliness   = "cleanliness"
	WeightSocial        = "social"
	WeightStudy         = "study"
	WeightNoise         = "noise"
	WeightSmoking       = "smoking"
	WeightVisitors      = "visitors"
	WeightEating        = "eating"
)

// AllocationConfig is passed untouched to every compatibility evaluation of a run.
// Strategies must treat it as read-only.
type AllocationConfig struct {
	SameGenderRequired  bool               `mapstructure:"sameGenderRequired" koanf:"same_gender_required" json:"sameGenderRequired"`
	SmokingHardRule     bool               `mapstructure:"smokingHardRule" koanf:"smoking_hard_rule" json:"smokingHardRule"`
	MaxSleepScheduleGap int                `mapstructure:"maxSleepScheduleGap" koanf:"max_sleep_schedule_gap" json:"maxSleepScheduleGap"` // 0 disables the rule
	Weights             map[string]float64 `mapstructure:"weights" koanf:"weights" json:"weights"`
	EmptyRoomScore      float64            `mapstructure:"emptyRoomScore" koanf:"empty_room_score" json:"emptyRoomScore"`
	ProblemThreshold    float64            `mapstructure:"problemThreshold" koanf:"problem_threshold" json:"problemThreshold"`
}

func DefaultConfig() AllocationConfig {
	return AllocationConfig{
		SameGenderRequired:  true,
		SmokingHardRule:     true,
		MaxSleepScheduleGap: 0,
		Weights: map[string]float64{
			WeightSleepSchedule: 3,
			WeightCleanliness:   2,
			WeightSocial:        1,
			WeightStudy:         1,
			WeightNoise:         2,
			WeightSmoking:       2,
			WeightVisitors:      1,
			WeightEating:        0.5,
		},
		EmptyRoomScore:   80,
		ProblemThreshold: 60,
	}
}

// RoommateMatch is the pairwise evaluation between a candidate and one occupant
type RoommateMatch struct {
	ResidentA    int64    `json:"residentA"`
	ResidentB    int64    `json:"residentB"`
	Score        float64  `json:"score"`
	HardConflict bool     `json:"hardConflict"`
	Reasons      []string `json:"reasons,omitempty"`
}

type RoomMatchResult struct {
	AvgScore           float64
	HasHardConflict    bool
	HardConflictReason string // Only set when HasHardConflict is true
	Conflicts          []string
	Advantages         []string
	RoommateMatches    []RoommateMatch
}
