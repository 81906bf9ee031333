package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

type Lifestyle struct {
	SmokingStatus     *int `mapstructure:"smokingStatus" json:"smokingStatus,omitempty"`
	SmokingTolerance  *int `mapstructure:"smokingTolerance" json:"smokingTolerance,omitempty"`
	SleepSchedule     *int `mapstructure:"sleepSchedule" json:"sleepSchedule,omitempty"` // 0 early riser .. 3 night owl
	SleepQuality      *int `mapstructure:"sleepQuality" json:"sleepQuality,omitempty"`
	Snores            *int `mapstructure:"snores" json:"snores,omitempty"`
	SensitiveToLight  *int `mapstructure:"sensitiveToLight" json:"sensitiveToLight,omitempty"`
	SensitiveToSound  *int `mapstructure:"sensitiveToSound" json:"sensitiveToSound,omitempty"`
	CleanlinessLevel  *int `mapstructure:"cleanlinessLevel" json:"cleanlinessLevel,omitempty"` // 1..5
	BedtimeCleanup    *int `mapstructure:"bedtimeCleanup" json:"bedtimeCleanup,omitempty"`
	SocialPreference  *int `mapstructure:"socialPreference" json:"socialPreference,omitempty"`
	AllowVisitors     *int `mapstructure:"allowVisitors" json:"allowVisitors,omitempty"`
	PhoneCallTime     *int `mapstructure:"phoneCallTime" json:"phoneCallTime,omitempty"`
	StudyInRoom       *int `mapstructure:"studyInRoom" json:"studyInRoom,omitempty"`
	StudyEnvironment  *int `mapstructure:"studyEnvironment" json:"studyEnvironment,omitempty"`
	ComputerUsageTime *int `mapstructure:"computerUsageTime" json:"computerUsageTime,omitempty"`
	GamingPreference  *int `mapstructure:"gamingPreference" json:"gamingPreference,omitempty"`
	MusicPreference   *int `mapstructure:"musicPreference" json:"musicPreference,omitempty"`
	MusicVolume       *int `mapstructure:"musicVolume" json:"musicVolume,omitempty"`
	EatInRoom         *int `mapstructure:"eatInRoom" json:"eatInRoom,omitempty"`
}

type Resident struct {
	Id         int64     `mapstructure:"id" json:"id"`
	ResidentNo string    `mapstructure:"residentNo" json:"residentNo"`
	Name       string    `mapstructure:"name" json:"name"`
	Gender     int       `mapstructure:"gender" json:"gender"` // 1 male, 2 female, 0 unknown
	DeptCode   string    `mapstructure:"deptCode" json:"deptCode,omitempty"`
	MajorCode  string    `mapstructure:"majorCode" json:"majorCode,omitempty"`
	ClassCode  string    `mapstructure:"classCode" json:"classCode,omitempty"`
	Lifestyle  Lifestyle `mapstructure:"lifestyle" json:"lifestyle"`
}

func (resident Resident) GenderName() string {
	switch resident.Gender {
	case 1:
		return "male"
	case 2:
		return "female"
	}
	return ""
}

type Bed struct {
	Id        int64  `json:"id"`
	RoomId    int64  `json:"roomId"`
	RoomCode  string `json:"roomCode"`
	FloorId   int64  `json:"floorId"`
	FloorCode string `json:"floorCode"`
}

type RawBed struct {
	Id int64 `mapstructure:"id"`
}

type RawRoom struct {
	Id        int64      `mapstructure:"id"`
	Code      string     `mapstructure:"code"`
	FloorId   int64      `mapstructure:"floorId"`
	FloorCode string     `mapstructure:"floorCode"`
	Beds      []RawBed   `mapstructure:"beds"` // Free beds only
	Occupants []Resident `mapstructure:"occupants"`
}

type RawModelInput struct {
	Residents []Resident       `mapstructure:"residents"`
	Rooms     []RawRoom        `mapstructure:"rooms"`
	Config    AllocationConfig `mapstructure:"config"`
}

type ModelInput struct {
	Residents []Resident
	Beds      map[int64][]Bed      // Free beds per room; rooms without free beds may be absent
	Occupants map[int64][]Resident // Current occupants per room
	Config    AllocationConfig
}

func InputFromJson(file string) (ModelInput, error) {
	return InputFromJsonWithDefaults(file, DefaultConfig())
}

// InputFromJsonWithDefaults reads an input file whose config section overrides the given defaults field by field
func InputFromJsonWithDefaults(file string, defaults AllocationConfig) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, fmt.Errorf("cannot read input file: %w", err)
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return ModelInput{}, err
	}

	defaults.Weights = maps.Clone(defaults.Weights)
	rawInput := RawModelInput{Config: defaults}
	if err := mapstructure.Decode(inputJson, &rawInput); err != nil {
		return ModelInput{}, fmt.Errorf("cannot decode input: %w", err)
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	input := ModelInput{
		Residents: rawInput.Residents,
		Beds:      make(map[int64][]Bed),
		Occupants: make(map[int64][]Resident),
		Config:    rawInput.Config,
	}

	for _, room := range rawInput.Rooms {
		if _, ok := input.Beds[room.Id]; ok {
			return ModelInput{}, fmt.Errorf("duplicate room %d (%v)", room.Id, room.Code)
		}
		if len(room.Beds) > 0 {
			input.Beds[room.Id] = lo.Map(room.Beds, func(bed RawBed, _ int) Bed {
				return Bed{
					Id:        bed.Id,
					RoomId:    room.Id,
					RoomCode:  room.Code,
					FloorId:   room.FloorId,
					FloorCode: room.FloorCode,
				}
			})
		}
		if len(room.Occupants) > 0 {
			input.Occupants[room.Id] = room.Occupants
		}
	}

	if err := input.Validate(); err != nil {
		return ModelInput{}, err
	}
	return input, nil
}

// Validate reports every structural problem of the input at once
func (input ModelInput) Validate() error {
	var err error

	residentIds := make(map[int64]bool)
	for _, resident := range input.Residents {
		if residentIds[resident.Id] {
			err = multierr.Append(err, fmt.Errorf("duplicate resident %d (%v)", resident.Id, resident.ResidentNo))
		}
		residentIds[resident.Id] = true

		for _, problem := range resident.Lifestyle.OutOfRange() {
			err = multierr.Append(err, fmt.Errorf("resident %d: %w", resident.Id, problem))
		}
	}

	bedIds := make(map[int64]bool)
	for _, room := range sortedKeys(input.Beds) {
		for _, bed := range input.Beds[room] {
			if bedIds[bed.Id] {
				err = multierr.Append(err, fmt.Errorf("duplicate bed %d", bed.Id))
			}
			bedIds[bed.Id] = true

			if bed.RoomId != room {
				err = multierr.Append(err, fmt.Errorf("bed %d belongs to room %d but is listed under room %d", bed.Id, bed.RoomId, room))
			}
		}
	}

	for _, room := range sortedKeys(input.Occupants) {
		for _, occupant := range input.Occupants[room] {
			if residentIds[occupant.Id] {
				err = multierr.Append(err, fmt.Errorf("resident %d is pending allocation but already occupies room %d", occupant.Id, room))
			}
			for _, problem := range occupant.Lifestyle.OutOfRange() {
				err = multierr.Append(err, fmt.Errorf("occupant %d of room %d: %w", occupant.Id, room, problem))
			}
		}
	}

	return err
}

// FreeBeds counts the free beds across all rooms
func (input ModelInput) FreeBeds() int {
	return lo.SumBy(lo.Values(input.Beds), func(beds []Bed) int { return len(beds) })
}

// RoomIds returns the rooms with at least one free bed in ascending order
func (input ModelInput) RoomIds() []int64 {
	return lo.Filter(sortedKeys(input.Beds), func(room int64, _ int) bool {
		return len(input.Beds[room]) > 0
	})
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
