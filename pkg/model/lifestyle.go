package model

import "fmt"

// LifestyleAttribute is one questionnaire answer together with its valid range
type LifestyleAttribute struct {
	Name     string
	Value    func(Lifestyle) *int
	Min, Max int
}

var LifestyleAttributes = []LifestyleAttribute{
	{"smokingStatus", func(l Lifestyle) *int { return l.SmokingStatus }, 0, 1},
	{"smokingTolerance", func(l Lifestyle) *int { return l.SmokingTolerance }, 0, 1},
	{"sleepSchedule", func(l Lifestyle) *int { return l.SleepSchedule }, 0, 3},
	{"sleepQuality", func(l Lifestyle) *int { return l.SleepQuality }, 0, 2},
	{"snores", func(l Lifestyle) *int { return l.Snores }, 0, 1},
	{"sensitiveToLight", func(l Lifestyle) *int { return l.SensitiveToLight }, 0, 1},
	{"sensitiveToSound", func(l Lifestyle) *int { return l.SensitiveToSound }, 0, 1},
	{"cleanlinessLevel", func(l Lifestyle) *int { return l.CleanlinessLevel }, 1, 5},
	{"bedtimeCleanup", func(l Lifestyle) *int { return l.BedtimeCleanup }, 0, 3},
	{"socialPreference", func(l Lifestyle) *int { return l.SocialPreference }, 0, 2},
	{"allowVisitors", func(l Lifestyle) *int { return l.AllowVisitors }, 0, 2},
	{"phoneCallTime", func(l Lifestyle) *int { return l.PhoneCallTime }, 0, 2},
	{"studyInRoom", func(l Lifestyle) *int { return l.StudyInRoom }, 0, 3},
	{"studyEnvironment", func(l Lifestyle) *int { return l.StudyEnvironment }, 0, 3},
	{"computerUsageTime", func(l Lifestyle) *int { return l.ComputerUsageTime }, 0, 3},
	{"gamingPreference", func(l Lifestyle) *int { return l.GamingPreference }, 0, 2},
	{"musicPreference", func(l Lifestyle) *int { return l.MusicPreference }, 0, 2},
	{"musicVolume", func(l Lifestyle) *int { return l.MusicVolume }, 0, 2},
	{"eatInRoom", func(l Lifestyle) *int { return l.EatInRoom }, 0, 2},
}

// Normalized maps the answer linearly onto [0,1]; ok is false when it was not given
func (attribute LifestyleAttribute) Normalized(lifestyle Lifestyle) (normalized float64, ok bool) {
	value := attribute.Value(lifestyle)
	if value == nil {
		return 0, false
	}
	return float64(*value-attribute.Min) / float64(attribute.Max-attribute.Min), true
}

// OutOfRange lists the answers that fall outside their attribute's range
func (lifestyle Lifestyle) OutOfRange() []error {
	var problems []error
	for _, attribute := range LifestyleAttributes {
		if value := attribute.Value(lifestyle); value != nil && (*value < attribute.Min || *value > attribute.Max) {
			problems = append(problems, fmt.Errorf("%v is %d, expected %d..%d", attribute.Name, *value, attribute.Min, attribute.Max))
		}
	}
	return problems
}
