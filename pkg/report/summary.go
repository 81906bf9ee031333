package report

import (
	"strings"

	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
)

// Summary aggregates the outcomes of one run. Score statistics only consider successful outcomes.
type Summary struct {
	Total        int            `json:"total"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	AverageScore float64        `json:"averageScore"`
	MinScore     float64        `json:"minScore"`
	MaxScore     float64        `json:"maxScore"`
	Problems     int            `json:"problems"` // Successes scoring below the problem threshold
	FailReasons  map[string]int `json:"failReasons"`
}

func Summarize(outcomes []model.AllocationOutcome, problemThreshold float64) Summary {
	successes, failures := lo.FilterReject(outcomes, func(outcome model.AllocationOutcome, _ int) bool { return outcome.Success })
	scores := lo.Map(successes, func(outcome model.AllocationOutcome, _ int) float64 { return outcome.MatchScore })

	summary := Summary{
		Total:       len(outcomes),
		Succeeded:   len(successes),
		Failed:      len(failures),
		Problems:    lo.CountBy(scores, func(score float64) bool { return score < problemThreshold }),
		FailReasons: lo.CountValuesBy(failures, func(outcome model.AllocationOutcome) string { return outcome.FailReason }),
	}
	if len(scores) > 0 {
		summary.AverageScore = lo.Mean(scores)
		summary.MinScore = lo.Min(scores)
		summary.MaxScore = lo.Max(scores)
	}
	return summary
}

// Query selects outcomes; zero fields do not filter
type Query struct {
	MinScore         *float64
	MaxScore         *float64
	ProblemOnly      bool // Successes below ProblemThreshold
	ProblemThreshold float64
	RoomCode         string
	ResidentNo       string // Substring match
}

func Filter(outcomes []model.AllocationOutcome, query Query) []model.AllocationOutcome {
	return lo.Filter(outcomes, func(outcome model.AllocationOutcome, _ int) bool {
		if query.MinScore != nil && outcome.MatchScore < *query.MinScore {
			return false
		} else if query.MaxScore != nil && outcome.MatchScore > *query.MaxScore {
			return false
		} else if query.ProblemOnly && !IsProblem(outcome, query.ProblemThreshold) {
			return false
		} else if query.RoomCode != "" && outcome.RoomCode != query.RoomCode {
			return false
		} else if query.ResidentNo != "" && !strings.Contains(outcome.ResidentNo, query.ResidentNo) {
			return false
		}
		return true
	})
}

func IsProblem(outcome model.AllocationOutcome, problemThreshold float64) bool {
	return outcome.Success && outcome.MatchScore < problemThreshold
}
