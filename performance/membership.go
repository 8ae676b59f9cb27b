package performance

import (
	"strconv"

	"github.com/warp/training-report/course"
)

// YearMembership says how a run relates to a target year. The flags are
// independent: a run started and ended in the target year sets both
// StartedThisYear and EndedThisYear.
type YearMembership struct {
	StartedThisYear       bool `json:"startedThisYear"`
	StartedPrevAndOngoing bool `json:"startedPrevAndOngoing"`
	EndedThisYear         bool `json:"endedThisYear"`
}

func ClassifyYearMembership(rec *course.ProcessedRecord, targetYear int) YearMembership {
	start, end := rec.StartYear(), rec.EndYear()
	return YearMembership{
		StartedThisYear:       start == targetYear,
		StartedPrevAndOngoing: start < targetYear && end >= targetYear,
		EndedThisYear:         end == targetYear,
	}
}

// FormatCurrentPrevious renders "current(previous)", or just "current"
// when previous is zero. Reports and the UI depend on this exact form.
func FormatCurrentPrevious(current, previous int) string {
	if previous == 0 {
		return strconv.Itoa(current)
	}
	return strconv.Itoa(current) + "(" + strconv.Itoa(previous) + ")"
}
