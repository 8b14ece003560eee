package badge

import (
	"sort"

	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
)

type Streaks struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// ComputeStreaks derives earned-week runs from a client's history. Weeks must
// be ISO-adjacent to continue a run; a missing week breaks it just like an
// unearned one.
func ComputeStreaks(records []Record) Streaks {
	if len(records) == 0 {
		return Streaks{}
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WeekID < sorted[j].WeekID })

	var longest, run int
	prevWeek := ""
	for _, r := range sorted {
		switch {
		case !r.Earned:
			run = 0
		case run > 0 && isoweek.Adjacent(prevWeek, r.WeekID):
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
		prevWeek = r.WeekID
	}

	// run already ends at the latest entry, and is 0 when that entry was not earned.
	return Streaks{Current: run, Longest: longest}
}
