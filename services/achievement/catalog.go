package achievement

import "fmt"

// Definition is one detector threshold. Condition is a CEL expression over
// the client's Facts.
type Definition struct {
	Kind        string `json:"type"`
	Threshold   int    `json:"threshold"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Condition   string `json:"-"`
}

var (
	MilestoneThresholds = []int{5, 10, 20}
	StreakThresholds    = []int{3, 5, 10}

	milestoneLabels = map[int]string{5: "Bronze", 10: "Silver", 20: "Gold"}
)

// DefaultCatalog lists milestone detectors before streak detectors.
func DefaultCatalog() []Definition {
	defs := make([]Definition, 0, len(MilestoneThresholds)+len(StreakThresholds))
	for _, n := range MilestoneThresholds {
		defs = append(defs, Definition{
			Kind:        KindMilestone,
			Threshold:   n,
			Label:       fmt.Sprintf("%s Badge Earned", milestoneLabels[n]),
			Description: fmt.Sprintf("Earn %d weekly badges", n),
			Condition:   fmt.Sprintf("earned_badges >= %d", n),
		})
	}
	for _, n := range StreakThresholds {
		defs = append(defs, Definition{
			Kind:        KindStreak,
			Threshold:   n,
			Label:       fmt.Sprintf("%d-Week Streak Unlocked!", n),
			Description: fmt.Sprintf("Earn badges for %d consecutive weeks", n),
			Condition:   fmt.Sprintf("longest_streak >= %d", n),
		})
	}
	return defs
}

// Facts are the inputs detectors are evaluated against.
type Facts struct {
	EarnedBadges  int
	LongestStreak int
	CurrentStreak int
	TotalWeeks    int
}

func (f Facts) Attributes() map[string]any {
	return map[string]any{
		"earned_badges":  f.EarnedBadges,
		"longest_streak": f.LongestStreak,
		"current_streak": f.CurrentStreak,
		"total_weeks":    f.TotalWeeks,
	}
}

// CatalogGroup is the public shape of the catalog grouped by kind.
type CatalogGroup struct {
	Type     string       `json:"type"`
	Criteria []Definition `json:"criteria"`
}

func Group(defs []Definition) []CatalogGroup {
	var out []CatalogGroup
	index := map[string]int{}
	for _, d := range defs {
		i, ok := index[d.Kind]
		if !ok {
			i = len(out)
			index[d.Kind] = i
			out = append(out, CatalogGroup{Type: d.Kind})
		}
		out[i].Criteria = append(out[i].Criteria, d)
	}
	return out
}
