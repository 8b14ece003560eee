package badge

import "math"

// Summary aggregates a set of badge records. Compliance is measured against
// recorded weeks, not calendar weeks, so skipped weeks do not lower it.
type Summary struct {
	TotalWeeks          int     `json:"total_weeks"`
	BadgesEarned        int     `json:"badges_earned"`
	TotalCompliantPosts int     `json:"total_compliant_posts"`
	TotalPosts          int     `json:"total_posts"`
	ComplianceRate      float64 `json:"compliance_rate"`
	AveragePosts        float64 `json:"average_posts"`
}

func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		s.TotalWeeks++
		if r.Earned {
			s.BadgesEarned++
		}
		s.TotalCompliantPosts += r.Compliant
		s.TotalPosts += r.Total
	}

	if s.TotalWeeks > 0 {
		s.ComplianceRate = Round1(float64(s.BadgesEarned) / float64(s.TotalWeeks) * 100)
		s.AveragePosts = Round1(float64(s.TotalPosts) / float64(s.TotalWeeks))
	}
	return s
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
