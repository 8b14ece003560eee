package engagement

import (
	"fmt"
	"math"
)

const (
	stableBand      = 5.0
	significantBand = 20.0
	complianceFloor = 80.0
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Trends compares every numeric metric with the previous week. A metric that
// grew from zero counts as +100%.
func Trends(current, previous Metrics) map[string]Trend {
	prev := previous.numeric()
	out := make(map[string]Trend)
	for key, cur := range current.numeric() {
		before := prev[key]

		var pct float64
		switch {
		case before == 0 && cur > 0:
			pct = 100
		case before != 0:
			pct = (cur - before) / before * 100
		}

		direction := DirectionStable
		if pct > stableBand {
			direction = DirectionUp
		} else if pct < -stableBand {
			direction = DirectionDown
		}

		out[key] = Trend{
			Direction:        direction,
			ChangePercentage: round2(pct),
			ChangeValue:      round2(cur - before),
		}
	}
	return out
}

func Insights(trends map[string]Trend, current, previous Metrics) []Insight {
	out := []Insight{}

	posts := trends["posts"]
	switch {
	case posts.Direction == DirectionUp && posts.ChangePercentage > significantBand:
		out = append(out, Insight{
			Type:        InsightPositive,
			Category:    "visibility",
			Title:       "Strong increase in posting activity",
			Description: fmt.Sprintf("You published %d posts, up %g%% compared to last week.", current.Posts, posts.ChangePercentage),
		})
	case posts.Direction == DirectionDown && posts.ChangePercentage < -significantBand:
		out = append(out, Insight{
			Type:        InsightNegative,
			Category:    "visibility",
			Title:       "Significant drop in posting activity",
			Description: fmt.Sprintf("You published %d posts, down %g%% compared to last week.", current.Posts, math.Abs(posts.ChangePercentage)),
		})
	}

	switch trends["compliance_rate"].Direction {
	case DirectionUp:
		out = append(out, Insight{
			Type:        InsightPositive,
			Category:    "compliance",
			Title:       "Improved post compliance",
			Description: fmt.Sprintf("Your compliance rate rose to %g%%, up from %g%% last week.", current.ComplianceRate, previous.ComplianceRate),
		})
	case DirectionDown:
		out = append(out, Insight{
			Type:        InsightNegative,
			Category:    "compliance",
			Title:       "Declining post compliance",
			Description: fmt.Sprintf("Your compliance rate dropped to %g%% from %g%% last week.", current.ComplianceRate, previous.ComplianceRate),
		})
	}

	if current.BadgeEarned {
		title := "Weekly badge earned"
		if current.CurrentStreak > 1 {
			title = fmt.Sprintf("%d-week badge streak", current.CurrentStreak)
		}
		out = append(out, Insight{
			Type:        InsightPositive,
			Category:    "recognition",
			Title:       title,
			Description: fmt.Sprintf("You have earned %d weekly badges so far.", current.BadgesToDate),
		})
	} else if previous.BadgeEarned {
		out = append(out, Insight{
			Type:        InsightNegative,
			Category:    "recognition",
			Title:       "Badge streak ended",
			Description: "You earned a badge last week but not this week.",
		})
	}
	return out
}

func Recommendations(insights []Insight, current Metrics) []Recommendation {
	out := []Recommendation{}

	lostVisibility := current.Posts == 0
	for _, in := range insights {
		if in.Type == InsightNegative && in.Category == "visibility" {
			lostVisibility = true
		}
	}
	if lostVisibility {
		out = append(out, Recommendation{
			Category:    "visibility",
			Title:       "Improve your online visibility",
			Description: "Schedule more posts and update your business information to increase visibility.",
			Actions: []string{
				"Schedule at least 5 posts for next week",
				"Update your business hours and information",
				"Add recent photos of your products or services",
			},
		})
	}

	if current.Posts > 0 && current.ComplianceRate < complianceFloor {
		out = append(out, Recommendation{
			Category:    "compliance",
			Title:       "Raise your post compliance",
			Description: fmt.Sprintf("Only %g%% of your posts met the content guidelines this week.", current.ComplianceRate),
			Actions: []string{
				"Review the posting guidelines before publishing",
				"Include a clear call to action in every post",
				"Avoid duplicate or off-topic content",
			},
		})
	}

	if !current.BadgeEarned {
		out = append(out, Recommendation{
			Category:    "recognition",
			Title:       "Earn next week's badge",
			Description: "Publish at least 5 compliant posts in a week to earn the weekly badge.",
			Actions: []string{
				"Plan one post for each business day",
				"Check each post against the guidelines",
			},
		})
	}
	return out
}
