package engagement

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"

	InsightPositive = "positive"
	InsightNegative = "negative"

	DefaultHistoryLimit = 10
)

// Metrics are one client's figures for one ISO week.
type Metrics struct {
	Posts              int     `json:"posts"`
	CompliantPosts     int     `json:"compliant_posts"`
	ComplianceRate     float64 `json:"compliance_rate"`
	BadgeEarned        bool    `json:"badge_earned"`
	CurrentStreak      int     `json:"current_streak"`
	LongestStreak      int     `json:"longest_streak"`
	BadgesToDate       int     `json:"badges_to_date"`
	AchievementsToDate int     `json:"achievements_to_date"`
}

func (m Metrics) numeric() map[string]float64 {
	return map[string]float64{
		"posts":                float64(m.Posts),
		"compliant_posts":      float64(m.CompliantPosts),
		"compliance_rate":      m.ComplianceRate,
		"current_streak":       float64(m.CurrentStreak),
		"longest_streak":       float64(m.LongestStreak),
		"badges_to_date":       float64(m.BadgesToDate),
		"achievements_to_date": float64(m.AchievementsToDate),
	}
}

type Trend struct {
	Direction        string  `json:"direction"`
	ChangePercentage float64 `json:"change_percentage"`
	ChangeValue      float64 `json:"change_value"`
}

type Insight struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Recommendation struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type Report struct {
	ID              string                               `gorm:"column:id;primaryKey" json:"id"`
	ClientID        string                               `gorm:"column:client_id;uniqueIndex:idx_engagement_reports_client_week" json:"client_id"`
	WeekID          string                               `gorm:"column:week_id;uniqueIndex:idx_engagement_reports_client_week" json:"week_id"`
	StartDate       time.Time                            `gorm:"column:start_date" json:"start_date"`
	EndDate         time.Time                            `gorm:"column:end_date" json:"end_date"`
	Metrics         datatypes.JSONType[Metrics]          `gorm:"column:metrics" json:"metrics"`
	PreviousMetrics datatypes.JSONType[Metrics]          `gorm:"column:previous_metrics" json:"previous_metrics"`
	Trends          datatypes.JSONType[map[string]Trend] `gorm:"column:trends" json:"trends"`
	Insights        datatypes.JSONSlice[Insight]         `gorm:"column:insights" json:"insights"`
	Recommendations datatypes.JSONSlice[Recommendation]  `gorm:"column:recommendations" json:"recommendations"`
	Viewed          bool                                 `gorm:"column:viewed" json:"viewed"`
	ViewedAt        *time.Time                           `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	CreatedAt       time.Time                            `gorm:"column:created_at" json:"created_at"`
}

func (Report) TableName() string { return "engagement_reports" }
