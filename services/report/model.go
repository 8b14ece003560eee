package report

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EmailTypeWeeklyBadgeReport = "weekly_badge_report"

	StatusSent   = "sent"
	StatusFailed = "failed"

	FeatureWeeklyReports = "weekly_badge_reports"
)

type EmailLog struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	ClientID  string         `gorm:"column:client_id;index" json:"client_id"`
	EmailType string         `gorm:"column:email_type" json:"email_type"`
	Status    string         `gorm:"column:status" json:"status"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (EmailLog) TableName() string { return "email_logs" }

type Metadata struct {
	BadgeEarned    bool   `json:"badge_earned"`
	CompliantPosts int    `json:"compliant_posts"`
	TotalPosts     int    `json:"total_posts"`
	StatusCode     int    `json:"status_code"`
	WeekID         string `json:"week_id,omitempty"`
}

type BulkResult struct {
	Scheduled int    `json:"scheduled"`
	Message   string `json:"message"`
}
