package achievement

import "time"

const (
	KindMilestone = "milestone"
	KindStreak    = "streak"
	KindChampion  = "champion_recognition"
)

// Achievement is an append-only entry in the achievement log. Automatic rows
// are unique per (client, type, label); manual champion rows may repeat.
type Achievement struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	ClientID    string    `gorm:"column:client_id;uniqueIndex:idx_achievement_log_automatic,where:automatic = true;index" json:"client_id"`
	Type        string    `gorm:"column:type;uniqueIndex:idx_achievement_log_automatic,where:automatic = true" json:"type"`
	Label       string    `gorm:"column:label;uniqueIndex:idx_achievement_log_automatic,where:automatic = true" json:"label"`
	Threshold   int       `gorm:"column:threshold" json:"threshold,omitempty"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	Points      int       `gorm:"column:points" json:"points,omitempty"`
	Automatic   bool      `gorm:"column:automatic" json:"automatic"`
	EarnedAt    time.Time `gorm:"column:earned_at;index" json:"earned_at"`
}

func (Achievement) TableName() string { return "achievement_log" }

// Key identifies an automatic achievement.
type Key struct {
	Type  string
	Label string
}

func (a Achievement) Key() Key {
	return Key{Type: a.Type, Label: a.Label}
}
