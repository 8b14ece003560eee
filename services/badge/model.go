package badge

import "time"

// Post is a GMB post observation. Posts are written by the ingestion side and
// only read here.
type Post struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	ClientID  string    `gorm:"column:client_id;index:idx_gmb_posts_client_week" json:"client_id"`
	WeekID    string    `gorm:"column:week_id;index:idx_gmb_posts_client_week" json:"week_id"`
	Compliant *bool     `gorm:"column:compliant" json:"compliant"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Post) TableName() string { return "gmb_posts" }

// Record is the write-once badge outcome of one client for one ISO week.
type Record struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	ClientID  string    `gorm:"column:client_id;uniqueIndex:idx_badge_history_client_week" json:"client_id"`
	WeekID    string    `gorm:"column:week_id;uniqueIndex:idx_badge_history_client_week;index" json:"week_id"`
	Earned    bool      `gorm:"column:earned" json:"earned"`
	Compliant int       `gorm:"column:compliant" json:"compliant"`
	Total     int       `gorm:"column:total" json:"total"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Record) TableName() string { return "badge_history" }

func (r Record) Outcome() Outcome {
	return Outcome{Earned: r.Earned, Compliant: r.Compliant, Total: r.Total}
}

// Streak is the persisted view of a client's streaks. It is derived from
// badge_history and may be recomputed at any time.
type Streak struct {
	ClientID      string    `gorm:"column:client_id;primaryKey" json:"client_id"`
	StreakLength  int       `gorm:"column:streak_length" json:"streak_length"`
	CurrentStreak int       `gorm:"column:current_streak" json:"current_streak"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Streak) TableName() string { return "client_streaks" }
