package recognition

import "time"

const (
	TypeBadgeChampion    = "badge_champion"
	TypeStreakChampion   = "streak_champion"
	TypeReferralChampion = "referral_champion"
	TypeManual           = "manual"

	ThresholdBadges    = "badges"
	ThresholdStreak    = "streak"
	ThresholdReferrals = "referrals"

	ChampionPoints = 100
)

// DefaultThresholds apply to any threshold type missing from the table.
var DefaultThresholds = map[string]int{
	ThresholdBadges:    10,
	ThresholdStreak:    8,
	ThresholdReferrals: 3,
}

// Event records that a client was recognized as a champion. Automatic events
// are unique per (client, type).
type Event struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	ClientID  string    `gorm:"column:client_id;uniqueIndex:idx_recognition_events_automatic,where:automatic = true;index" json:"client_id"`
	Type      string    `gorm:"column:type;uniqueIndex:idx_recognition_events_automatic,where:automatic = true" json:"type"`
	Notes     string    `gorm:"column:notes" json:"notes,omitempty"`
	Automatic bool      `gorm:"column:automatic" json:"automatic"`
	CreatedBy *string   `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Event) TableName() string { return "recognition_events" }

type Threshold struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id,omitempty"`
	Type      string    `gorm:"column:type;uniqueIndex" json:"type"`
	Value     int       `gorm:"column:value" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
}

func (Threshold) TableName() string { return "recognition_thresholds" }

// Stats are the per-client values compared against thresholds.
type Stats struct {
	Badges       int `json:"badges"`
	MaxStreak    int `json:"max_streak"`
	Referrals    int `json:"referrals"`
	Achievements int `json:"achievements,omitempty"`
}

// kind binds a threshold to the automatic recognition it grants.
type kind struct {
	threshold   string
	eventType   string
	label       string
	notes       string
	description string
	value       func(Stats) int
}

var kinds = []kind{
	{
		threshold:   ThresholdBadges,
		eventType:   TypeBadgeChampion,
		label:       "Badge Champion",
		notes:       "Automatically recognized for earning %d badges",
		description: "Recognized for earning %d badges",
		value:       func(s Stats) int { return s.Badges },
	},
	{
		threshold:   ThresholdStreak,
		eventType:   TypeStreakChampion,
		label:       "Streak Champion",
		notes:       "Automatically recognized for maintaining a %d-week streak",
		description: "Recognized for maintaining a %d-week streak",
		value:       func(s Stats) int { return s.MaxStreak },
	},
	{
		threshold:   ThresholdReferrals,
		eventType:   TypeReferralChampion,
		label:       "Referral Champion",
		notes:       "Automatically recognized for %d successful referrals",
		description: "Recognized for %d successful referrals",
		value:       func(s Stats) int { return s.Referrals },
	},
}

// Score weights a client's record for the champions board.
func (s Stats) Score() int {
	return s.Badges*10 + s.MaxStreak*5 + s.Achievements*2 + s.Referrals*15
}
