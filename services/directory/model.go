package directory

import "time"

type EmailPreferences struct {
	WeeklyReports bool `json:"weekly_reports"`
}

// Client is directory data owned by the CRM. The engine reads it, never writes it.
type Client struct {
	ID               string           `gorm:"column:id;primaryKey" json:"id"`
	Name             string           `gorm:"column:name" json:"name"`
	BusinessName     string           `gorm:"column:business_name" json:"business_name,omitempty"`
	Email            string           `gorm:"column:email" json:"email"`
	Region           string           `gorm:"column:region" json:"region,omitempty"`
	RegionID         string           `gorm:"column:region_id;index" json:"region_id,omitempty"`
	FranchiseID      *string          `gorm:"column:franchise_id;index" json:"franchise_id,omitempty"`
	Active           bool             `gorm:"column:active;index" json:"active"`
	EmailPreferences EmailPreferences `gorm:"column:email_preferences;serializer:json" json:"email_preferences"`
	CreatedAt        time.Time        `gorm:"column:created_at" json:"created_at"`
}

func (Client) TableName() string { return "clients" }

// DisplayName prefers the business name.
func (c Client) DisplayName() string {
	if c.BusinessName != "" {
		return c.BusinessName
	}
	return c.Name
}

func (c Client) WantsWeeklyReports() bool {
	return c.EmailPreferences.WeeklyReports
}

// InRegion matches either the region id or the region name, ignoring case.
func (c Client) InRegion(region string) bool {
	return region != "" && (equalFold(c.RegionID, region) || equalFold(c.Region, region))
}

func (c Client) InFranchise(franchiseID string) bool {
	return franchiseID != "" && c.FranchiseID != nil && equalFold(*c.FranchiseID, franchiseID)
}

const ReferralConverted = "converted"

type Referral struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	ReferrerID    string    `gorm:"column:referrer_id;index" json:"referrer_id"`
	ReferredEmail string    `gorm:"column:referred_email" json:"referred_email,omitempty"`
	Status        string    `gorm:"column:status" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Referral) TableName() string { return "referral_tracker" }
