package badge

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"gorm.io/gorm"
)

type PostCount struct {
	Total     int `json:"total"`
	Compliant int `json:"compliant"`
}

// PostView counts a client's posts for a week. It never writes.
type PostView interface {
	PostsForWeek(ctx context.Context, clientID, weekID string) (PostCount, error)
}

type gormPostView struct {
	db *gorm.DB
}

func NewPostView(db *gorm.DB) PostView {
	return &gormPostView{db: db}
}

func (v *gormPostView) PostsForWeek(ctx context.Context, clientID, weekID string) (PostCount, error) {
	var count PostCount
	err := v.db.WithContext(ctx).Model(&Post{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN compliant = ? THEN 1 ELSE 0 END), 0) AS compliant", true).
		Where("client_id = ? AND week_id = ?", clientID, weekID).
		Scan(&count).Error
	if err != nil {
		return PostCount{}, db.Classify("failed to count posts", err)
	}
	return count, nil
}
