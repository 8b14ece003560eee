package engagement

import (
	"context"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Insert stores the report unless one exists for the same client and
	// week. The bool reports whether this call wrote it.
	Insert(ctx context.Context, r *Report) (bool, error)
	Get(ctx context.Context, id string) (*Report, error)
	GetForWeek(ctx context.Context, clientID, weekID string) (*Report, error)
	MarkViewed(ctx context.Context, id string, at time.Time) error
	History(ctx context.Context, clientID string, limit int) ([]Report, error)
}

type gormRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewRepository(db *gorm.DB, node *snowflake.Node) Repository {
	return &gormRepository{db: db, node: node}
}

func (r *gormRepository) Insert(ctx context.Context, rep *Report) (bool, error) {
	if rep.ID == "" {
		rep.ID = r.node.Generate().String()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "week_id"}},
			DoNothing: true,
		}).
		Create(rep)
	if res.Error != nil {
		return false, db.Classify("failed to write engagement report", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) Get(ctx context.Context, id string) (*Report, error) {
	var rep Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, db.Classify("engagement report not found", err)
	}
	return &rep, nil
}

func (r *gormRepository) GetForWeek(ctx context.Context, clientID, weekID string) (*Report, error) {
	var rep Report
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND week_id = ?", clientID, weekID).
		First(&rep).Error
	if err != nil {
		return nil, db.Classify("engagement report not found", err)
	}
	return &rep, nil
}

// MarkViewed only touches unviewed reports, so the first view time sticks.
func (r *gormRepository) MarkViewed(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Report{}).
		Where("id = ? AND viewed = ?", id, false).
		Updates(map[string]any{"viewed": true, "viewed_at": at}).Error
	return db.Classify("failed to mark engagement report viewed", err)
}

func (r *gormRepository) History(ctx context.Context, clientID string, limit int) ([]Report, error) {
	query := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("week_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []Report
	if err := query.Find(&rows).Error; err != nil {
		return nil, db.Classify("failed to list engagement reports", err)
	}
	return rows, nil
}
