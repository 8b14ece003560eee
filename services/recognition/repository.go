package recognition

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"
	"github.com/CleanExpo/LocalLift-sub000/pkg/db/pagination"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository
	Thresholds(ctx context.Context) ([]Threshold, error)
	SaveThreshold(ctx context.Context, t *Threshold) error
	// InsertEvent appends an event. An automatic event that already exists
	// for (client, type) is skipped and the bool is false.
	InsertEvent(ctx context.Context, e *Event) (bool, error)
	AutomaticTypes(ctx context.Context, clientIDs []string) (map[string]map[string]struct{}, error)
	Events(ctx context.Context, cursor *pagination.Cursor, limit int) ([]Event, error)
}

type gormRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewRepository(db *gorm.DB, node *snowflake.Node) Repository {
	return &gormRepository{db: db, node: node}
}

func (r *gormRepository) WithTrx(tx *gorm.DB) Repository {
	return &gormRepository{db: tx, node: r.node}
}

func (r *gormRepository) Thresholds(ctx context.Context) ([]Threshold, error) {
	var rows []Threshold
	if err := r.db.WithContext(ctx).Order("type ASC").Find(&rows).Error; err != nil {
		return nil, db.Classify("failed to read recognition thresholds", err)
	}
	return rows, nil
}

func (r *gormRepository) SaveThreshold(ctx context.Context, t *Threshold) error {
	if t.ID == "" {
		t.ID = r.node.Generate().String()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(t).Error
	return db.Classify("failed to save recognition threshold", err)
}

func (r *gormRepository) InsertEvent(ctx context.Context, e *Event) (bool, error) {
	if e.ID == "" {
		e.ID = r.node.Generate().String()
	}

	query := r.db.WithContext(ctx)
	if e.Automatic {
		query = query.Clauses(clause.OnConflict{DoNothing: true})
	}
	res := query.Create(e)
	if res.Error != nil {
		return false, db.Classify("failed to write recognition event", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) AutomaticTypes(ctx context.Context, clientIDs []string) (map[string]map[string]struct{}, error) {
	out := map[string]map[string]struct{}{}
	if len(clientIDs) == 0 {
		return out, nil
	}

	var rows []Event
	err := r.db.WithContext(ctx).
		Select("client_id", "type").
		Where("automatic = ? AND client_id IN ?", true, clientIDs).
		Find(&rows).Error
	if err != nil {
		return nil, db.Classify("failed to read recognition events", err)
	}

	for _, row := range rows {
		if out[row.ClientID] == nil {
			out[row.ClientID] = map[string]struct{}{}
		}
		out[row.ClientID][row.Type] = struct{}{}
	}
	return out, nil
}

// Events pages through events newest first. It fetches limit+1 rows so the
// caller can tell whether another page exists.
func (r *gormRepository) Events(ctx context.Context, cursor *pagination.Cursor, limit int) ([]Event, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1)
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, db.Classify("failed to list recognition events", err)
	}
	return rows, nil
}
