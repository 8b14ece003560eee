package report

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Append(ctx context.Context, log *EmailLog) error
	List(ctx context.Context, clientID string, limit int) ([]EmailLog, error)
}

type gormRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewRepository(db *gorm.DB, node *snowflake.Node) Repository {
	return &gormRepository{db: db, node: node}
}

func (r *gormRepository) Append(ctx context.Context, log *EmailLog) error {
	if log.ID == "" {
		log.ID = r.node.Generate().String()
	}
	return db.Classify("failed to append email log", r.db.WithContext(ctx).Create(log).Error)
}

func (r *gormRepository) List(ctx context.Context, clientID string, limit int) ([]EmailLog, error) {
	query := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []EmailLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, db.Classify("failed to list email logs", err)
	}
	return rows, nil
}
