package notification

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Append(ctx context.Context, n *Notification) error
	List(ctx context.Context, clientID string) ([]Notification, error)
}

type gormRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewRepository(db *gorm.DB, node *snowflake.Node) Repository {
	return &gormRepository{db: db, node: node}
}

func (r *gormRepository) Append(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = r.node.Generate().String()
	}
	return db.Classify("failed to append notification", r.db.WithContext(ctx).Create(n).Error)
}

func (r *gormRepository) List(ctx context.Context, clientID string) ([]Notification, error) {
	var rows []Notification
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("sent_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, db.Classify("failed to read notifications", err)
	}
	return rows, nil
}
