package achievement

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository
	// Insert appends a row. For automatic rows an existing (client, type,
	// label) makes it a no-op and the bool is false.
	Insert(ctx context.Context, a *Achievement) (bool, error)
	List(ctx context.Context, clientID string) ([]Achievement, error)
	AutomaticKeys(ctx context.Context, clientID string) (map[Key]struct{}, error)
	CountByClients(ctx context.Context, clientIDs []string) (map[string]int, error)
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

func (r *gormRepository) Insert(ctx context.Context, a *Achievement) (bool, error) {
	if a.ID == "" {
		a.ID = r.node.Generate().String()
	}

	query := r.db.WithContext(ctx)
	if a.Automatic {
		query = query.Clauses(clause.OnConflict{DoNothing: true})
	}

	res := query.Create(a)
	if res.Error != nil {
		return false, db.Classify("failed to write achievement", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) List(ctx context.Context, clientID string) ([]Achievement, error) {
	var rows []Achievement
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("earned_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, db.Classify("failed to read achievements", err)
	}
	return rows, nil
}

func (r *gormRepository) AutomaticKeys(ctx context.Context, clientID string) (map[Key]struct{}, error) {
	var rows []Achievement
	err := r.db.WithContext(ctx).
		Select("type", "label").
		Where("client_id = ? AND automatic = ?", clientID, true).
		Find(&rows).Error
	if err != nil {
		return nil, db.Classify("failed to read achievement keys", err)
	}

	keys := make(map[Key]struct{}, len(rows))
	for _, row := range rows {
		keys[row.Key()] = struct{}{}
	}
	return keys, nil
}

func (r *gormRepository) CountByClients(ctx context.Context, clientIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(clientIDs))
	if len(clientIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ClientID string
		Total    int
	}
	err := r.db.WithContext(ctx).Model(&Achievement{}).
		Select("client_id, COUNT(*) AS total").
		Where("client_id IN ?", clientIDs).
		Group("client_id").
		Scan(&rows).Error
	if err != nil {
		return nil, db.Classify("failed to count achievements", err)
	}

	for _, row := range rows {
		out[row.ClientID] = row.Total
	}
	return out, nil
}
