package directory

import (
	"context"
	"strings"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, clientID string) (*Client, error)
	ListActive(ctx context.Context) ([]Client, error)
	ListByIDs(ctx context.Context, clientIDs []string) ([]Client, error)
	ConvertedReferrals(ctx context.Context, clientIDs []string) (map[string]int, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Get(ctx context.Context, clientID string) (*Client, error) {
	var client Client
	if err := r.db.WithContext(ctx).Where("id = ?", clientID).First(&client).Error; err != nil {
		return nil, db.Classify("client not found", err)
	}
	return &client, nil
}

func (r *gormRepository) ListActive(ctx context.Context) ([]Client, error) {
	var clients []Client
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&clients).Error
	if err != nil {
		return nil, db.Classify("failed to list active clients", err)
	}
	return clients, nil
}

func (r *gormRepository) ListByIDs(ctx context.Context, clientIDs []string) ([]Client, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	var clients []Client
	if err := r.db.WithContext(ctx).Where("id IN ?", clientIDs).Find(&clients).Error; err != nil {
		return nil, db.Classify("failed to load clients", err)
	}
	return clients, nil
}

// ConvertedReferrals counts converted referrals per referrer in one grouped read.
func (r *gormRepository) ConvertedReferrals(ctx context.Context, clientIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(clientIDs))
	if len(clientIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ReferrerID string
		Total      int
	}
	err := r.db.WithContext(ctx).Model(&Referral{}).
		Select("referrer_id, COUNT(*) AS total").
		Where("status = ? AND referrer_id IN ?", ReferralConverted, clientIDs).
		Group("referrer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, db.Classify("failed to count referrals", err)
	}

	for _, row := range rows {
		out[row.ReferrerID] = row.Total
	}
	return out, nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
