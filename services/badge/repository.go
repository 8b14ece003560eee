package badge

import (
	"context"
	"strconv"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FilterOp int

const (
	FilterAny FilterOp = iota
	FilterEqual
	FilterAtLeast
	FilterYear
)

// Filter selects badge rows by week key and, optionally, by client.
type Filter struct {
	Op        FilterOp
	WeekID    string
	Year      int
	ClientIDs []string
}

// Repository is the badge history store. Rows are inserted once per
// (client, week) and never updated.
type Repository interface {
	ReadForWeek(ctx context.Context, clientID, weekID string) (*Record, error)
	UpsertForWeek(ctx context.Context, clientID, weekID string, outcome Outcome) (*Record, bool, error)
	History(ctx context.Context, clientID string, limit int) ([]Record, error)
	AllForScope(ctx context.Context, filter Filter) ([]Record, error)
	ForClients(ctx context.Context, clientIDs []string) ([]Record, error)
	SaveStreak(ctx context.Context, streak Streak) error
	GetStreak(ctx context.Context, clientID string) (*Streak, error)
}

type gormRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewRepository(db *gorm.DB, node *snowflake.Node) Repository {
	return &gormRepository{db: db, node: node}
}

func (r *gormRepository) ReadForWeek(ctx context.Context, clientID, weekID string) (*Record, error) {
	var records []Record
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND week_id = ?", clientID, weekID).
		Limit(1).
		Find(&records).Error
	if err != nil {
		return nil, db.Classify("failed to read badge record", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// UpsertForWeek inserts the outcome unless a row already exists. The stored
// row is returned either way; the bool reports whether this call created it.
// A concurrent writer that loses the insert race reads the winner's row.
func (r *gormRepository) UpsertForWeek(ctx context.Context, clientID, weekID string, outcome Outcome) (*Record, bool, error) {
	rec := Record{
		ID:        r.node.Generate().String(),
		ClientID:  clientID,
		WeekID:    weekID,
		Earned:    outcome.Earned,
		Compliant: outcome.Compliant,
		Total:     outcome.Total,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "week_id"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return nil, false, db.Classify("failed to write badge record", res.Error)
	}

	stored, err := r.ReadForWeek(ctx, clientID, weekID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, db.Classify("badge record vanished after insert", gorm.ErrRecordNotFound)
	}
	return stored, res.RowsAffected > 0 && stored.ID == rec.ID, nil
}

func (r *gormRepository) History(ctx context.Context, clientID string, limit int) ([]Record, error) {
	query := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("week_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, db.Classify("failed to read badge history", err)
	}
	return records, nil
}

func (r *gormRepository) AllForScope(ctx context.Context, filter Filter) ([]Record, error) {
	query := r.db.WithContext(ctx).Model(&Record{})

	switch filter.Op {
	case FilterEqual:
		query = query.Where("week_id = ?", filter.WeekID)
	case FilterAtLeast:
		query = query.Where("week_id >= ?", filter.WeekID)
	case FilterYear:
		query = query.Where("week_id LIKE ?", strconv.Itoa(filter.Year)+"-%")
	}
	if filter.ClientIDs != nil {
		if len(filter.ClientIDs) == 0 {
			return nil, nil
		}
		query = query.Where("client_id IN ?", filter.ClientIDs)
	}

	var records []Record
	if err := query.Order("client_id ASC").Order("week_id ASC").Find(&records).Error; err != nil {
		return nil, db.Classify("failed to read badge records", err)
	}
	return records, nil
}

func (r *gormRepository) ForClients(ctx context.Context, clientIDs []string) ([]Record, error) {
	return r.AllForScope(ctx, Filter{Op: FilterAny, ClientIDs: clientIDs})
}

func (r *gormRepository) SaveStreak(ctx context.Context, streak Streak) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"streak_length", "current_streak", "updated_at"}),
		}).
		Create(&streak).Error
	return db.Classify("failed to save streak", err)
}

func (r *gormRepository) GetStreak(ctx context.Context, clientID string) (*Streak, error) {
	var streak Streak
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&streak).Error; err != nil {
		return nil, db.Classify("streak not found", err)
	}
	return &streak, nil
}
