package badge

import (
	"context"
	"errors"
	"testing"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestStoreFailuresAreRetryable(t *testing.T) {
	db, mock := newMockDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	repo := NewRepository(db, node)
	posts := NewPostView(db)

	mock.ExpectQuery(`SELECT \* FROM "badge_history"`).WillReturnError(errors.New("connection refused"))
	_, err = repo.ReadForWeek(context.Background(), "c1", "2025-W15")
	require.True(t, errutil.Is(err, errutil.StatusServiceUnavailable))
	require.True(t, errutil.IsRetryable(err))

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).WillReturnError(errors.New("i/o timeout"))
	_, err = posts.PostsForWeek(context.Background(), "c1", "2025-W15")
	require.True(t, errutil.IsRetryable(err))

	require.NoError(t, mock.ExpectationsWereMet())
}
