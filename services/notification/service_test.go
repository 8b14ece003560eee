package notification

import (
	"context"
	"testing"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"
	"github.com/CleanExpo/LocalLift-sub000/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &directory.Client{}, &Notification{})
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	require.NoError(t, db.Create(&directory.Client{ID: "c1", Name: "Acme", Email: "acme@example.com", Active: true}).Error)

	return NewService(ServiceParams{
		Repository: NewRepository(db, node),
		Clients:    directory.NewRepository(db),
		Now:        testutil.FixedClock(time.Date(2025, time.April, 9, 9, 0, 0, 0, time.UTC)),
	})
}

func TestNotifyRecognition(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	n, err := svc.NotifyRecognition(ctx, "c1", "Badge Champion")
	require.NoError(t, err)
	require.Equal(t, TypeChampionRecognition, n.Type)
	require.Equal(t, "Congratulations! You've been recognized as a champion for Badge Champion.", n.Content)

	missing, err := svc.NotifyRecognition(ctx, "ghost", "Badge Champion")
	require.NoError(t, err)
	require.Nil(t, missing)

	rows, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestHandleNotifyTask(t *testing.T) {
	svc := newService(t)

	task, err := taskname.NewTask(taskname.RecognitionNotify, taskname.RecognitionPayload{ClientID: "c1", AchievementType: "mentor"})
	require.NoError(t, err)
	require.NoError(t, svc.HandleNotifyTask(context.Background(), task))

	rows, err := svc.List(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Contains(t, rows[0].Content, "mentor")

	bad, err := taskname.NewTask(taskname.RecognitionNotify, nil)
	require.NoError(t, err)
	// "null" decodes into a zero payload; the unknown client is skipped
	require.NoError(t, svc.HandleNotifyTask(context.Background(), bad))
}
