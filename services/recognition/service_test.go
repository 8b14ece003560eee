package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/authz"
	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/db/pagination"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/pkg/middleware"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/achievement"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"
	"github.com/CleanExpo/LocalLift-sub000/services/notification"
	"github.com/CleanExpo/LocalLift-sub000/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	db            *gorm.DB
	badges        badge.Repository
	achievements  achievement.Repository
	notifications *notification.Service
	dispatcher    *testutil.RecordingDispatcher
	svc           *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t,
		&directory.Client{}, &directory.Referral{},
		&badge.Record{}, &achievement.Achievement{},
		&Event{}, &Threshold{}, &notification.Notification{},
	)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	clock := testutil.FixedClock(time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC))
	clients := directory.NewRepository(db)
	notifications := notification.NewService(notification.ServiceParams{
		Repository: notification.NewRepository(db, node),
		Clients:    clients,
		Now:        clock,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskname.RecognitionNotify, notifications.HandleNotifyTask)
	dispatcher := &testutil.RecordingDispatcher{Mux: mux}

	badges := badge.NewRepository(db, node)
	achievements := achievement.NewRepository(db, node)
	svc := NewService(ServiceParams{
		DB:           db,
		Repository:   NewRepository(db, node),
		Badges:       badges,
		Clients:      clients,
		Achievements: achievements,
		Publisher:    dispatcher,
		Now:          clock,
	})
	return &fixture{
		db:            db,
		badges:        badges,
		achievements:  achievements,
		notifications: notifications,
		dispatcher:    dispatcher,
		svc:           svc,
	}
}

func (f *fixture) client(t *testing.T, id, region string) {
	t.Helper()
	require.NoError(t, f.db.Create(&directory.Client{
		ID: id, Name: "Client " + id, Email: id + "@example.com", Region: region, Active: true,
	}).Error)
}

func (f *fixture) referrals(t *testing.T, referrerID string, converted, pending int) {
	t.Helper()
	n := 0
	add := func(status string) {
		n++
		require.NoError(t, f.db.Create(&directory.Referral{
			ID: referrerID + "-ref-" + string(rune('a'+n)), ReferrerID: referrerID, Status: status,
		}).Error)
	}
	for i := 0; i < converted; i++ {
		add(directory.ReferralConverted)
	}
	for i := 0; i < pending; i++ {
		add("pending")
	}
}

// weeks records consecutive weeks starting at start, earned as given.
func (f *fixture) weeks(t *testing.T, clientID, start string, earned ...bool) {
	t.Helper()
	week := start
	for _, e := range earned {
		compliant := 2
		if e {
			compliant = 5
		}
		_, _, err := f.badges.UpsertForWeek(context.Background(), clientID, week, badge.Outcome{Earned: e, Compliant: compliant, Total: 5})
		require.NoError(t, err)
		next, err := isoweek.Next(week)
		require.NoError(t, err)
		week = next
	}
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestScanRecognizesEveryMetThresholdOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 8 earned, one miss, 4 earned: 12 badges with a longest streak of 8.
	f.client(t, "champ", "NSW")
	history := append(repeat(true, 8), false)
	history = append(history, repeat(true, 4)...)
	f.weeks(t, "champ", "2025-W01", history...)
	f.referrals(t, "champ", 4, 2)

	f.client(t, "quiet", "VIC")
	f.weeks(t, "quiet", "2025-W01", true, true, false)

	res, err := f.svc.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Scanned)
	require.Len(t, res.Recognized, 3)
	require.Zero(t, res.Failed)

	var events []Event
	require.NoError(t, f.db.Order("type").Find(&events).Error)
	require.Len(t, events, 3)
	require.Equal(t, TypeBadgeChampion, events[0].Type)
	require.Equal(t, "Automatically recognized for earning 12 badges", events[0].Notes)
	require.Equal(t, TypeReferralChampion, events[1].Type)
	require.Equal(t, "Automatically recognized for 4 successful referrals", events[1].Notes)
	require.Equal(t, TypeStreakChampion, events[2].Type)
	require.Equal(t, "Automatically recognized for maintaining a 8-week streak", events[2].Notes)
	for _, e := range events {
		require.True(t, e.Automatic)
		require.Equal(t, "champ", e.ClientID)
	}

	rows, err := f.achievements.List(ctx, "champ")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, achievement.KindChampion, row.Type)
		require.Equal(t, ChampionPoints, row.Points)
	}

	notes, err := f.notifications.List(ctx, "champ")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	require.Len(t, f.dispatcher.TasksOf(taskname.RecognitionNotify), 3)

	// A second scan finds nothing new.
	res, err = f.svc.Scan(ctx)
	require.NoError(t, err)
	require.Empty(t, res.Recognized)

	var count int64
	require.NoError(t, f.db.Model(&Event{}).Count(&count).Error)
	require.Equal(t, int64(3), count)
	require.NoError(t, f.db.Model(&achievement.Achievement{}).Count(&count).Error)
	require.Equal(t, int64(3), count)
	require.Len(t, f.dispatcher.TasksOf(taskname.RecognitionNotify), 3)
}

func TestScanUsesConfiguredThresholds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client(t, "c1", "NSW")
	f.weeks(t, "c1", "2025-W01", true, true)

	_, err := f.svc.UpdateThreshold(ctx, ThresholdBadges, 2)
	require.NoError(t, err)

	res, err := f.svc.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, res.Recognized, 1)
	require.Equal(t, TypeBadgeChampion, res.Recognized[0].Type)
}

func TestThresholds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.svc.Thresholds(ctx)
	require.NoError(t, err)
	require.Equal(t, []Threshold{
		{Type: ThresholdBadges, Value: 10},
		{Type: ThresholdStreak, Value: 8},
		{Type: ThresholdReferrals, Value: 3},
	}, rows)

	_, err = f.svc.UpdateThreshold(ctx, ThresholdStreak, 4)
	require.NoError(t, err)
	_, err = f.svc.UpdateThreshold(ctx, ThresholdStreak, 6)
	require.NoError(t, err)

	rows, err = f.svc.Thresholds(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, rows[1].Value)

	var count int64
	require.NoError(t, f.db.Model(&Threshold{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	_, err = f.svc.UpdateThreshold(ctx, ThresholdStreak, 0)
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
	_, err = f.svc.UpdateThreshold(ctx, "posts", 5)
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
}

func TestRecognizeManual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "c1", "NSW")

	req := ManualRecognition{ClientID: "c1", AchievementType: "community_leader", CreatedBy: "admin-1"}
	res, err := f.svc.Recognize(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Client Client c1 successfully recognized as a champion for community_leader", res.Message)
	require.False(t, res.Event.Automatic)
	require.Equal(t, "admin-1", *res.Event.CreatedBy)

	// Manual recognitions are not deduplicated.
	_, err = f.svc.Recognize(ctx, req)
	require.NoError(t, err)

	rows, err := f.achievements.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Champion Recognition - community_leader", rows[0].Label)
	require.Equal(t, "Recognized as a champion for community_leader", rows[0].Description)

	notes, err := f.notifications.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "Congratulations! You've been recognized as a champion for community_leader.", notes[0].Content)

	_, err = f.svc.Recognize(ctx, ManualRecognition{ClientID: "ghost", AchievementType: "x"})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.Recognize(ctx, ManualRecognition{ClientID: "c1"})
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
}

func TestEventsPaginateNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "c1", "NSW")

	base := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := f.svc.repo.InsertEvent(ctx, &Event{
			ClientID:  "c1",
			Type:      TypeManual,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	page, err := f.svc.Events(ctx, pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.True(t, page.PageInfo.HasMore)
	require.True(t, page.Events[0].CreatedAt.Equal(base.Add(4*time.Hour)))

	seen := len(page.Events)
	for page.PageInfo.HasMore {
		page, err = f.svc.Events(ctx, pagination.Pagination{Limit: 2, Cursor: page.PageInfo.NextCursor})
		require.NoError(t, err)
		seen += len(page.Events)
	}
	require.Equal(t, 5, seen)
	require.True(t, page.Events[len(page.Events)-1].CreatedAt.Equal(base))

	_, err = f.svc.Events(ctx, pagination.Pagination{Cursor: "%%%"})
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
}

func TestTopChampions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client(t, "a", "NSW")
	f.weeks(t, "a", "2025-W01", true, true, true)
	f.client(t, "b", "NSW")
	f.weeks(t, "b", "2025-W01", true)
	f.referrals(t, "b", 1, 0)
	f.client(t, "c", "VIC")
	f.weeks(t, "c", "2025-W01", true, true, true, true)

	rows, err := f.svc.TopChampions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// c: 40+20, a: 30+15, b: 10+5+15
	require.Equal(t, "c", rows[0].ClientID)
	require.Equal(t, 60, rows[0].Score)
	require.Equal(t, "a", rows[1].ClientID)
	require.Equal(t, 45, rows[1].Score)
	require.Equal(t, "b", rows[2].ClientID)
	require.Equal(t, 30, rows[2].Score)
	require.Equal(t, 3, rows[2].Rank)

	rows, err = f.svc.TopChampions(ctx, "nsw", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0].ClientID)
}

func TestHandleScanTask(t *testing.T) {
	f := newFixture(t)
	f.client(t, "c1", "NSW")
	f.referrals(t, "c1", 3, 0)

	require.NoError(t, f.svc.HandleScanTask(context.Background(), asynq.NewTask(taskname.RecognitionScan, nil)))

	var count int64
	require.NoError(t, f.db.Model(&Event{}).Where("type = ?", TypeReferralChampion).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRoutes(t *testing.T) {
	f := newFixture(t)
	f.client(t, "c1", "NSW")

	enforcer, err := authz.NewEnforcer(&config.Config{})
	require.NoError(t, err)
	r := gin.New()
	r.Use(middleware.Error())
	RegisterRoutes(r, NewHandler(f.svc), enforcer)

	do := func(method, path, role string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(authz.HeaderUserID, "u1")
		req.Header.Set(authz.HeaderUserRole, role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	body := map[string]string{"client_id": "c1", "achievement_type": "mentor"}
	require.Equal(t, http.StatusForbidden, do(http.MethodPost, "/champions/recognize", "regional_manager", body).Code)

	w := do(http.MethodPost, "/champions/recognize", "admin", body)
	require.Equal(t, http.StatusOK, w.Code)
	var res RecognizeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Equal(t, "u1", *res.Event.CreatedBy)

	require.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/champions/recognize", "admin", map[string]string{}).Code)
	require.Equal(t, http.StatusNotFound, do(http.MethodPost, "/champions/recognize", "admin", map[string]string{"client_id": "ghost", "achievement_type": "x"}).Code)

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/champions/events", "regional_manager", nil).Code)
	require.Equal(t, http.StatusOK, do(http.MethodPut, "/champions/thresholds/badges", "admin", map[string]int{"value": 5}).Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/champions/thresholds/badges", "admin", map[string]int{"value": 0}).Code)
	require.Equal(t, http.StatusForbidden, do(http.MethodPut, "/champions/thresholds/badges", "franchise_manager", map[string]int{"value": 5}).Code)

	w = do(http.MethodGet, "/champions/thresholds", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var thresholds []Threshold
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thresholds))
	require.Equal(t, 5, thresholds[0].Value)

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/champions/top?limit=5", "regional_manager", nil).Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/champions/top?limit=500", "regional_manager", nil).Code)
	require.Equal(t, http.StatusForbidden, do(http.MethodGet, "/champions/top", "", nil).Code)
}
