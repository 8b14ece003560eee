package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/authz"
	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/middleware"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/achievement"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"
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
	db           *gorm.DB
	badges       badge.Repository
	achievements achievement.Repository
	dispatcher   *testutil.RecordingDispatcher
	clock        time.Time
	svc          *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t,
		&directory.Client{}, &badge.Post{}, &badge.Record{},
		&achievement.Achievement{}, &Report{},
	)
	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	f := &fixture{
		db:           db,
		badges:       badge.NewRepository(db, node),
		achievements: achievement.NewRepository(db, node),
		dispatcher:   &testutil.RecordingDispatcher{},
		clock:        time.Date(2025, time.April, 16, 10, 0, 0, 0, time.UTC), // 2025-W16
	}
	f.svc = NewService(ServiceParams{
		Repository:   NewRepository(db, node),
		Clients:      directory.NewRepository(db),
		Posts:        badge.NewPostView(db),
		Badges:       f.badges,
		Achievements: f.achievements,
		Publisher:    f.dispatcher,
		Now:          func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) client(t *testing.T, id string, active bool) {
	t.Helper()
	require.NoError(t, f.db.Create(&directory.Client{ID: id, Name: "Client " + id, Active: active}).Error)
}

func (f *fixture) posts(t *testing.T, clientID, weekID string, compliant, nonCompliant int) {
	t.Helper()
	yes, no := true, false
	for i := 0; i < compliant+nonCompliant; i++ {
		flag := &yes
		if i >= compliant {
			flag = &no
		}
		require.NoError(t, f.db.Create(&badge.Post{
			ID: fmt.Sprintf("%s-%s-%d", clientID, weekID, i), ClientID: clientID, WeekID: weekID, Compliant: flag,
		}).Error)
	}
}

// seed gives c1 earned badges in W13 and W14 and a partial W15.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.client(t, "c1", true)
	for _, week := range []string{"2025-W13", "2025-W14"} {
		_, _, err := f.badges.UpsertForWeek(ctx, "c1", week, badge.Outcome{Earned: true, Compliant: 5, Total: 5})
		require.NoError(t, err)
	}
	f.posts(t, "c1", "2025-W14", 5, 0)
	f.posts(t, "c1", "2025-W15", 3, 1)

	_, err := f.achievements.Insert(ctx, &achievement.Achievement{
		ClientID:  "c1",
		Type:      achievement.KindMilestone,
		Label:     "First Badge",
		Automatic: false,
		EarnedAt:  time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC), // W14
	})
	require.NoError(t, err)
}

func TestGenerateLastWeek(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	rep, err := f.svc.Generate(context.Background(), "c1", "")
	require.NoError(t, err)
	require.Equal(t, "2025-W15", rep.WeekID)
	require.Equal(t, time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC), rep.StartDate)

	require.Equal(t, Metrics{
		Posts:              4,
		CompliantPosts:     3,
		ComplianceRate:     75,
		LongestStreak:      2,
		BadgesToDate:       2,
		AchievementsToDate: 1,
	}, rep.Metrics.Data())
	require.Equal(t, Metrics{
		Posts:              5,
		CompliantPosts:     5,
		ComplianceRate:     100,
		BadgeEarned:        true,
		CurrentStreak:      2,
		LongestStreak:      2,
		BadgesToDate:       2,
		AchievementsToDate: 1,
	}, rep.PreviousMetrics.Data())

	trends := rep.Trends.Data()
	require.Equal(t, Trend{Direction: DirectionDown, ChangePercentage: -20, ChangeValue: -1}, trends["posts"])
	require.Equal(t, DirectionDown, trends["current_streak"].Direction)

	require.Len(t, rep.Insights, 2)
	require.Equal(t, "Your compliance rate dropped to 75% from 100% last week.", rep.Insights[0].Description)
	require.Equal(t, "Badge streak ended", rep.Insights[1].Title)
	require.Len(t, rep.Recommendations, 2)
	require.Equal(t, "compliance", rep.Recommendations[0].Category)
	require.Equal(t, "recognition", rep.Recommendations[1].Category)
}

func TestGenerateIsInsertIfAbsent(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	first, err := f.svc.Generate(ctx, "c1", "2025-W14")
	require.NoError(t, err)

	// Later posts do not rewrite a stored report.
	f.posts(t, "c1", "2025-W12", 2, 0)
	second, err := f.svc.Generate(ctx, "c1", "2025-W14")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Metrics.Data(), second.Metrics.Data())

	var count int64
	require.NoError(t, f.db.Model(&Report{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.Insights, stored.Insights)
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture(t)
	f.client(t, "c1", true)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "c1", "2025-W54")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))

	_, err = f.svc.Generate(ctx, "ghost", "2025-W10")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.Get(ctx, "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestMarkViewedKeepsFirstView(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	rep, err := f.svc.Generate(ctx, "c1", "2025-W15")
	require.NoError(t, err)
	require.False(t, rep.Viewed)

	firstView := f.clock
	rep, err = f.svc.MarkViewed(ctx, rep.ID)
	require.NoError(t, err)
	require.True(t, rep.Viewed)
	require.True(t, rep.ViewedAt.Equal(firstView))

	f.clock = f.clock.Add(48 * time.Hour)
	rep, err = f.svc.MarkViewed(ctx, rep.ID)
	require.NoError(t, err)
	require.True(t, rep.ViewedAt.Equal(firstView))
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	for _, week := range []string{"2025-W13", "2025-W15", "2025-W14"} {
		_, err := f.svc.Generate(ctx, "c1", week)
		require.NoError(t, err)
	}

	rows, err := f.svc.History(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2025-W15", rows[0].WeekID)
	require.Equal(t, "2025-W14", rows[1].WeekID)
}

func TestGenerateAll(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.client(t, "c2", true)
	f.client(t, "c3", false)

	mux := asynq.NewServeMux()
	registerHandlers(mux, f.svc)
	f.dispatcher.Mux = mux

	require.NoError(t, f.svc.HandleGenerateAllTask(context.Background(), asynq.NewTask(taskname.EngagementGenerateAll, nil)))
	require.Len(t, f.dispatcher.TasksOf(taskname.EngagementGenerate), 2)

	var reports []Report
	require.NoError(t, f.db.Order("client_id").Find(&reports).Error)
	require.Len(t, reports, 2)
	require.Equal(t, "c1", reports[0].ClientID)
	require.Equal(t, "c2", reports[1].ClientID)
	require.Equal(t, "2025-W15", reports[1].WeekID)
	require.Zero(t, reports[1].Metrics.Data().Posts)
}

func TestRoutes(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	rep, err := f.svc.Generate(context.Background(), "c1", "2025-W15")
	require.NoError(t, err)

	enforcer, err := authz.NewEnforcer(&config.Config{})
	require.NoError(t, err)
	r := gin.New()
	r.Use(middleware.Error())
	RegisterRoutes(r, NewHandler(f.svc, enforcer))

	do := func(method, path, user, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(authz.HeaderUserID, user)
		req.Header.Set(authz.HeaderUserRole, role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/engagement/c1/reports", "c1", "client")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)

	require.Equal(t, http.StatusForbidden, do(http.MethodGet, "/engagement/c1/reports", "c2", "client").Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/engagement/c1/reports?limit=0", "c1", "client").Code)

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/engagement/reports/"+rep.ID, "c1", "client").Code)
	require.Equal(t, http.StatusOK, do(http.MethodGet, "/engagement/reports/"+rep.ID, "m1", "regional_manager").Code)
	require.Equal(t, http.StatusForbidden, do(http.MethodGet, "/engagement/reports/"+rep.ID, "c2", "client").Code)
	require.Equal(t, http.StatusNotFound, do(http.MethodGet, "/engagement/reports/missing", "c1", "client").Code)
	require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/engagement/reports/"+rep.ID, "", "").Code)

	w = do(http.MethodPost, "/engagement/reports/"+rep.ID+"/viewed", "c1", "client")
	require.Equal(t, http.StatusOK, w.Code)
	var viewed Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewed))
	require.True(t, viewed.Viewed)

	w = do(http.MethodPost, "/engagement/c1/reports?week=2025-W14", "c1", "client")
	require.Equal(t, http.StatusOK, w.Code)
}
