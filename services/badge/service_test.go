package badge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"
	"github.com/CleanExpo/LocalLift-sub000/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var now = time.Date(2025, time.April, 9, 14, 0, 0, 0, time.UTC) // 2025-W15

type fixture struct {
	db         *gorm.DB
	repo       Repository
	dispatcher *testutil.RecordingDispatcher
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &directory.Client{}, &Post{}, &Record{}, &Streak{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := NewRepository(db, node)
	dispatcher := &testutil.RecordingDispatcher{}
	svc := NewService(ServiceParams{
		Repository: repo,
		Posts:      NewPostView(db),
		Clients:    directory.NewRepository(db),
		Publisher:  dispatcher,
		Now:        testutil.FixedClock(now),
	})
	return &fixture{db: db, repo: repo, dispatcher: dispatcher, svc: svc}
}

func (f *fixture) client(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.db.Create(&directory.Client{ID: id, Name: "Client " + id, Active: true}).Error)
}

func (f *fixture) posts(t *testing.T, clientID, weekID string, compliant, nonCompliant int) {
	t.Helper()
	yes, no := true, false
	for i := 0; i < compliant+nonCompliant; i++ {
		flag := &yes
		if i >= compliant {
			flag = &no
		}
		require.NoError(t, f.db.Create(&Post{
			ID:        fmt.Sprintf("%s-%s-%d", clientID, weekID, i),
			ClientID:  clientID,
			WeekID:    weekID,
			Compliant: flag,
		}).Error)
	}
}

func (f *fixture) record(t *testing.T, clientID, weekID string, earned bool) {
	t.Helper()
	compliant := 2
	if earned {
		compliant = 5
	}
	_, _, err := f.repo.UpsertForWeek(context.Background(), clientID, weekID, Outcome{Earned: earned, Compliant: compliant, Total: 5})
	require.NoError(t, err)
}

func TestStatusRecordsEarnedWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "c1")
	f.posts(t, "c1", "2025-W15", 5, 0)

	res, err := f.svc.Status(ctx, "c1")
	require.NoError(t, err)
	require.True(t, res.Earned)
	require.Equal(t, 5, res.Compliant)
	require.Equal(t, 5, res.Total)
	require.Equal(t, "2025-W15", res.WeekID)
	require.Equal(t, "🎖️ Congrats! You earned your weekly compliance badge!", res.Message)

	var count int64
	require.NoError(t, f.db.Model(&Record{}).Where("client_id = ?", "c1").Count(&count).Error)
	require.Equal(t, int64(1), count)

	tasks := f.dispatcher.TasksOf(taskname.AchievementCheck)
	require.Len(t, tasks, 1)
	var payload taskname.ClientPayload
	require.NoError(t, taskname.Decode(tasks[0], &payload))
	require.Equal(t, "c1", payload.ClientID)
	require.Equal(t, "2025-W15", payload.WeekID)

	streak, err := f.repo.GetStreak(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, streak.CurrentStreak)
	require.Equal(t, 1, streak.StreakLength)
}

func TestStatusOutcomeIsWriteOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "c2")
	f.posts(t, "c2", "2025-W15", 2, 1)

	res, err := f.svc.Status(ctx, "c2")
	require.NoError(t, err)
	require.False(t, res.Earned)
	require.Equal(t, 2, res.Compliant)
	require.Equal(t, 3, res.Total)
	require.Equal(t, "You posted 2/3 times this week. Keep pushing to get your badge!", res.Message)

	// more posts later in the week do not change the stored outcome
	for i := 0; i < 4; i++ {
		yes := true
		require.NoError(t, f.db.Create(&Post{ID: fmt.Sprintf("late-%d", i), ClientID: "c2", WeekID: "2025-W15", Compliant: &yes}).Error)
	}

	again, err := f.svc.Status(ctx, "c2")
	require.NoError(t, err)
	require.False(t, again.Earned)
	require.Equal(t, 2, again.Compliant)
	require.Equal(t, 3, again.Total)
	require.Len(t, f.dispatcher.TasksOf(taskname.AchievementCheck), 1)
}

func TestStatusWithoutPostsDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	f.client(t, "c3")

	res, err := f.svc.Status(context.Background(), "c3")
	require.NoError(t, err)
	require.False(t, res.Earned)
	require.Zero(t, res.Total)
	require.Equal(t, "You posted 0/0 times this week. Keep pushing to get your badge!", res.Message)

	var count int64
	require.NoError(t, f.db.Model(&Record{}).Count(&count).Error)
	require.Zero(t, count)
	require.Empty(t, f.dispatcher.Tasks())
}

func TestStatusUnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Status(context.Background(), "ghost")
	require.Error(t, err)
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestConcurrentUpsertKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*Record, 8)
	inserted := make([]bool, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], inserted[i], errs[i] = f.repo.UpsertForWeek(ctx, "c4", "2025-W15", Outcome{Earned: i%2 == 0, Compliant: 5, Total: 5 + i})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, f.db.Model(&Record{}).Where("client_id = ?", "c4").Count(&count).Error)
	require.Equal(t, int64(1), count)

	winners := 0
	for i, rec := range results {
		require.Equal(t, results[0].ID, rec.ID)
		require.Equal(t, results[0].Total, rec.Total)
		if inserted[i] {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	for _, week := range []string{"2025-W12", "2025-W13", "2025-W14", "2025-W15"} {
		f.record(t, "c5", week, true)
	}

	entries, err := f.svc.History(context.Background(), "c5", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "2025-W15", entries[0].WeekID)
	require.Equal(t, "2025-W13", entries[2].WeekID)
	require.Equal(t, "Apr 07", entries[0].StartDate)
	require.Equal(t, "Apr 13", entries[0].EndDate)
	require.Equal(t, "Apr 07 - Apr 13", entries[0].DateRange)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	for _, week := range []string{"2025-W10", "2025-W11", "2025-W12", "2025-W13", "2025-W14"} {
		f.record(t, "c6", week, true)
	}
	f.record(t, "c6", "2025-W15", false)

	stats, err := f.svc.Statistics(context.Background(), "c6")
	require.NoError(t, err)
	require.Equal(t, 6, stats.TotalWeeks)
	require.Equal(t, 5, stats.BadgesEarned)
	require.Equal(t, 83.3, stats.ComplianceRate)
	require.Equal(t, 0, stats.CurrentStreak)
	require.Equal(t, 5, stats.LongestStreak)
	require.Equal(t, 27, stats.TotalCompliantPosts)
	require.Equal(t, 30, stats.TotalPosts)
	require.Equal(t, 5.0, stats.AverageWeeklyPosts)
	require.True(t, stats.HistoryAvailable)

	empty, err := f.svc.Statistics(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, empty.HistoryAvailable)
	require.Zero(t, empty.ComplianceRate)
}

func TestAllForScopeFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, "a", "2024-W52", true)
	f.record(t, "a", "2025-W14", true)
	f.record(t, "b", "2025-W15", false)

	all, err := f.repo.AllForScope(ctx, Filter{Op: FilterAny})
	require.NoError(t, err)
	require.Len(t, all, 3)

	eq, err := f.repo.AllForScope(ctx, Filter{Op: FilterEqual, WeekID: "2025-W15"})
	require.NoError(t, err)
	require.Len(t, eq, 1)
	require.Equal(t, "b", eq[0].ClientID)

	since, err := f.repo.AllForScope(ctx, Filter{Op: FilterAtLeast, WeekID: "2025-W14"})
	require.NoError(t, err)
	require.Len(t, since, 2)

	year, err := f.repo.AllForScope(ctx, Filter{Op: FilterYear, Year: 2024})
	require.NoError(t, err)
	require.Len(t, year, 1)

	none, err := f.repo.AllForScope(ctx, Filter{Op: FilterAny, ClientIDs: []string{}})
	require.NoError(t, err)
	require.Empty(t, none)

	scoped, err := f.repo.ForClients(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, scoped, 2)
}
