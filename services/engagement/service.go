package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/pkg/task"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/achievement"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service struct {
	repo         Repository
	clients      directory.Repository
	posts        badge.PostView
	badges       badge.Repository
	achievements achievement.Repository
	publisher    task.Publisher
	logger       *zap.Logger
	now          func() time.Time
}

type ServiceParams struct {
	fx.In

	Repository   Repository
	Clients      directory.Repository
	Posts        badge.PostView
	Badges       badge.Repository
	Achievements achievement.Repository
	Publisher    task.Publisher   `optional:"true"`
	Logger       *zap.Logger      `optional:"true"`
	Now          func() time.Time `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.L()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         p.Repository,
		clients:      p.Clients,
		posts:        p.Posts,
		badges:       p.Badges,
		achievements: p.Achievements,
		publisher:    p.Publisher,
		logger:       logger.Named("engagement"),
		now:          func() time.Time { return now().UTC() },
	}
}

// LastWeek is the most recent completed ISO week.
func (s *Service) LastWeek() string {
	return isoweek.Key(s.now().AddDate(0, 0, -7))
}

// Generate builds the client's report for the week, or returns the one
// already stored. An empty week means the last completed week.
func (s *Service) Generate(ctx context.Context, clientID, weekID string) (*Report, error) {
	if weekID == "" {
		weekID = s.LastWeek()
	}
	start, end, err := isoweek.BoundsOf(weekID)
	if err != nil {
		return nil, errutil.Invalid(fmt.Sprintf("invalid week %q", weekID), err)
	}

	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetForWeek(ctx, clientID, weekID)
	if err == nil {
		return existing, nil
	}
	if !errutil.Is(err, errutil.StatusNotFound) {
		return nil, err
	}

	history, err := s.badges.History(ctx, clientID, 0)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.List(ctx, clientID)
	if err != nil {
		return nil, err
	}

	current, err := s.metricsFor(ctx, clientID, weekID, history, earned)
	if err != nil {
		return nil, err
	}
	prevWeek, err := isoweek.Prev(weekID)
	if err != nil {
		return nil, errutil.Invalid(fmt.Sprintf("invalid week %q", weekID), err)
	}
	previous, err := s.metricsFor(ctx, clientID, prevWeek, history, earned)
	if err != nil {
		return nil, err
	}

	trends := Trends(current, previous)
	insights := Insights(trends, current, previous)
	report := &Report{
		ClientID:        clientID,
		WeekID:          weekID,
		StartDate:       start,
		EndDate:         end,
		Metrics:         datatypes.NewJSONType(current),
		PreviousMetrics: datatypes.NewJSONType(previous),
		Trends:          datatypes.NewJSONType(trends),
		Insights:        datatypes.NewJSONSlice(insights),
		Recommendations: datatypes.NewJSONSlice(Recommendations(insights, current)),
		CreatedAt:       s.now(),
	}

	inserted, err := s.repo.Insert(ctx, report)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.repo.GetForWeek(ctx, clientID, weekID)
	}

	s.logger.Info("engagement report generated",
		zap.String("client_id", clientID),
		zap.String("week_id", weekID),
		zap.Int("insights", len(insights)),
	)
	return report, nil
}

// metricsFor reads the week's posts and derives badge figures from the
// history up to and including that week.
func (s *Service) metricsFor(ctx context.Context, clientID, weekID string, history []badge.Record, earned []achievement.Achievement) (Metrics, error) {
	count, err := s.posts.PostsForWeek(ctx, clientID, weekID)
	if err != nil {
		return Metrics{}, err
	}

	var (
		upto     []badge.Record
		recorded *badge.Record
	)
	for i := range history {
		if history[i].WeekID > weekID {
			continue
		}
		upto = append(upto, history[i])
		if history[i].WeekID == weekID {
			recorded = &history[i]
		}
	}

	outcome := badge.Evaluate(count.Total, count.Compliant)
	if recorded != nil {
		outcome = recorded.Outcome()
	} else if count.Total > 0 {
		upto = append(upto, badge.Record{ClientID: clientID, WeekID: weekID, Earned: outcome.Earned})
	}

	_, end, err := isoweek.BoundsOf(weekID)
	if err != nil {
		return Metrics{}, errutil.Invalid(fmt.Sprintf("invalid week %q", weekID), err)
	}
	achievements := 0
	for _, a := range earned {
		if !a.EarnedAt.After(end) {
			achievements++
		}
	}

	var rate float64
	if count.Total > 0 {
		rate = badge.Round1(float64(count.Compliant) / float64(count.Total) * 100)
	}
	streaks := badge.ComputeStreaks(upto)
	return Metrics{
		Posts:              count.Total,
		CompliantPosts:     count.Compliant,
		ComplianceRate:     rate,
		BadgeEarned:        outcome.Earned,
		CurrentStreak:      streaks.Current,
		LongestStreak:      streaks.Longest,
		BadgesToDate:       badge.Summarize(upto).BadgesEarned,
		AchievementsToDate: achievements,
	}, nil
}

func (s *Service) Get(ctx context.Context, reportID string) (*Report, error) {
	return s.repo.Get(ctx, reportID)
}

// MarkViewed records the first time the client opened the report.
func (s *Service) MarkViewed(ctx context.Context, reportID string) (*Report, error) {
	if _, err := s.repo.Get(ctx, reportID); err != nil {
		return nil, err
	}
	if err := s.repo.MarkViewed(ctx, reportID, s.now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, reportID)
}

func (s *Service) History(ctx context.Context, clientID string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.History(ctx, clientID, limit)
}

// GenerateAll queues last week's report for every active client.
func (s *Service) GenerateAll(ctx context.Context) (int, error) {
	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	weekID := s.LastWeek()
	queued := 0
	for _, c := range clients {
		t, err := taskname.NewTask(taskname.EngagementGenerate,
			taskname.ClientPayload{ClientID: c.ID, WeekID: weekID},
			asynq.TaskID(fmt.Sprintf("%s:%s:%s", taskname.EngagementGenerate, weekID, c.ID)),
		)
		if err == nil {
			_, err = s.publisher.Dispatch(ctx, t)
		}
		if err != nil {
			s.logger.Error("failed to queue engagement report", zap.String("client_id", c.ID), zap.Error(err))
			continue
		}
		queued++
	}

	s.logger.Info("engagement reports queued", zap.String("week_id", weekID), zap.Int("queued", queued))
	return queued, nil
}
