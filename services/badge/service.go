package badge

import (
	"context"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/pkg/task"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const DefaultHistoryLimit = 12

type Service struct {
	repo      Repository
	posts     PostView
	clients   directory.Repository
	publisher task.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

type ServiceParams struct {
	fx.In

	Repository Repository
	Posts      PostView
	Clients    directory.Repository
	Publisher  task.Publisher   `optional:"true"`
	Logger     *zap.Logger      `optional:"true"`
	Now        func() time.Time `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      p.Repository,
		posts:     p.Posts,
		clients:   p.Clients,
		publisher: p.Publisher,
		logger:    logger,
		now:       func() time.Time { return now().UTC() },
	}
}

type StatusResult struct {
	Outcome
	Message string `json:"message"`
	WeekID  string `json:"week_id"`
}

// Status evaluates the current ISO week for a client and records the
// outcome the first time posts exist for that week. Once recorded the week's
// outcome is fixed.
func (s *Service) Status(ctx context.Context, clientID string) (*StatusResult, error) {
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return nil, err
	}

	weekID := isoweek.Key(s.now())

	existing, err := s.repo.ReadForWeek(ctx, clientID, weekID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return newStatusResult(existing.Outcome(), weekID), nil
	}

	count, err := s.posts.PostsForWeek(ctx, clientID, weekID)
	if err != nil {
		return nil, err
	}

	outcome := Evaluate(count.Total, count.Compliant)
	evaluationsTotal.WithLabelValues(outcomeLabel(outcome)).Inc()
	if outcome.Total == 0 {
		return newStatusResult(outcome, weekID), nil
	}

	record, inserted, err := s.repo.UpsertForWeek(ctx, clientID, weekID, outcome)
	if err != nil {
		return nil, err
	}
	if inserted {
		recordsInsertedTotal.Inc()
		s.logger.Info("badge recorded",
			zap.String("client_id", clientID),
			zap.String("week_id", weekID),
			zap.Bool("earned", record.Earned),
		)
		s.afterInsert(ctx, clientID, weekID)
	}

	return newStatusResult(record.Outcome(), weekID), nil
}

// afterInsert refreshes the derived streak row and schedules achievement
// detection. Failures here never fail the status call.
func (s *Service) afterInsert(ctx context.Context, clientID, weekID string) {
	if _, err := s.RefreshStreak(ctx, clientID); err != nil {
		s.logger.Warn("failed to refresh streak", zap.String("client_id", clientID), zap.Error(err))
	}

	if s.publisher == nil {
		return
	}
	t, err := taskname.NewTask(taskname.AchievementCheck, taskname.ClientPayload{ClientID: clientID, WeekID: weekID})
	if err != nil {
		s.logger.Error("failed to build achievement task", zap.Error(err))
		return
	}
	if _, err := s.publisher.Dispatch(ctx, t); err != nil {
		s.logger.Error("failed to dispatch achievement check", zap.String("client_id", clientID), zap.Error(err))
	}
}

// RefreshStreak recomputes and persists the client's streaks.
func (s *Service) RefreshStreak(ctx context.Context, clientID string) (Streaks, error) {
	records, err := s.repo.History(ctx, clientID, 0)
	if err != nil {
		return Streaks{}, err
	}
	streaks := ComputeStreaks(records)
	err = s.repo.SaveStreak(ctx, Streak{
		ClientID:      clientID,
		StreakLength:  streaks.Longest,
		CurrentStreak: streaks.Current,
		UpdatedAt:     s.now(),
	})
	return streaks, err
}

type HistoryEntry struct {
	Record
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	DateRange string `json:"date_range"`
}

// History returns the latest limit records, newest first, with a readable
// date range for each week.
func (s *Service) History(ctx context.Context, clientID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	records, err := s.repo.History(ctx, clientID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		entry := HistoryEntry{Record: r}
		if start, end, label, err := isoweek.DateRange(r.WeekID); err == nil {
			entry.StartDate, entry.EndDate, entry.DateRange = start, end, label
		} else {
			s.logger.Warn("badge record has malformed week", zap.String("id", r.ID), zap.String("week_id", r.WeekID))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type Statistics struct {
	TotalWeeks          int     `json:"total_weeks"`
	BadgesEarned        int     `json:"badges_earned"`
	ComplianceRate      float64 `json:"compliance_rate"`
	CurrentStreak       int     `json:"current_streak"`
	LongestStreak       int     `json:"longest_streak"`
	TotalCompliantPosts int     `json:"total_compliant_posts"`
	TotalPosts          int     `json:"total_posts"`
	AverageWeeklyPosts  float64 `json:"average_weekly_posts"`
	HistoryAvailable    bool    `json:"history_available"`
}

func (s *Service) Statistics(ctx context.Context, clientID string) (*Statistics, error) {
	records, err := s.repo.History(ctx, clientID, 0)
	if err != nil {
		return nil, err
	}

	summary := Summarize(records)
	streaks := ComputeStreaks(records)
	return &Statistics{
		TotalWeeks:          summary.TotalWeeks,
		BadgesEarned:        summary.BadgesEarned,
		ComplianceRate:      summary.ComplianceRate,
		CurrentStreak:       streaks.Current,
		LongestStreak:       streaks.Longest,
		TotalCompliantPosts: summary.TotalCompliantPosts,
		TotalPosts:          summary.TotalPosts,
		AverageWeeklyPosts:  summary.AveragePosts,
		HistoryAvailable:    len(records) > 0,
	}, nil
}

// CurrentWeek evaluates the current week without recording anything.
func (s *Service) CurrentWeek(ctx context.Context, clientID string) (Outcome, string, error) {
	weekID := isoweek.Key(s.now())
	if existing, err := s.repo.ReadForWeek(ctx, clientID, weekID); err != nil {
		return Outcome{}, weekID, err
	} else if existing != nil {
		return existing.Outcome(), weekID, nil
	}

	count, err := s.posts.PostsForWeek(ctx, clientID, weekID)
	if err != nil {
		return Outcome{}, weekID, err
	}
	return Evaluate(count.Total, count.Compliant), weekID, nil
}

func newStatusResult(o Outcome, weekID string) *StatusResult {
	return &StatusResult{Outcome: o, Message: o.Message(), WeekID: weekID}
}

func outcomeLabel(o Outcome) string {
	switch {
	case o.Total == 0:
		return "no_posts"
	case o.Earned:
		return "earned"
	default:
		return "missed"
	}
}
