package scheduler

import (
	"context"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/pkg/task"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// weeklyJobs run once per ISO week, in this order.
var weeklyJobs = []string{
	taskname.ReportWeeklySendAll,
	taskname.RecognitionScan,
	taskname.EngagementGenerateAll,
}

type Scheduler struct {
	publisher task.Publisher
	weekday   time.Weekday
	hour      int
	enabled   bool
	now       func() time.Time
	after     func(time.Duration) <-chan time.Time
	logger    *zap.Logger
}

func NewScheduler(cfg *config.Config, publisher task.Publisher) *Scheduler {
	return &Scheduler{
		publisher: publisher,
		weekday:   time.Weekday(cfg.Schedule.Weekday),
		hour:      cfg.Schedule.Hour,
		enabled:   cfg.Schedule.Enable,
		now:       func() time.Time { return time.Now().UTC() },
		after:     time.After,
		logger:    zap.L().Named("scheduler"),
	}
}

// StartScheduler runs the weekly loop for the lifetime of the app.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	if !s.enabled {
		s.logger.Info("weekly scheduler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("started weekly scheduler",
		zap.Stringer("weekday", s.weekday), zap.Int("hour", s.hour))

	var last time.Time
	for {
		now := s.now()
		next := NextRun(now, s.weekday, s.hour)
		if next.Equal(last) {
			next = next.AddDate(0, 0, 7)
		}

		sleep := next.Sub(now)
		s.logger.Info("next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleep),
		)
		select {
		case <-s.after(sleep):
			last = next
			if err := s.RunWeekly(ctx, next); err != nil {
				s.logger.Error("weekly run failed", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Warn("stopped")
			return
		}
	}
}

// RunWeekly dispatches the weekly jobs for the ISO week containing at. Task
// ids carry the week so concurrent workers schedule each job once.
func (s *Scheduler) RunWeekly(ctx context.Context, at time.Time) error {
	start := time.Now()
	weekID := isoweek.Key(at)

	for _, name := range weeklyJobs {
		t, err := taskname.NewTask(name, taskname.ClientPayload{WeekID: weekID},
			asynq.TaskID(name+":"+weekID),
			asynq.MaxRetry(3),
		)
		if err != nil {
			return err
		}
		queued, err := s.publisher.Dispatch(ctx, t)
		if err != nil {
			s.logger.Error("failed to dispatch weekly job",
				zap.String("task_type", name), zap.String("week_id", weekID), zap.Error(err))
			continue
		}
		s.logger.Info("weekly job dispatched",
			zap.String("task_type", name), zap.String("week_id", weekID), zap.Bool("queued", queued))
	}

	s.logger.Info("finished weekly run",
		zap.String("week_id", weekID), zap.Duration("duration", time.Since(start)))
	return nil
}

// NextRun returns the first instant at or after now that falls on weekday at
// hour:00 UTC. A run scheduled for exactly now is returned as now.
func NextRun(now time.Time, weekday time.Weekday, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if next.Before(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
