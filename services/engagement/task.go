package engagement

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func (s *Service) HandleGenerateTask(ctx context.Context, t *asynq.Task) error {
	var payload taskname.ClientPayload
	if err := taskname.Decode(t, &payload); err != nil {
		return err
	}

	if _, err := s.Generate(ctx, payload.ClientID, payload.WeekID); err != nil {
		s.logger.Error("engagement report task failed",
			zap.String("client_id", payload.ClientID),
			zap.String("week_id", payload.WeekID),
			zap.Error(err),
		)
		if errutil.IsRetryable(err) {
			return err
		}
	}
	return nil
}

func (s *Service) HandleGenerateAllTask(ctx context.Context, t *asynq.Task) error {
	if _, err := s.GenerateAll(ctx); err != nil {
		s.logger.Error("engagement fan-out failed", zap.Error(err))
		if errutil.IsRetryable(err) {
			return err
		}
	}
	return nil
}

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.EngagementGenerate, svc.HandleGenerateTask)
	mux.HandleFunc(taskname.EngagementGenerateAll, svc.HandleGenerateAllTask)
}
