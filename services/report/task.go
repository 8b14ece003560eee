package report

import (
	"context"
	"errors"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func (s *Service) HandleSendTask(ctx context.Context, t *asynq.Task) error {
	var payload taskname.ClientPayload
	if err := taskname.Decode(t, &payload); err != nil {
		return err
	}

	if _, err := s.SendFor(ctx, payload.ClientID, payload.Force); err != nil {
		s.logger.Error("weekly report task failed",
			zap.String("client_id", payload.ClientID), zap.Error(err))
		if errors.Is(err, asynq.SkipRetry) || errutil.IsRetryable(err) {
			return err
		}
	}
	return nil
}

func (s *Service) HandleSendAllTask(ctx context.Context, t *asynq.Task) error {
	if _, err := s.SendAll(ctx); err != nil {
		s.logger.Error("weekly report fan-out failed", zap.Error(err))
		if errutil.IsRetryable(err) {
			return err
		}
	}
	return nil
}

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.ReportWeeklySend, svc.HandleSendTask)
	mux.HandleFunc(taskname.ReportWeeklySendAll, svc.HandleSendAllTask)
}
