package recognition

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func (s *Service) HandleScanTask(ctx context.Context, t *asynq.Task) error {
	if _, err := s.Scan(ctx); err != nil {
		s.logger.Error("champion scan failed", zap.Error(err))
		if errutil.IsRetryable(err) {
			return err
		}
	}
	return nil
}

// DispatchScan queues a scan. The task id keeps one scan per minute.
func (s *Service) DispatchScan(ctx context.Context) error {
	t, err := taskname.NewTask(taskname.RecognitionScan, struct{}{},
		asynq.TaskID("recognition:scan:"+s.now().Format("200601021504")),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return errutil.Internal("failed to build scan task", err)
	}
	if _, err := s.publisher.Dispatch(ctx, t); err != nil {
		return errutil.Internal("failed to schedule champion scan", err)
	}
	return nil
}

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.RecognitionScan, svc.HandleScanTask)
}
