package achievement

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// HandleCheckTask runs detection for the client named in an
// achievement:check task. Only transient store failures are retried.
func (s *Service) HandleCheckTask(ctx context.Context, t *asynq.Task) error {
	var payload taskname.ClientPayload
	if err := taskname.Decode(t, &payload); err != nil {
		return err
	}

	log := s.logger.With(zap.String("task_type", t.Type()), zap.String("client_id", payload.ClientID))

	added, err := s.Check(ctx, payload.ClientID)
	if err != nil {
		log.Error("achievement check failed", zap.Error(err))
		if errutil.IsRetryable(err) {
			return err
		}
		return nil
	}

	log.Debug("achievement check done", zap.Int("added", len(added)))
	return nil
}

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.AchievementCheck, svc.HandleCheckTask)
}
