package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	repo    Repository
	clients directory.Repository
	logger  *zap.Logger
	now     func() time.Time
}

type ServiceParams struct {
	fx.In

	Repository Repository
	Clients    directory.Repository
	Logger     *zap.Logger      `optional:"true"`
	Now        func() time.Time `optional:"true"`
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
		repo:    p.Repository,
		clients: p.Clients,
		logger:  logger.Named("notification"),
		now:     func() time.Time { return now().UTC() },
	}
}

// NotifyRecognition records a champion notification for the client. A
// client that no longer exists is logged and skipped.
func (s *Service) NotifyRecognition(ctx context.Context, clientID, achievementType string) (*Notification, error) {
	client, err := s.clients.Get(ctx, clientID)
	if errutil.Is(err, errutil.StatusNotFound) {
		s.logger.Error("client not found for notification", zap.String("client_id", clientID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	n := &Notification{
		ClientID: clientID,
		Type:     TypeChampionRecognition,
		Content:  fmt.Sprintf("Congratulations! You've been recognized as a champion for %s.", achievementType),
		SentAt:   s.now(),
	}
	if err := s.repo.Append(ctx, n); err != nil {
		return nil, err
	}

	s.logger.Info("champion recognition notification recorded",
		zap.String("client_id", clientID),
		zap.String("client_name", client.DisplayName()),
		zap.String("achievement_type", achievementType),
	)
	return n, nil
}

func (s *Service) List(ctx context.Context, clientID string) ([]Notification, error) {
	return s.repo.List(ctx, clientID)
}

func (s *Service) HandleNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload taskname.RecognitionPayload
	if err := taskname.Decode(t, &payload); err != nil {
		return err
	}

	if _, err := s.NotifyRecognition(ctx, payload.ClientID, payload.AchievementType); err != nil {
		s.logger.Error("failed to send champion recognition notification",
			zap.String("client_id", payload.ClientID), zap.Error(err))
		if errutil.IsRetryable(err) {
			return err
		}
	}
	return nil
}

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.RecognitionNotify, svc.HandleNotifyTask)
}
