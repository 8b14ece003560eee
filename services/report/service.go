package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/featureflags"
	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/pkg/mailer"
	"github.com/CleanExpo/LocalLift-sub000/pkg/minio"
	"github.com/CleanExpo/LocalLift-sub000/pkg/task"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"

	"github.com/gosimple/slug"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const DefaultFromEmail = "notifications@locallift.com"

type Service struct {
	repo      Repository
	clients   directory.Repository
	badges    *badge.Service
	mailer    mailer.Gateway
	publisher task.Publisher
	flags     featureflags.FeatureFlag
	archive   minio.Store
	renderer  *Renderer
	from      string
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
}

type ServiceParams struct {
	fx.In

	Repository Repository
	Clients    directory.Repository
	Badges     *badge.Service
	Mailer     mailer.Gateway
	Publisher  task.Publisher
	Renderer   *Renderer
	Config     *config.Config           `optional:"true"`
	Flags      featureflags.FeatureFlag `optional:"true"`
	Archive    minio.Store              `optional:"true"`
	Logger     *zap.Logger              `optional:"true"`
	Now        func() time.Time         `optional:"true"`
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
	flags := p.Flags
	if flags == nil {
		flags = featureflags.Static{}
	}

	from, publicURL := DefaultFromEmail, ""
	if p.Config != nil {
		if p.Config.Mail.FromEmail != "" {
			from = p.Config.Mail.FromEmail
		}
		publicURL = p.Config.Mail.PublicURL
	}

	return &Service{
		repo:      p.Repository,
		clients:   p.Clients,
		badges:    p.Badges,
		mailer:    p.Mailer,
		publisher: p.Publisher,
		flags:     flags,
		archive:   p.Archive,
		renderer:  p.Renderer,
		from:      from,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger.Named("report"),
		now:       func() time.Time { return now().UTC() },
	}
}

// SendFor emails the client their current-week badge report. It reports
// false without error when the client is unknown or, unless forced, has
// opted out. A gateway failure is recorded in the email log and returned;
// 4xx rejections other than 429 are marked with asynq.SkipRetry.
func (s *Service) SendFor(ctx context.Context, clientID string, force bool) (bool, error) {
	log := s.logger.With(zap.String("client_id", clientID))

	client, err := s.clients.Get(ctx, clientID)
	if errutil.Is(err, errutil.StatusNotFound) {
		log.Error("client not found for weekly report")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !force && !client.WantsWeeklyReports() {
		log.Debug("client opted out of weekly reports")
		return false, nil
	}

	outcome, weekID, err := s.badges.CurrentWeek(ctx, clientID)
	if err != nil {
		return false, err
	}

	html, err := s.renderer.Render(View{
		ClientName:    client.Name,
		Compliant:     outcome.Compliant,
		Total:         outcome.Total,
		Badge:         outcome.Earned,
		Remaining:     outcome.Remaining(),
		DashboardLink: s.publicURL + "/dashboard",
	})
	if err != nil {
		return false, errutil.Internal("failed to render weekly report", err)
	}

	code, sendErr := s.mailer.Send(ctx, mailer.Message{
		From:    s.from,
		To:      client.Email,
		Subject: Subject,
		HTML:    html,
	})
	sent := sendErr == nil && code == mailer.StatusAccepted
	log.Info("weekly badge report submitted",
		zap.String("week_id", weekID),
		zap.Int("status_code", code),
		zap.Bool("sent", sent),
	)
	reportsSentTotal.WithLabelValues(statusOf(sent)).Inc()

	// The gateway has already answered; a lost log row must not trigger a resend.
	if err := s.appendLog(ctx, clientID, weekID, outcome, code, sent); err != nil {
		log.Error("failed to record weekly report", zap.String("week_id", weekID), zap.Error(err))
	}

	if sent {
		s.archiveReport(ctx, client, weekID, html)
	}
	if sendErr != nil {
		if rejected(code) {
			return false, fmt.Errorf("%w: %w", sendErr, asynq.SkipRetry)
		}
		return false, sendErr
	}
	return sent, nil
}

// rejected reports a gateway answer that resending the same message cannot
// change.
func rejected(code int) bool {
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError &&
		code != http.StatusTooManyRequests
}

func statusOf(sent bool) string {
	if sent {
		return StatusSent
	}
	return StatusFailed
}

func (s *Service) appendLog(ctx context.Context, clientID, weekID string, o badge.Outcome, code int, sent bool) error {
	meta, err := json.Marshal(Metadata{
		BadgeEarned:    o.Earned,
		CompliantPosts: o.Compliant,
		TotalPosts:     o.Total,
		StatusCode:     code,
		WeekID:         weekID,
	})
	if err != nil {
		return errutil.Internal("failed to encode email log metadata", err)
	}

	return s.repo.Append(ctx, &EmailLog{
		ClientID:  clientID,
		EmailType: EmailTypeWeeklyBadgeReport,
		Status:    statusOf(sent),
		Metadata:  datatypes.JSON(meta),
		CreatedAt: s.now(),
	})
}

// ArchiveKey names the stored copy of a client's weekly report.
func ArchiveKey(client directory.Client, weekID string) string {
	name := slug.Make(client.DisplayName())
	if name == "" {
		name = client.ID
	}
	return fmt.Sprintf("reports/%s/%s.html", name, weekID)
}

func (s *Service) archiveReport(ctx context.Context, client *directory.Client, weekID, html string) {
	if s.archive == nil {
		return
	}
	key := ArchiveKey(*client, weekID)
	if err := s.archive.Put(ctx, key, []byte(html), "text/html; charset=utf-8"); err != nil {
		s.logger.Warn("failed to archive weekly report", zap.String("key", key), zap.Error(err))
	}
}

// SendAll queues one report per active, opted-in client. Task ids carry the
// week so repeated triggers in the same week are absorbed by the queue.
func (s *Service) SendAll(ctx context.Context) (*BulkResult, error) {
	on, err := s.flags.Enabled(ctx, FeatureWeeklyReports)
	if err != nil {
		s.logger.Warn("feature flag lookup failed, sending reports", zap.Error(err))
		on = true
	}
	if !on {
		s.logger.Info("weekly badge reports disabled by feature flag")
		return &BulkResult{Message: "Weekly badge reports are disabled"}, nil
	}

	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	weekID := isoweek.Key(s.now())
	scheduled := 0
	for _, c := range clients {
		if !c.WantsWeeklyReports() {
			continue
		}

		t, err := taskname.NewTask(taskname.ReportWeeklySend,
			taskname.ClientPayload{ClientID: c.ID, WeekID: weekID},
			asynq.TaskID(fmt.Sprintf("%s:%s:%s", taskname.ReportWeeklySend, weekID, c.ID)),
			asynq.MaxRetry(5),
		)
		if err == nil {
			_, err = s.publisher.Dispatch(ctx, t)
		}
		if err != nil {
			s.logger.Error("failed to schedule weekly report", zap.String("client_id", c.ID), zap.Error(err))
			continue
		}
		scheduled++
	}

	s.logger.Info("weekly badge reports scheduled", zap.String("week_id", weekID), zap.Int("scheduled", scheduled))
	return &BulkResult{
		Scheduled: scheduled,
		Message:   fmt.Sprintf("Scheduled %d weekly badge reports for sending", scheduled),
	}, nil
}

func (s *Service) Logs(ctx context.Context, clientID string, limit int) ([]EmailLog, error) {
	return s.repo.List(ctx, clientID, limit)
}
