package recognition

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/db/pagination"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/task"
	"github.com/CleanExpo/LocalLift-sub000/pkg/taskname"
	"github.com/CleanExpo/LocalLift-sub000/services/achievement"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Service struct {
	db           *gorm.DB
	repo         Repository
	badges       badge.Repository
	clients      directory.Repository
	achievements achievement.Repository
	publisher    task.Publisher
	logger       *zap.Logger
	now          func() time.Time
}

type ServiceParams struct {
	fx.In

	DB           *gorm.DB
	Repository   Repository
	Badges       badge.Repository
	Clients      directory.Repository
	Achievements achievement.Repository
	Publisher    task.Publisher
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
		db:           p.DB,
		repo:         p.Repository,
		badges:       p.Badges,
		clients:      p.Clients,
		achievements: p.Achievements,
		publisher:    p.Publisher,
		logger:       logger.Named("recognition"),
		now:          func() time.Time { return now().UTC() },
	}
}

// Thresholds returns every known threshold, falling back to the default
// value for types that were never configured.
func (s *Service) Thresholds(ctx context.Context) ([]Threshold, error) {
	rows, err := s.repo.Thresholds(ctx)
	if err != nil {
		return nil, err
	}

	configured := make(map[string]Threshold, len(rows))
	for _, row := range rows {
		configured[row.Type] = row
	}

	out := make([]Threshold, 0, len(DefaultThresholds))
	for _, k := range kinds {
		if row, ok := configured[k.threshold]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, Threshold{Type: k.threshold, Value: DefaultThresholds[k.threshold]})
	}
	return out, nil
}

func (s *Service) thresholdValues(ctx context.Context) (map[string]int, error) {
	rows, err := s.Thresholds(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Value
	}
	return out, nil
}

func (s *Service) UpdateThreshold(ctx context.Context, thresholdType string, value int) (*Threshold, error) {
	if _, ok := DefaultThresholds[thresholdType]; !ok {
		return nil, errutil.Invalid(fmt.Sprintf("unknown threshold type %q", thresholdType), nil)
	}
	if value < 1 {
		return nil, errutil.Invalid("threshold value must be at least 1", nil)
	}

	t := &Threshold{Type: thresholdType, Value: value, UpdatedAt: s.now()}
	if err := s.repo.SaveThreshold(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("recognition threshold updated",
		zap.String("type", thresholdType), zap.Int("value", value))
	return t, nil
}

type ScanResult struct {
	Scanned    int     `json:"scanned"`
	Recognized []Event `json:"recognized"`
	Failed     int     `json:"failed"`
}

// Scan checks every active client against the thresholds and records an
// automatic recognition for each one newly met. Failures for one client are
// logged and do not stop the scan.
func (s *Service) Scan(ctx context.Context) (*ScanResult, error) {
	thresholds, err := s.thresholdValues(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	stats, existing, err := s.collect(ctx, clients, false)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Scanned: len(clients), Recognized: []Event{}}
	for _, client := range clients {
		st := stats[client.ID]
		for _, k := range kinds {
			value := k.value(st)
			if value < thresholds[k.threshold] {
				continue
			}
			if _, ok := existing[client.ID][k.eventType]; ok {
				continue
			}

			ev, err := s.recognizeAutomatic(ctx, client.ID, k, value)
			if err != nil {
				result.Failed++
				s.logger.Error("failed to record champion recognition",
					zap.String("client_id", client.ID),
					zap.String("type", k.eventType),
					zap.Error(err),
				)
				break
			}
			if ev != nil {
				result.Recognized = append(result.Recognized, *ev)
			}
		}
	}

	s.logger.Info("champion scan complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("recognized", len(result.Recognized)),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// collect reads badge history, referrals, and existing automatic events for
// the clients concurrently.
func (s *Service) collect(ctx context.Context, clients []directory.Client, withAchievements bool) (map[string]Stats, map[string]map[string]struct{}, error) {
	ids := make([]string, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID)
	}

	var (
		records      []badge.Record
		referrals    map[string]int
		existing     map[string]map[string]struct{}
		achievements map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		records, err = s.badges.ForClients(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		referrals, err = s.clients.ConvertedReferrals(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		existing, err = s.repo.AutomaticTypes(gctx, ids)
		return err
	})
	if withAchievements {
		g.Go(func() (err error) {
			achievements, err = s.achievements.CountByClients(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	byClient := make(map[string][]badge.Record, len(ids))
	for _, r := range records {
		byClient[r.ClientID] = append(byClient[r.ClientID], r)
	}

	stats := make(map[string]Stats, len(ids))
	for _, id := range ids {
		history := byClient[id]
		stats[id] = Stats{
			Badges:       badge.Summarize(history).BadgesEarned,
			MaxStreak:    badge.ComputeStreaks(history).Longest,
			Referrals:    referrals[id],
			Achievements: achievements[id],
		}
	}
	return stats, existing, nil
}

// recognizeAutomatic writes the event and its champion achievement in one
// transaction. It returns nil when the event already existed.
func (s *Service) recognizeAutomatic(ctx context.Context, clientID string, k kind, value int) (*Event, error) {
	now := s.now()
	ev := &Event{
		ClientID:  clientID,
		Type:      k.eventType,
		Notes:     fmt.Sprintf(k.notes, value),
		Automatic: true,
		CreatedAt: now,
	}

	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.repo.WithTrx(tx).InsertEvent(ctx, ev)
		if err != nil || !inserted {
			return err
		}

		_, err = s.achievements.WithTrx(tx).Insert(ctx, &achievement.Achievement{
			ClientID:    clientID,
			Type:        achievement.KindChampion,
			Label:       k.label,
			Threshold:   value,
			Description: fmt.Sprintf(k.description, value),
			Points:      ChampionPoints,
			Automatic:   true,
			EarnedAt:    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	recognitionsTotal.WithLabelValues(k.eventType).Inc()
	s.logger.Info("client recognized as champion",
		zap.String("client_id", clientID),
		zap.String("type", k.eventType),
		zap.Int("value", value),
	)
	s.notify(ctx, clientID, k.label)
	return ev, nil
}

// notify hands the notification to the queue after the recognition committed.
func (s *Service) notify(ctx context.Context, clientID, achievementType string) {
	t, err := taskname.NewTask(taskname.RecognitionNotify, taskname.RecognitionPayload{
		ClientID:        clientID,
		AchievementType: achievementType,
	})
	if err == nil {
		_, err = s.publisher.Dispatch(ctx, t)
	}
	if err != nil {
		s.logger.Error("failed to dispatch champion notification",
			zap.String("client_id", clientID), zap.Error(err))
	}
}

type ManualRecognition struct {
	ClientID        string `json:"client_id" binding:"required"`
	AchievementType string `json:"achievement_type" binding:"required"`
	Notes           string `json:"notes"`
	CreatedBy       string `json:"-"`
}

type RecognizeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Event   *Event `json:"event,omitempty"`
}

// Recognize records a recognition granted by an administrator. Manual
// recognitions are never deduplicated.
func (s *Service) Recognize(ctx context.Context, req ManualRecognition) (*RecognizeResult, error) {
	if req.ClientID == "" || req.AchievementType == "" {
		return nil, errutil.Invalid("client_id and achievement_type are required", nil)
	}

	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	description := req.Notes
	if description == "" {
		description = fmt.Sprintf("Recognized as a champion for %s", req.AchievementType)
	}

	now := s.now()
	ev := &Event{
		ClientID:  client.ID,
		Type:      req.AchievementType,
		Notes:     req.Notes,
		CreatedAt: now,
	}
	if req.CreatedBy != "" {
		ev.CreatedBy = &req.CreatedBy
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.WithTrx(tx).InsertEvent(ctx, ev); err != nil {
			return err
		}
		_, err := s.achievements.WithTrx(tx).Insert(ctx, &achievement.Achievement{
			ClientID:    client.ID,
			Type:        achievement.KindChampion,
			Label:       "Champion Recognition - " + req.AchievementType,
			Description: description,
			Points:      ChampionPoints,
			EarnedAt:    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	recognitionsTotal.WithLabelValues(TypeManual).Inc()
	s.logger.Info("client manually recognized as champion",
		zap.String("client_id", client.ID),
		zap.String("type", req.AchievementType),
		zap.String("created_by", req.CreatedBy),
	)
	s.notify(ctx, client.ID, req.AchievementType)

	return &RecognizeResult{
		Success: true,
		Message: fmt.Sprintf("Client %s successfully recognized as a champion for %s", client.Name, req.AchievementType),
		Event:   ev,
	}, nil
}

type EventPage struct {
	Events   []Event              `json:"events"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

// Events lists recognition events newest first.
func (s *Service) Events(ctx context.Context, p pagination.Pagination) (*EventPage, error) {
	p = p.Normalize()
	cursor, err := pagination.DecodeCursor(p.Cursor)
	if err != nil {
		return nil, errutil.Invalid("invalid cursor", err)
	}

	rows, err := s.repo.Events(ctx, cursor, p.Limit)
	if err != nil {
		return nil, err
	}

	events, info, err := pagination.Page(rows, p.Limit, func(e Event) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	if err != nil {
		return nil, errutil.Internal("failed to encode cursor", err)
	}
	return &EventPage{Events: events, PageInfo: info}, nil
}

type Champion struct {
	Rank       int    `json:"rank"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	Region     string `json:"region,omitempty"`
	Score      int    `json:"score"`
	Stats
}

const DefaultTopLimit = 10

// TopChampions ranks active clients, optionally within a region, by their
// weighted champion score.
func (s *Service) TopChampions(ctx context.Context, region string, limit int) ([]Champion, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	all, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	clients := all
	if region != "" {
		clients = clients[:0:0]
		for _, c := range all {
			if c.InRegion(region) {
				clients = append(clients, c)
			}
		}
	}

	stats, _, err := s.collect(ctx, clients, true)
	if err != nil {
		return nil, err
	}

	out := make([]Champion, 0, len(clients))
	for _, c := range clients {
		st := stats[c.ID]
		out = append(out, Champion{
			ClientID:   c.ID,
			ClientName: c.DisplayName(),
			Region:     c.Region,
			Score:      st.Score(),
			Stats:      st,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ClientID < out[j].ClientID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
