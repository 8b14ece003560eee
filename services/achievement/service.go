package achievement

import (
	"context"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/celengine"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	repo    Repository
	badges  badge.Repository
	rules   *celengine.Engine
	catalog []Definition
	logger  *zap.Logger
	now     func() time.Time
}

type ServiceParams struct {
	fx.In

	Repository Repository
	Badges     badge.Repository
	Rules      *celengine.Engine `optional:"true"`
	Logger     *zap.Logger       `optional:"true"`
	Now        func() time.Time  `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	rules := p.Rules
	if rules == nil {
		rules = celengine.New()
	}
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
		badges:  p.Badges,
		rules:   rules,
		catalog: DefaultCatalog(),
		logger:  logger.Named("achievement"),
		now:     func() time.Time { return now().UTC() },
	}
}

func (s *Service) Catalog() []Definition {
	return append([]Definition(nil), s.catalog...)
}

// FactsFor derives detector inputs from the client's full badge history.
func (s *Service) FactsFor(ctx context.Context, clientID string) (Facts, error) {
	records, err := s.badges.History(ctx, clientID, 0)
	if err != nil {
		return Facts{}, err
	}
	summary := badge.Summarize(records)
	streaks := badge.ComputeStreaks(records)
	return Facts{
		EarnedBadges:  summary.BadgesEarned,
		LongestStreak: streaks.Longest,
		CurrentStreak: streaks.Current,
		TotalWeeks:    summary.TotalWeeks,
	}, nil
}

// Check runs every detector for the client and appends the achievements
// that hold and are not yet logged. It returns only the rows it inserted.
func (s *Service) Check(ctx context.Context, clientID string) ([]Achievement, error) {
	facts, err := s.FactsFor(ctx, clientID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.AutomaticKeys(ctx, clientID)
	if err != nil {
		return nil, err
	}

	attrs := facts.Attributes()
	added := []Achievement{}
	for _, def := range s.catalog {
		if _, ok := existing[Key{Type: def.Kind, Label: def.Label}]; ok {
			continue
		}

		met, err := s.rules.Eval(def.Condition, attrs)
		if err != nil {
			s.logger.Error("achievement condition failed", zap.String("label", def.Label), zap.Error(err))
			continue
		}
		if !met {
			continue
		}

		row := &Achievement{
			ClientID:    clientID,
			Type:        def.Kind,
			Label:       def.Label,
			Threshold:   def.Threshold,
			Description: def.Description,
			Automatic:   true,
			EarnedAt:    s.now(),
		}
		inserted, err := s.repo.Insert(ctx, row)
		if err != nil {
			return added, err
		}
		if !inserted {
			continue
		}

		achievementsAwardedTotal.WithLabelValues(def.Kind).Inc()
		s.logger.Info("achievement unlocked",
			zap.String("client_id", clientID),
			zap.String("type", def.Kind),
			zap.String("label", def.Label),
		)
		added = append(added, *row)
	}
	return added, nil
}

// List returns the client's achievements, newest first.
func (s *Service) List(ctx context.Context, clientID string) ([]Achievement, error) {
	return s.repo.List(ctx, clientID)
}
