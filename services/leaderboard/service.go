package leaderboard

import (
	"context"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/pkg/rediskey"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = 5 * time.Minute

const unrankedMessage = "Client has no badge history in the specified timeframe"

type Service struct {
	badges  badge.Repository
	clients directory.Repository
	cache   cache
	group   singleflight.Group
	logger  *zap.Logger
	now     func() time.Time
}

type ServiceParams struct {
	fx.In

	Badges  badge.Repository
	Clients directory.Repository
	Redis   *redis.Client    `optional:"true"`
	Config  *config.Config   `optional:"true"`
	Logger  *zap.Logger      `optional:"true"`
	Now     func() time.Time `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	ttl := DefaultCacheTTL
	if p.Config != nil && p.Config.Leaderboard.CacheTTL > 0 {
		ttl = p.Config.Leaderboard.CacheTTL
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
		badges:  p.Badges,
		clients: p.Clients,
		cache:   cache{rdb: p.Redis, ttl: ttl},
		logger:  logger.Named("leaderboard"),
		now:     func() time.Time { return now().UTC() },
	}
}

// Leaderboard returns the top entries of the ranking for the query's scope
// and timeframe.
func (s *Service) Leaderboard(ctx context.Context, q Query) ([]Entry, error) {
	tf := q.Timeframe
	if tf == "" {
		tf = All
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := s.ranking(ctx, tf)
	if err != nil {
		return nil, err
	}

	entries = Scoped(entries, q.Scope)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]Entry{}, entries...), nil
}

// RankOfClient locates the client in the global ranking. Clients without
// history in the timeframe get an unranked shell.
func (s *Service) RankOfClient(ctx context.Context, clientID string, tf Timeframe) (*ClientRank, error) {
	if tf == "" {
		tf = All
	}

	entries, err := s.ranking(ctx, tf)
	if err != nil {
		return nil, err
	}
	if len(entries) > RankCap {
		entries = entries[:RankCap]
	}

	for _, e := range entries {
		if e.ClientID == clientID {
			return &ClientRank{
				Entry:        e,
				Ranked:       true,
				Percentile:   Percentile(e.Rank, len(entries)),
				TotalClients: len(entries),
			}, nil
		}
	}

	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	shell := Entry{
		ClientID:   client.ID,
		ClientName: client.DisplayName(),
		Region:     client.Region,
		RegionID:   client.RegionID,
	}
	if client.FranchiseID != nil {
		shell.FranchiseID = *client.FranchiseID
	}
	return &ClientRank{Entry: shell, TotalClients: len(entries), Message: unrankedMessage}, nil
}

// ranking returns the full global ranking for tf, computed at most once per
// cache window and collapsed across concurrent callers. Scoped boards filter it
// before limiting, so it is never truncated here.
func (s *Service) ranking(ctx context.Context, tf Timeframe) ([]Entry, error) {
	key := rediskey.BuildLeaderboardKey(ScopeGlobal, "", string(tf), isoweek.Key(s.now()))

	entries, hit, err := s.cache.get(ctx, key)
	if err != nil {
		s.logger.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return entries, nil
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()

	// Joined callers share the result, so one caller's cancellation must not
	// fail the others.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		entries, err := s.compute(flightCtx, tf)
		if err != nil {
			return nil, err
		}
		if err := s.cache.set(flightCtx, key, entries); err != nil {
			s.logger.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entry), nil
}

func (s *Service) compute(ctx context.Context, tf Timeframe) ([]Entry, error) {
	records, err := s.badges.AllForScope(ctx, tf.Filter(s.now()))
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	ids := []string{}
	for _, r := range records {
		if _, ok := seen[r.ClientID]; !ok {
			seen[r.ClientID] = struct{}{}
			ids = append(ids, r.ClientID)
		}
	}

	clients, err := s.clients.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]directory.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	return Rank(records, byID), nil
}
