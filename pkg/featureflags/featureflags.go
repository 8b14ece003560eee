package featureflags

import (
	"context"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"

	"github.com/Flagsmith/flagsmith-go-client/v2"
	"go.uber.org/fx"
)

var Module = fx.Module("featureflags", fx.Provide(ProvideFeatureFlag))

type FeatureFlag interface {
	// Enabled reports whether the environment flag is on. Every feature is
	// on when flagsmith is not configured.
	Enabled(ctx context.Context, feature string) (bool, error)
}

type featureflag struct {
	client *flagsmith.Client
}

type FeatureParams struct {
	fx.In
	Config *config.Config
}

func ProvideFeatureFlag(p FeatureParams) FeatureFlag {
	if p.Config.Flagsmith.ApiKey == "" {
		return &featureflag{}
	}

	opts := []flagsmith.Option{flagsmith.WithAnalytics()}
	if p.Config.Flagsmith.Addr != "" {
		opts = append(opts, flagsmith.WithBaseURL(p.Config.Flagsmith.Addr))
	}

	return &featureflag{
		client: flagsmith.NewClient(p.Config.Flagsmith.ApiKey, opts...),
	}
}

func (s *featureflag) Enabled(ctx context.Context, feature string) (bool, error) {
	if s.client == nil {
		return true, nil
	}

	flags, err := s.client.GetEnvironmentFlags()
	if err != nil {
		return false, err
	}
	return flags.IsFeatureEnabled(feature)
}

// Static is a fixed flag set, used where flagsmith is not wired.
type Static map[string]bool

func (s Static) Enabled(_ context.Context, feature string) (bool, error) {
	on, ok := s[feature]
	return on || !ok, nil
}
