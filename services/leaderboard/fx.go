package leaderboard

import "go.uber.org/fx"

var Module = fx.Module("leaderboard.service",
	fx.Provide(NewService),
)

var HTTP = fx.Module("leaderboard.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
