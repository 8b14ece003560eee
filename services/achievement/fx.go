package achievement

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("achievement.service",
	fx.Provide(
		NewRepository,
		NewService,
	),
	db.ProvideModels(&Achievement{}),
	fx.Invoke(registerHandlers),
)

var HTTP = fx.Module("achievement.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
