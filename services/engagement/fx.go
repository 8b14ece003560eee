package engagement

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("engagement.service",
	fx.Provide(
		NewRepository,
		NewService,
	),
	db.ProvideModels(&Report{}),
	fx.Invoke(registerHandlers),
)

var HTTP = fx.Module("engagement.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
