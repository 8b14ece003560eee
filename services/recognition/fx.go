package recognition

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("recognition.service",
	fx.Provide(
		NewRepository,
		NewService,
	),
	db.ProvideModels(&Event{}, &Threshold{}),
	fx.Invoke(registerHandlers),
)

var HTTP = fx.Module("recognition.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
