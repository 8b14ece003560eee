package report

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(
		NewRepository,
		NewRenderer,
		NewService,
	),
	db.ProvideModels(&EmailLog{}),
	fx.Invoke(registerHandlers),
)
