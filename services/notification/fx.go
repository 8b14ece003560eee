package notification

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(
		NewRepository,
		NewService,
	),
	db.ProvideModels(&Notification{}),
	fx.Invoke(registerHandlers),
)
