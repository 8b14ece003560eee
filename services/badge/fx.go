package badge

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("badge.service",
	fx.Provide(
		NewRepository,
		NewPostView,
		NewService,
	),
	db.ProvideModels(&Post{}, &Record{}, &Streak{}),
)

var HTTP = fx.Module("badge.http",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
