package directory

import (
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"

	"go.uber.org/fx"
)

var Module = fx.Module("directory",
	fx.Provide(NewRepository),
	db.ProvideModels(&Client{}, &Referral{}),
)
