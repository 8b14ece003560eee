package scheduler

import (
	"github.com/CleanExpo/LocalLift-sub000/services/recognition"
	"github.com/CleanExpo/LocalLift-sub000/services/report"

	"go.uber.org/fx"
)

// Module runs the weekly loop. Only the worker binary includes it.
var Module = fx.Module("scheduler.weekly",
	fx.Provide(NewScheduler),
	fx.Invoke(StartScheduler),
)

var HTTP = fx.Module("scheduler.http",
	fx.Provide(asReports, asScanner, NewHandler),
	fx.Invoke(RegisterRoutes),
)

func asReports(s *report.Service) Reports { return s }

func asScanner(s *recognition.Service) Scanner { return s }
