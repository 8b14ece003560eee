package main

import (
	"log"

	"github.com/CleanExpo/LocalLift-sub000/pkg/celengine"
	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/db"
	"github.com/CleanExpo/LocalLift-sub000/pkg/featureflags"
	"github.com/CleanExpo/LocalLift-sub000/pkg/gen"
	"github.com/CleanExpo/LocalLift-sub000/pkg/hashistack/secretmanager"
	"github.com/CleanExpo/LocalLift-sub000/pkg/health"
	"github.com/CleanExpo/LocalLift-sub000/pkg/logger"
	"github.com/CleanExpo/LocalLift-sub000/pkg/mailer"
	"github.com/CleanExpo/LocalLift-sub000/pkg/minio"
	"github.com/CleanExpo/LocalLift-sub000/pkg/otelcol"
	"github.com/CleanExpo/LocalLift-sub000/pkg/profiling"
	"github.com/CleanExpo/LocalLift-sub000/pkg/redis"
	"github.com/CleanExpo/LocalLift-sub000/pkg/server"
	"github.com/CleanExpo/LocalLift-sub000/pkg/task"
	"github.com/CleanExpo/LocalLift-sub000/services/achievement"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"
	"github.com/CleanExpo/LocalLift-sub000/services/engagement"
	"github.com/CleanExpo/LocalLift-sub000/services/leaderboard"
	"github.com/CleanExpo/LocalLift-sub000/services/notification"
	"github.com/CleanExpo/LocalLift-sub000/services/recognition"
	"github.com/CleanExpo/LocalLift-sub000/services/report"
	"github.com/CleanExpo/LocalLift-sub000/services/scheduler"

	"go.uber.org/fx"
)

// The worker consumes the task queues and runs the weekly scheduler. Its HTTP
// server only carries health and metrics.
func main() {
	opts := []fx.Option{
		secrets(),
		config.Select(),
		logger.Module,
		logger.FxLogger,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		gen.Module,
		task.Client,
		task.Server,
		celengine.Module,
		featureflags.Module,
		minio.Module,
		mailer.Module,

		directory.Module,
		badge.Module,
		achievement.Module,
		leaderboard.Module,
		notification.Module,
		recognition.Module,
		report.Module,
		engagement.Module,
		scheduler.Module,

		health.Module,
		server.ProvideHTTPServer,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

func secrets() fx.Option {
	if secretmanager.Enabled() {
		return secretmanager.Module
	}
	return fx.Options()
}
