package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	httpserver "github.com/yungbote/coursemarket-backend/internal/http"
	httpH "github.com/yungbote/coursemarket-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursemarket-backend/internal/http/middleware"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/realtime"
	"github.com/yungbote/coursemarket-backend/internal/realtime/bus"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Progress services.ProgressService
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Metrics  *httpH.MetricsHandler
	Progress *httpH.ProgressHandler
	Realtime *httpH.RealtimeHandler
}

func wireRepos(db *gorm.DB, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(db, log)
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, metrics *observability.Metrics) domainagg.ProgressAggregate {
	log.Info("Wiring aggregates...")
	return aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:            db,
			Log:           log,
			Hooks:         aggregates.NewObservabilityHooks(metrics),
			MaxTxAttempts: cfg.MaxTxAttempts,
		},
		Repos: reposet,
		Rules: cfg.AchievementRules,
	})
}

func wireServices(log *logger.Logger, cfg Config, reposet repos.Set, progress domainagg.ProgressAggregate, eventBus bus.Bus, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	emitter := &services.BusEmitter{Bus: eventBus, Log: log, Metrics: metrics}
	return Services{
		Auth: services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Progress: services.NewProgressService(services.ProgressServiceDeps{
			Log:                  log,
			Aggregate:            progress,
			Enrollments:          reposet.Enrollments,
			Notifier:             services.NewProgressNotifier(emitter),
			Metrics:              metrics,
			ReconcileParallelism: cfg.ReconcileParallelism,
		}),
	}
}

func wireMiddleware(log *logger.Logger, svcs Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, svcs.Auth)}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, svcs Services, hub *realtime.Hub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Metrics:  httpH.NewMetricsHandler(metrics),
		Progress: httpH.NewProgressHandler(log, svcs.Progress),
		Realtime: httpH.NewRealtimeHandler(log, hub),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpserver.Server {
	return httpserver.NewServer(":"+cfg.Port, httpserver.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		AllowOrigins:    cfg.AllowOrigins,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		ProgressHandler: handlers.Progress,
		RealtimeHandler: handlers.Realtime,
		HealthHandler:   handlers.Health,
		MetricsHandler:  handlers.Metrics,
	})
}
