package main

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/utils"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
)

// appServices holds everything the router and shutdown need.
type appServices struct {
	cfg         *config.Config
	svc         *services.Services
	worker      *services.Worker
	scheduler   *services.Scheduler
	voteLimiter *middleware.RateLimiter
	apiLimiter  *middleware.RateLimiter
}

// bootstrap opens the database, wires the services and starts the
// background workers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database, cfg.Server.Mode); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()
	services.InitSystemLogger(db)

	// Uses Redis if enabled and reachable, otherwise mail is sent in-process
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	svc := services.New(db, cfg, taskQueue, services.NewMailer(db, cfg))
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(svc.Notifications.Process)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		worker.SetProcessor(svc.Notifications.Process)
		if err := worker.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start mail worker")
		}
	}

	scheduler := services.NewScheduler(db, svc.Cycles, svc.SystemLogs, cfg.Cycle.AutoCreate)
	if err := scheduler.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start scheduler")
	}

	if len(cfg.OAuth.AdminEmails) == 0 {
		logger.Warn().Msg("No ADMIN_EMAILS configured; promote an admin with awardctl user promote")
	}

	return &appServices{
		cfg:         cfg,
		svc:         svc,
		worker:      worker,
		scheduler:   scheduler,
		voteLimiter: middleware.NewRateLimiter(1, 10),
		apiLimiter:  middleware.NewRateLimiter(20, 40),
	}
}

// shutdown stops background work in reverse start order.
func (a *appServices) shutdown() {
	a.voteLimiter.Stop()
	a.apiLimiter.Stop()
	a.scheduler.Stop()
	if a.worker != nil {
		a.worker.Stop()
	}
	if err := a.svc.Queue.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close task queue")
	}
	logger.Info().Msg("Background services stopped")
}
