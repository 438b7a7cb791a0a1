package main

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/handlers"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, app *appServices) {
	svc := app.svc
	cookie := app.cfg.JWT.CookieName

	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(app.cfg.Server.AllowOrigins))

	healthHandler := handlers.NewHealthHandler(svc)
	metricsHandler := handlers.NewMetricsHandler(svc)
	r.GET("/health", healthHandler.CheckHealth)
	r.GET("/metrics", metricsHandler.Metrics)

	authHandler := handlers.NewAuthHandler(svc)
	projectHandler := handlers.NewProjectHandler(svc)
	voteHandler := handlers.NewVoteHandler(svc)
	commentHandler := handlers.NewCommentHandler(svc)
	cycleHandler := handlers.NewCycleHandler(svc)
	newsletterHandler := handlers.NewNewsletterHandler(svc)
	dashboardHandler := handlers.NewDashboardHandler(svc)
	sseHandler := handlers.NewSSEHandler(svc)

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(cookie), app.apiLimiter.Middleware())
	{
		// Auth
		auth := api.Group("/auth")
		{
			auth.GET("/providers", authHandler.Providers)
			auth.GET("/:provider/login", authHandler.Login)
			auth.GET("/:provider/callback", authHandler.Callback)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(cookie), authHandler.Me)
		}

		// Public reads
		api.GET("/projects", projectHandler.List)
		api.GET("/projects/:id", projectHandler.Get)
		api.GET("/projects/:id/comments", commentHandler.List)
		api.GET("/projects/:id/events", sseHandler.StreamVotes)
		api.GET("/winners", projectHandler.Winners)
		api.GET("/cycles/current", cycleHandler.Current)
		api.POST("/newsletter/subscribe", newsletterHandler.Subscribe)
		api.POST("/newsletter/unsubscribe", newsletterHandler.Unsubscribe)

		// Signed-in routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(cookie), middleware.AuditLog())
		{
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)
			protected.POST("/projects/:id/comments", commentHandler.Create)
			protected.GET("/user/dashboard", dashboardHandler.UserDashboard)

			votes := protected.Group("/projects/:id/vote", app.voteLimiter.Middleware())
			{
				votes.POST("", voteHandler.Cast)
				votes.DELETE("", voteHandler.Retract)
				votes.POST("/toggle", voteHandler.Toggle)
			}
		}

		registerAdminRoutes(api, app)
	}
}

func registerAdminRoutes(api *gin.RouterGroup, app *appServices) {
	svc := app.svc

	cycleHandler := handlers.NewCycleHandler(svc)
	judgingHandler := handlers.NewJudgingHandler(svc)
	commentHandler := handlers.NewCommentHandler(svc)
	templateHandler := handlers.NewEmailTemplateHandler(svc)
	newsletterHandler := handlers.NewNewsletterHandler(svc)
	userHandler := handlers.NewUserHandler(svc)
	systemLogHandler := handlers.NewSystemLogHandler(svc)
	systemConfigHandler := handlers.NewSystemConfigHandler(svc)
	dashboardHandler := handlers.NewDashboardHandler(svc)

	admin := api.Group("/admin")
	admin.Use(
		middleware.AuthRequired(app.cfg.JWT.CookieName),
		middleware.AdminRequired(app.cfg.OAuth.IsAdminEmail),
		middleware.AuditLog(),
	)
	{
		// Cycles
		admin.GET("/cycles", cycleHandler.List)
		admin.POST("/cycles", cycleHandler.Create)
		admin.POST("/cycles/sync", cycleHandler.Sync)
		admin.GET("/setup-first-cycle", cycleHandler.SetupFirstCycle)
		admin.POST("/setup-first-cycle", cycleHandler.SetupFirstCycle)

		// Judging
		admin.GET("/submissions", judgingHandler.Submissions)
		admin.PUT("/projects/:id/status", judgingHandler.UpdateStatus)
		admin.PUT("/projects/:id/awards", judgingHandler.SetAwards)
		admin.POST("/projects/:id/scores", judgingHandler.UpsertScore)
		admin.GET("/projects/:id/scores", judgingHandler.ListScores)
		admin.GET("/rankings", judgingHandler.Rankings)
		admin.GET("/leaderboard", judgingHandler.Leaderboard)
		admin.GET("/stats", dashboardHandler.AdminStats)

		// Moderation
		admin.GET("/comments", commentHandler.AdminList)
		admin.PUT("/comments/:id/approve", commentHandler.Approve)
		admin.DELETE("/comments/:id", commentHandler.Delete)

		// Email
		admin.GET("/email-templates", templateHandler.List)
		admin.PUT("/email-templates/:name", templateHandler.Update)
		admin.GET("/email-templates/:name/preview", templateHandler.Preview)
		admin.POST("/email-templates/:name/test", templateHandler.SendTest)
		admin.GET("/settings/email", systemConfigHandler.GetEmailConfig)
		admin.PUT("/settings/email", systemConfigHandler.UpdateEmailConfig)
		admin.POST("/newsletter/send", newsletterHandler.Send)
		admin.GET("/newsletter/subscribers", newsletterHandler.Subscribers)

		// Users & logs
		admin.GET("/users", userHandler.List)
		admin.PUT("/users/:id", userHandler.Update)
		admin.GET("/system-logs", systemLogHandler.List)
		admin.GET("/system-logs/modules", systemLogHandler.GetModules)
	}
}
