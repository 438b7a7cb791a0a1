package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var startTime = time.Now()

type MetricsHandler struct {
	db     *gorm.DB
	queue  services.TaskQueue
	hub    *services.SSEHub
	cycles *services.CycleService
}

func NewMetricsHandler(svc *services.Services) *MetricsHandler {
	return &MetricsHandler{db: svc.DB, queue: svc.Queue, hub: svc.LiveVotes, cycles: svc.Cycles}
}

// Metrics returns Prometheus text format gauges.
// GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	writeGauge(&b, "vibe_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "vibe_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "vibe_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))

	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		writeGauge(&b, "vibe_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
		writeGauge(&b, "vibe_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
	}

	writeGauge(&b, "vibe_sse_active_clients", "Number of open live vote streams", float64(h.hub.ClientCount()))
	queueAsync := 0.0
	if h.queue != nil && h.queue.IsAsync() {
		queueAsync = 1
	}
	writeGauge(&b, "vibe_queue_async_enabled", "Whether mail goes through Redis (1=yes, 0=no)", queueAsync)

	month, year := h.cycles.MonthOf(h.cycles.Now())
	var projects, votes, users, subscribers int64
	h.db.Model(&models.Project{}).Where("submission_month = ? AND submission_year = ? AND status <> ?", month, year, models.ProjectDraft).Count(&projects)
	h.db.Model(&models.Vote{}).Where("month = ? AND year = ?", month, year).Count(&votes)
	h.db.Model(&models.User{}).Where("is_active = ?", true).Count(&users)
	h.db.Model(&models.NewsletterSubscriber{}).Where("is_active = ?", true).Count(&subscribers)

	writeGauge(&b, "vibe_cycle_projects", "Projects submitted in the current cycle", float64(projects))
	writeGauge(&b, "vibe_cycle_votes", "Community votes cast in the current cycle", float64(votes))
	writeGauge(&b, "vibe_users_active", "Number of active users", float64(users))
	writeGauge(&b, "vibe_newsletter_subscribers", "Number of active newsletter subscribers", float64(subscribers))

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
