package handlers

import (
	"net/http"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports on the database, the mail queue and live clients.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	hub   *services.SSEHub
}

func NewHealthHandler(svc *services.Services) *HealthHandler {
	return &HealthHandler{db: svc.DB, queue: svc.Queue, hub: svc.LiveVotes}
}

// CheckHealth answers 503 when the database does not respond.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	status := http.StatusOK
	overall := "healthy"
	dbStatus := "ok"
	if err := models.Ping(h.db); err != nil {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
		dbStatus = "unreachable"
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(status, response.Response{
		Code:    codeFor(status),
		Message: overall,
		Data: gin.H{
			"status":  overall,
			"service": "vibe-award",
			"components": gin.H{
				"database":    dbStatus,
				"queue_mode":  queueMode,
				"sse_clients": h.hub.ClientCount(),
			},
		},
	})
}

func codeFor(status int) int {
	if status == http.StatusOK {
		return 0
	}
	return status
}
