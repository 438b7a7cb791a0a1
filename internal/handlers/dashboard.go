package handlers

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	cycles           *services.CycleService
}

func NewDashboardHandler(svc *services.Services) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: svc.Dashboard,
		cycles:           svc.Cycles,
	}
}

// UserDashboard returns the caller's projects and this cycle's votes
// GET /api/user/dashboard
func (h *DashboardHandler) UserDashboard(c *gin.Context) {
	resp, err := h.dashboardService.UserDashboard(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// AdminStats returns the counters shown on the admin overview
// GET /api/admin/stats
func (h *DashboardHandler) AdminStats(c *gin.Context) {
	month, year := monthYear(c, h.cycles)
	resp, err := h.dashboardService.AdminStats(month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
