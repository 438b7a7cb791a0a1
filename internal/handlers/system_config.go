package handlers

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(svc *services.Services) *SystemConfigHandler {
	return &SystemConfigHandler{configService: svc.SystemConfig}
}

// GetEmailConfig returns the stored SMTP settings with the password masked
// GET /api/admin/settings/email
func (h *SystemConfigHandler) GetEmailConfig(c *gin.Context) {
	response.Success(c, h.configService.GetEmailConfig())
}

// UpdateEmailConfig overrides config-file SMTP values at runtime
// PUT /api/admin/settings/email
func (h *SystemConfigHandler) UpdateEmailConfig(c *gin.Context) {
	var req services.UpdateEmailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.configService.UpdateEmailConfig(&req); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.configService.GetEmailConfig())
}
