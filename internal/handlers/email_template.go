package handlers

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type EmailTemplateHandler struct {
	templates *services.EmailTemplateService
}

func NewEmailTemplateHandler(svc *services.Services) *EmailTemplateHandler {
	return &EmailTemplateHandler{templates: svc.Templates}
}

// GET /api/admin/email-templates
func (h *EmailTemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List()
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, templates)
}

// PUT /api/admin/email-templates/:name
func (h *EmailTemplateHandler) Update(c *gin.Context) {
	var req services.UpdateEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tpl, err := h.templates.Update(c.Param("name"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tpl)
}

// Preview renders a template with sample data
// GET /api/admin/email-templates/:name/preview
func (h *EmailTemplateHandler) Preview(c *gin.Context) {
	msg, err := h.templates.Preview(c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"subject": msg.Subject, "html": msg.HTMLBody})
}

type sendTestRequest struct {
	Recipient string `json:"recipient"`
}

// SendTest mails a rendered sample to recipient, or to the calling admin
// POST /api/admin/email-templates/:name/test
func (h *EmailTemplateHandler) SendTest(c *gin.Context) {
	var req sendTestRequest
	_ = c.ShouldBindJSON(&req)
	if req.Recipient == "" {
		req.Recipient = middleware.GetEmail(c)
	}
	result, err := h.templates.SendTest(c.Request.Context(), c.Param("name"), req.Recipient)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
