package handlers

import (
	"strconv"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type NewsletterHandler struct {
	newsletter *services.NewsletterService
}

func NewNewsletterHandler(svc *services.Services) *NewsletterHandler {
	return &NewsletterHandler{newsletter: svc.Newsletter}
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required"`
}

// Subscribe adds an address to the monthly newsletter
// POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.newsletter.Subscribe(req.Email)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"email": sub.Email, "subscribed": sub.IsActive})
}

type unsubscribeRequest struct {
	Token string `json:"token"`
}

// Unsubscribe deactivates the subscriber owning token. The token may come
// from the body or from ?token, which is what the email link carries.
// POST /api/newsletter/unsubscribe
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		var req unsubscribeRequest
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}
	if err := h.newsletter.Unsubscribe(token); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"subscribed": false})
}

// Send mails the newsletter for a month to every active subscriber
// POST /api/admin/newsletter/send
func (h *NewsletterHandler) Send(c *gin.Context) {
	var req services.SendNewsletterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	result, err := h.newsletter.Send(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Subscribers lists newsletter subscribers
// GET /api/admin/newsletter/subscribers
func (h *NewsletterHandler) Subscribers(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	subs, total, err := h.newsletter.List(activeOnly, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"total": total, "items": subs})
}
