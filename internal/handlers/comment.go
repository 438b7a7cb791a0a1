package handlers

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
	projects *services.ProjectService
}

func NewCommentHandler(svc *services.Services) *CommentHandler {
	return &CommentHandler{comments: svc.Comments, projects: svc.Projects}
}

// List returns approved comments
// GET /api/projects/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	id, ok := resolveProjectID(c, h.projects)
	if !ok {
		return
	}
	comments, err := h.comments.ListApproved(id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, comments)
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create adds a comment. It stays hidden until an admin approves it.
// POST /api/projects/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	id, ok := resolveProjectID(c, h.projects)
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.Add(middleware.GetUserID(c), id, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, comment)
}

// AdminList returns comments for moderation
// GET /api/admin/comments
func (h *CommentHandler) AdminList(c *gin.Context) {
	var req services.CommentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	resp, err := h.comments.AdminList(&req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// Approve publishes a comment
// PUT /api/admin/comments/:id/approve
func (h *CommentHandler) Approve(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Approve(id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, comment)
}

// Delete removes a comment
// DELETE /api/admin/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Comment deleted"})
}
