package handlers

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(svc *services.Services) *UserHandler {
	return &UserHandler{userService: svc.Users}
}

// List returns users, optionally filtered by role or a name/email search
// GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.List(&req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// Update changes a user's role, name or active flag
// PUT /api/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Update(middleware.GetUserID(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}
