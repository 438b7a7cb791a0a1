package handlers

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes    *services.VotingService
	projects *services.ProjectService
}

func NewVoteHandler(svc *services.Services) *VoteHandler {
	return &VoteHandler{votes: svc.Votes, projects: svc.Projects}
}

// Cast records the caller's vote
// POST /api/projects/:id/vote
func (h *VoteHandler) Cast(c *gin.Context) {
	id, ok := resolveProjectID(c, h.projects)
	if !ok {
		return
	}
	result, err := h.votes.Cast(middleware.GetUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, result)
}

// Retract withdraws the caller's vote
// DELETE /api/projects/:id/vote
func (h *VoteHandler) Retract(c *gin.Context) {
	id, ok := resolveProjectID(c, h.projects)
	if !ok {
		return
	}
	count, err := h.votes.Retract(middleware.GetUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, services.VoteResult{Voted: false, VoteCount: count})
}

// Toggle casts the caller's vote, or retracts it when one already exists
// POST /api/projects/:id/vote/toggle
func (h *VoteHandler) Toggle(c *gin.Context) {
	id, ok := resolveProjectID(c, h.projects)
	if !ok {
		return
	}
	result, err := h.votes.Toggle(middleware.GetUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
