package handlers

import (
	"strconv"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// JudgingHandler serves the admin side of a cycle: the submission queue,
// judge scores, rankings and award decisions.
type JudgingHandler struct {
	projects *services.ProjectService
	scores   *services.ScoringService
	votes    *services.VotingService
	cycles   *services.CycleService
}

func NewJudgingHandler(svc *services.Services) *JudgingHandler {
	return &JudgingHandler{
		projects: svc.Projects,
		scores:   svc.Scores,
		votes:    svc.Votes,
		cycles:   svc.Cycles,
	}
}

// Submissions lists projects of every status
// GET /api/admin/submissions
func (h *JudgingHandler) Submissions(c *gin.Context) {
	var req services.AdminProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))

	resp, err := h.projects.AdminList(&req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

type updateStatusRequest struct {
	Status models.ProjectStatus `json:"status" binding:"required"`
}

// UpdateStatus moves a project through review
// PUT /api/admin/projects/:id/status
func (h *JudgingHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.UpdateStatus(middleware.GetUserID(c), id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

// SetAwards applies winner, people's choice and standout flags
// PUT /api/admin/projects/:id/awards
func (h *JudgingHandler) SetAwards(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.AwardsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.scores.SetAwards(middleware.GetUserID(c), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

// UpsertScore records the calling judge's score
// POST /api/admin/projects/:id/scores
func (h *JudgingHandler) UpsertScore(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.ScoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	score, err := h.scores.Upsert(middleware.GetUserID(c), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, score)
}

// ListScores returns every judge's score for a project plus the average
// GET /api/admin/projects/:id/scores
func (h *JudgingHandler) ListScores(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	scores, err := h.scores.ListScores(id)
	if err != nil {
		handleError(c, err)
		return
	}
	avg, err := h.scores.AverageScore(id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"scores": scores, "averageScore": avg})
}

// Rankings orders a cycle by average judge score
// GET /api/admin/rankings
func (h *JudgingHandler) Rankings(c *gin.Context) {
	month, year := monthYear(c, h.cycles)
	entries, err := h.scores.Ranking(month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"month": month, "year": year, "items": entries})
}

// Leaderboard orders a cycle by community votes
// GET /api/admin/leaderboard
func (h *JudgingHandler) Leaderboard(c *gin.Context) {
	month, year := monthYear(c, h.cycles)
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.votes.Leaderboard(month, year, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"month": month, "year": year, "items": entries})
}
