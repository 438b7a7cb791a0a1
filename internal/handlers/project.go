package handlers

import (
	"strconv"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects    *services.ProjectService
	submissions *services.SubmissionService
	oauth       *config.OAuthConfig
}

func NewProjectHandler(svc *services.Services) *ProjectHandler {
	return &ProjectHandler{
		projects:    svc.Projects,
		submissions: svc.Submissions,
		oauth:       &svc.Config.OAuth,
	}
}

// List returns the public project gallery
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projects.List(&req, middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// Get returns one project by id or slug
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	view, err := h.projects.GetDetail(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// Create submits a project for the current cycle
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var in services.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	identity := services.Identity{
		UserID: middleware.GetUserID(c),
		Email:  middleware.GetEmail(c),
	}
	result, err := h.submissions.Submit(identity, in)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, result)
}

// Update edits a submission while its cycle is still taking entries
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := h.resolveID(c)
	if !ok {
		return
	}
	var in services.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.submissions.Update(middleware.GetUserID(c), id, in)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

// Delete removes a project; owners and admins only
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := h.resolveID(c)
	if !ok {
		return
	}
	isAdmin := middleware.IsAdmin(c) || h.oauth.IsAdminEmail(middleware.GetEmail(c))
	if err := h.projects.Delete(middleware.GetUserID(c), isAdmin, id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Project deleted"})
}

// Winners lists awarded projects. Without month and year every cycle is
// returned.
// GET /api/winners
func (h *ProjectHandler) Winners(c *gin.Context) {
	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))
	winners, err := h.projects.Winners(month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, winners)
}

// resolveID accepts a numeric id or a slug in the :id segment.
func (h *ProjectHandler) resolveID(c *gin.Context) (uint, bool) {
	return resolveProjectID(c, h.projects)
}

func resolveProjectID(c *gin.Context, projects *services.ProjectService) (uint, bool) {
	raw := c.Param("id")
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
		return uint(id), true
	}
	project, err := projects.Find(raw)
	if err != nil {
		handleError(c, err)
		return 0, false
	}
	return project.ID, true
}
