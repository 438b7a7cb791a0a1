package handlers

import (
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type CycleHandler struct {
	cycles *services.CycleService
}

func NewCycleHandler(svc *services.Services) *CycleHandler {
	return &CycleHandler{cycles: svc.Cycles}
}

// Current returns this month's cycle with its live phase
// GET /api/cycles/current
func (h *CycleHandler) Current(c *gin.Context) {
	cycle, err := h.cycles.Current()
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.cycles.Info(cycle))
}

// List returns every cycle, newest first. ?status filters on the stored
// status and accepts OPEN for SUBMISSION_OPEN.
// GET /api/admin/cycles
func (h *CycleHandler) List(c *gin.Context) {
	cycles, err := h.cycles.List()
	if err != nil {
		handleError(c, err)
		return
	}
	if raw := strings.ToUpper(c.Query("status")); raw != "" {
		status, ok := models.ParseCycleStatus(raw)
		if !ok {
			response.BadRequest(c, "unknown cycle status "+raw)
			return
		}
		filtered := cycles[:0]
		for _, cycle := range cycles {
			if cycle.Status == status {
				filtered = append(filtered, cycle)
			}
		}
		cycles = filtered
	}
	response.Success(c, cycles)
}

type createCycleRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Create opens the cycle for the given month, or the current one when the
// body is empty.
// POST /api/admin/cycles
func (h *CycleHandler) Create(c *gin.Context) {
	var req createCycleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	var (
		cycle   *models.AwardCycle
		created bool
		err     error
	)
	if req.Month == 0 && req.Year == 0 {
		cycle, created, err = h.cycles.Create()
	} else {
		cycle, created, err = h.cycles.CreateFor(req.Month, req.Year)
	}
	if err != nil {
		handleError(c, err)
		return
	}
	h.respondCreated(c, cycle, created)
}

// SetupFirstCycle is the one-click bootstrap used right after deployment.
// GET|POST /api/admin/setup-first-cycle
func (h *CycleHandler) SetupFirstCycle(c *gin.Context) {
	cycle, created, err := h.cycles.Create()
	if err != nil {
		handleError(c, err)
		return
	}
	h.respondCreated(c, cycle, created)
}

// Sync persists the phase implied by the clock
// POST /api/admin/cycles/sync
func (h *CycleHandler) Sync(c *gin.Context) {
	cycle, err := h.cycles.SyncStatus()
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.cycles.Info(cycle))
}

func (h *CycleHandler) respondCreated(c *gin.Context, cycle *models.AwardCycle, created bool) {
	info := h.cycles.Info(cycle)
	if !created {
		response.Success(c, gin.H{"cycle": info, "created": false, "message": "Cycle already exists"})
		return
	}
	response.Created(c, gin.H{"cycle": info, "created": true, "message": "Cycle created"})
}
