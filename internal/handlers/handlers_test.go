package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

const cookieName = "vibe_session"

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")
}

type apiEnv struct {
	svc    *services.Services
	queue  *services.SyncQueue
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = "https://vibe.example.com"
	cfg.OAuth.AdminEmails = []string{"admin@example.com"}

	queue := services.NewSyncQueue()
	svc := services.New(db, cfg, queue, &services.MemoryMailer{})
	queue.SetProcessor(svc.Notifications.Process)
	svc.Cycles.SetClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })

	return &apiEnv{svc: svc, queue: queue, router: testRouter(svc)}
}

// testRouter mounts the routes exercised below the same way the server does.
func testRouter(svc *services.Services) *gin.Engine {
	r := gin.New()
	projects := NewProjectHandler(svc)
	votes := NewVoteHandler(svc)
	comments := NewCommentHandler(svc)
	cycles := NewCycleHandler(svc)
	judging := NewJudgingHandler(svc)
	newsletter := NewNewsletterHandler(svc)
	health := NewHealthHandler(svc)
	metrics := NewMetricsHandler(svc)

	r.GET("/health", health.CheckHealth)
	r.GET("/metrics", metrics.Metrics)
	r.GET("/boom", func(c *gin.Context) { handleError(c, errors.New("disk on fire")) })

	api := r.Group("/api", middleware.OptionalAuth(cookieName))
	api.GET("/projects", projects.List)
	api.GET("/projects/:id", projects.Get)
	api.GET("/projects/:id/comments", comments.List)
	api.GET("/winners", projects.Winners)
	api.GET("/cycles/current", cycles.Current)
	api.POST("/newsletter/subscribe", newsletter.Subscribe)

	protected := api.Group("", middleware.AuthRequired(cookieName))
	protected.POST("/projects", projects.Create)
	protected.DELETE("/projects/:id", projects.Delete)
	protected.POST("/projects/:id/comments", comments.Create)
	protected.POST("/projects/:id/vote", votes.Cast)
	protected.DELETE("/projects/:id/vote", votes.Retract)
	protected.POST("/projects/:id/vote/toggle", votes.Toggle)

	admin := api.Group("/admin", middleware.AuthRequired(cookieName), middleware.AdminRequired(svc.Config.OAuth.IsAdminEmail))
	admin.POST("/cycles", cycles.Create)
	admin.GET("/cycles", cycles.List)
	admin.PUT("/projects/:id/awards", judging.SetAwards)
	admin.POST("/projects/:id/scores", judging.UpsertScore)
	admin.GET("/rankings", judging.Rankings)
	return r
}

func (e *apiEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := models.User{Email: email, Name: strings.Split(email, "@")[0], Role: models.RoleUser, IsActive: true}
	require.NoError(t, e.svc.DB.Create(&u).Error)
	return &u
}

type envelope struct {
	Code  int             `json:"code"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func (e *apiEnv) do(t *testing.T, method, path string, as *models.User, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := utils.GenerateToken(as.ID, as.Email, as.Role, 1)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	e.queue.Wait()

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func submission() map[string]interface{} {
	return map[string]interface{}{
		"title":         "Vibe Synth",
		"description":   "A browser synthesizer that was built almost entirely by chatting with an assistant.",
		"vibeNarrative": strings.Repeat("We described the sound we wanted and iterated on the code together. ", 3),
		"category":      "creative",
		"aiTools":       []string{"Claude"},
		"demoUrl":       "https://synth.example.com",
		"teamMembers":   []map[string]string{{"name": "Ada"}},
	}
}

func (e *apiEnv) submit(t *testing.T, owner *models.User) uint {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/projects", owner, submission())
	require.Equal(t, http.StatusCreated, status, env.Error)
	var res services.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.ProjectSubmitted, res.Status)
	return res.ID
}

func voteCount(t *testing.T, env envelope) int64 {
	t.Helper()
	var res services.VoteResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.VoteCount
}

func TestVotingFlow(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	id := e.submit(t, alice)
	votePath := fmt.Sprintf("/api/projects/%d/vote", id)

	status, env := e.do(t, http.MethodPost, votePath, bob, nil)
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.Equal(t, int64(1), voteCount(t, env))

	status, env = e.do(t, http.MethodPost, votePath, bob, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.ErrAlreadyVoted.Error(), env.Error)

	status, env = e.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), bob, nil)
	require.Equal(t, http.StatusOK, status)
	var view services.ProjectView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, int64(1), view.VoteCount)
	assert.True(t, view.HasVoted)

	status, env = e.do(t, http.MethodDelete, votePath, bob, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, int64(0), voteCount(t, env))

	status, _ = e.do(t, http.MethodDelete, votePath, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = e.do(t, http.MethodPost, votePath, alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.ErrSelfVote.Error(), env.Error)

	status, _ = e.do(t, http.MethodPost, votePath, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/api/projects/999/vote", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVoteToggle(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	id := e.submit(t, alice)
	path := fmt.Sprintf("/api/projects/%d/vote/toggle", id)

	status, env := e.do(t, http.MethodPost, path, bob, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, int64(1), voteCount(t, env))

	status, env = e.do(t, http.MethodPost, path, bob, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, int64(0), voteCount(t, env))

	status, env = e.do(t, http.MethodPost, path, alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.ErrSelfVote.Error(), env.Error)
}

func TestVoteBySlug(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	e.submit(t, alice)

	status, env := e.do(t, http.MethodPost, "/api/projects/vibe-synth/vote", bob, nil)
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.Equal(t, int64(1), voteCount(t, env))
}

func TestCreateProject_Validation(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")

	in := submission()
	in["aiTools"] = []string{}
	status, env := e.do(t, http.MethodPost, "/api/projects", alice, in)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "aiTools")

	status, _ = e.do(t, http.MethodPost, "/api/projects", nil, submission())
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDeleteProject_OwnerOrAdmin(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	admin := e.user(t, "admin@example.com")
	first := e.submit(t, alice)

	status, _ := e.do(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", first), bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", first), admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", first), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComments_HiddenUntilApproved(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	id := e.submit(t, alice)
	path := fmt.Sprintf("/api/projects/%d/comments", id)

	status, env := e.do(t, http.MethodPost, path, bob, map[string]string{"content": "Love the filters"})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = e.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, _ = e.do(t, http.MethodPost, path, bob, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminRoutes(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.user(t, "alice@example.com")
	admin := e.user(t, "admin@example.com")
	id := e.submit(t, alice)

	status, _ := e.do(t, http.MethodPost, "/api/admin/cycles", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := e.do(t, http.MethodPost, "/api/admin/cycles", admin, nil)
	require.Equal(t, http.StatusCreated, status, env.Error)
	status, env = e.do(t, http.MethodPost, "/api/admin/cycles", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Contains(t, string(env.Data), `"created":false`)

	status, env = e.do(t, http.MethodGet, "/api/admin/cycles?status=OPEN", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var cycles []models.AwardCycle
	require.NoError(t, json.Unmarshal(env.Data, &cycles))
	assert.Len(t, cycles, 1)

	status, _ = e.do(t, http.MethodGet, "/api/admin/cycles?status=closed", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodGet, "/api/cycles/current", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	score := map[string]interface{}{"vibeProcess": 90, "originality": 80, "execution": 70, "wowFactor": 60, "isComplete": true}
	status, env = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/projects/%d/scores", id), admin, score)
	require.Equal(t, http.StatusOK, status, env.Error)

	score["wowFactor"] = 101
	status, _ = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/projects/%d/scores", id), admin, score)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = e.do(t, http.MethodGet, "/api/admin/rankings?month=3&year=2025", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"averageScore":79`)

	status, env = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/projects/%d/awards", id), admin, map[string]bool{"isWinner": true})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = e.do(t, http.MethodGet, "/api/winners", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var winners []services.ProjectView
	require.NoError(t, json.Unmarshal(env.Data, &winners))
	require.Len(t, winners, 1)
	assert.Equal(t, id, winners[0].ID)
}

func TestCurrentCycle_NotFound(t *testing.T) {
	e := newAPIEnv(t)
	status, env := e.do(t, http.MethodGet, "/api/cycles/current", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, services.ErrCycleNotFound.Error(), env.Error)
}

func TestNewsletterSubscribe(t *testing.T) {
	e := newAPIEnv(t)
	status, env := e.do(t, http.MethodPost, "/api/newsletter/subscribe", nil, map[string]string{"email": "fan@example.com"})
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Contains(t, string(env.Data), `"subscribed":true`)

	status, _ = e.do(t, http.MethodPost, "/api/newsletter/subscribe", nil, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnclassifiedErrorIsGeneric(t *testing.T) {
	e := newAPIEnv(t)
	status, env := e.do(t, http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", env.Error)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newAPIEnv(t)
	status, env := e.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"database":"ok"`)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# TYPE vibe_cycle_votes gauge")

	sqlDB, err := e.svc.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	status, _ = e.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/dashboard", "/dashboard"},
		{"", ""},
		{"//evil.example.com", ""},
		{"https://evil.example.com", ""},
		{"/\\evil", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeRedirect(tt.in), tt.in)
	}
}
