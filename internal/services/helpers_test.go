package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// march10 falls inside the March 2025 submission window.
var march10 = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db     *gorm.DB
	svc    *Services
	mailer *MemoryMailer
	queue  *SyncQueue
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = "https://vibe.example.com"
	cfg.OAuth.AdminEmails = []string{"admin@example.com"}

	mailer := &MemoryMailer{}
	queue := NewSyncQueue()
	svc := New(db, cfg, queue, mailer)
	svc.Cycles.SetClock(func() time.Time { return march10 })

	return &testEnv{db: db, svc: svc, mailer: mailer, queue: queue}
}

func (e *testEnv) setNow(now time.Time) {
	e.svc.Cycles.SetClock(func() time.Time { return now })
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := models.User{Email: email, Name: strings.Split(email, "@")[0], Role: models.RoleUser, IsActive: true}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func validInput() ProjectInput {
	return ProjectInput{
		Title:         "Vibe Synth",
		Description:   "A browser synthesizer that was built almost entirely by chatting with an assistant.",
		VibeNarrative: strings.Repeat("We described the sound we wanted and iterated on the code together. ", 3),
		Category:      "creative",
		Tags:          []string{"audio", "webaudio"},
		AITools:       []string{"Claude", "Cursor"},
		DemoURL:       "https://synth.example.com",
		RepoURL:       "https://github.com/example/synth",
		TeamMembers: []TeamMemberInput{
			{Name: "Ada", Role: "Developer", GitHub: "@ada"},
		},
		Media: []MediaInput{
			{Type: "image", URL: "https://img.example.com/synth.png", Caption: "Main screen"},
		},
		AIGeneratedPercent:  70,
		AIRefactoredPercent: 20,
		HumanWrittenPercent: 10,
	}
}

// submit creates a project owned by owner through the submission service.
func (e *testEnv) submit(t *testing.T, owner *models.User, title string) *models.Project {
	t.Helper()
	in := validInput()
	in.Title = title
	res, err := e.svc.Submissions.Submit(Identity{UserID: owner.ID, Email: owner.Email}, in)
	require.NoError(t, err)
	e.queue.Wait()

	var p models.Project
	require.NoError(t, e.db.First(&p, res.ID).Error)
	return &p
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
