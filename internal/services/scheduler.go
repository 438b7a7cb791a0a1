package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	jobCreateCycle = "cycle-create"
	jobSyncStatus  = "cycle-sync"
	jobLogCleanup  = "log-cleanup"
)

type scheduledJob struct {
	name string
	spec string
	run  func()
}

// Scheduler runs the periodic jobs. Cycle jobs are registered only when
// auto-creation is enabled; log cleanup always runs.
type Scheduler struct {
	db         *gorm.DB
	cron       *cron.Cron
	cycles     *CycleService
	logs       *SystemLogService
	autoCreate bool
	instance   string
}

func NewScheduler(db *gorm.DB, cycles *CycleService, logs *SystemLogService, autoCreate bool) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		db:         db,
		cron:       cron.New(cron.WithLocation(cycles.Location())),
		cycles:     cycles,
		logs:       logs,
		autoCreate: autoCreate,
		instance:   fmt.Sprintf("%s-%d", host, os.Getpid()),
	}
}

func (s *Scheduler) Start() error {
	jobs := []scheduledJob{
		{jobLogCleanup, "30 3 * * *", s.logs.RunCleanup},
	}
	if s.autoCreate {
		jobs = append(jobs,
			scheduledJob{jobCreateCycle, "5 0 1 * *", s.createCycle},
			scheduledJob{jobSyncStatus, "1 0 * * *", s.syncStatus},
		)
	}

	for _, j := range jobs {
		name, run := j.name, j.run
		if _, err := s.cron.AddFunc(j.spec, func() { s.runOnce(name, run) }); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
		logger.Infof("[Scheduler] %s scheduled (cron: %s)", name, j.spec)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] Started (auto cycle creation: %t)", s.autoCreate)

	// catch up when the server starts mid-month
	if s.autoCreate {
		go s.createCycle()
	}
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] Stopped")
}

// runOnce claims this firing in scheduler_locks before running it.
func (s *Scheduler) runOnce(name string, run func()) {
	now := s.cycles.Now()
	claimed, err := s.claim(name, now.Format("2006-01-02T15:04"), now)
	if err != nil {
		logger.Errorf("[Scheduler] %s: failed to claim run: %v", name, err)
		return
	}
	if !claimed {
		logger.Debug().Str("job", name).Msg("[Scheduler] run already claimed by another instance")
		return
	}
	run()
}

func (s *Scheduler) claim(name, key string, now time.Time) (bool, error) {
	lock := models.SchedulerLock{
		JobName:   name,
		RunKey:    key,
		LockedBy:  s.instance,
		LockedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := s.db.Create(&lock).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	// old claims are only needed while other instances may still fire
	s.db.Where("expires_at < ?", now.Add(-7*24*time.Hour)).Delete(&models.SchedulerLock{})
	return true, nil
}

func (s *Scheduler) createCycle() {
	cycle, created, err := s.cycles.Create()
	if err != nil {
		logger.Errorf("[Scheduler] Failed to create award cycle: %v", err)
		LogError("Scheduler", "CreateCycle", err.Error(), nil, "", "", nil)
		return
	}
	if created {
		logger.Infof("[Scheduler] Award cycle %02d/%d created", cycle.Month, cycle.Year)
	}
}

func (s *Scheduler) syncStatus() {
	if _, err := s.cycles.SyncStatus(); err != nil && !errors.Is(err, ErrCycleNotFound) {
		logger.Errorf("[Scheduler] Failed to sync cycle status: %v", err)
	}
}
