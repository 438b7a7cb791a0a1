package services

import (
	"testing"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnceClaimsFiring(t *testing.T) {
	env := newTestEnv(t)
	a := NewScheduler(env.db, env.svc.Cycles, env.svc.SystemLogs, true)
	b := NewScheduler(env.db, env.svc.Cycles, env.svc.SystemLogs, true)
	b.instance = "other"

	runs := 0
	a.runOnce(jobCreateCycle, func() { runs++ })
	b.runOnce(jobCreateCycle, func() { runs++ })
	assert.Equal(t, 1, runs, "a firing runs on one instance only")

	env.setNow(march10.Add(time.Minute))
	b.runOnce(jobCreateCycle, func() { runs++ })
	assert.Equal(t, 2, runs)
	assert.EqualValues(t, 2, count(t, env.db, &models.SchedulerLock{}))
}

func TestScheduler_CreateAndSync(t *testing.T) {
	env := newTestEnv(t)
	s := NewScheduler(env.db, env.svc.Cycles, env.svc.SystemLogs, true)

	s.syncStatus()
	s.createCycle()
	s.createCycle()
	assert.EqualValues(t, 1, count(t, env.db, &models.AwardCycle{}))

	env.setNow(time.Date(2025, time.March, 28, 1, 0, 0, 0, time.UTC))
	s.syncStatus()
	c, err := env.svc.Cycles.Get(3, 2025)
	require.NoError(t, err)
	assert.Equal(t, models.CycleJudging, c.Status)
}

func TestScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t)
	s := NewScheduler(env.db, env.svc.Cycles, env.svc.SystemLogs, false)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
