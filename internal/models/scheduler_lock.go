package models

import "time"

// SchedulerLock marks one firing of a scheduled job as claimed, so that only
// one server instance runs it. (JobName, RunKey) is unique.
type SchedulerLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobName   string    `gorm:"uniqueIndex:idx_lock_job_run;size:100;not null" json:"jobName"`
	RunKey    string    `gorm:"uniqueIndex:idx_lock_job_run;size:100;not null" json:"runKey"`
	LockedBy  string    `gorm:"size:100" json:"lockedBy"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
}

func (SchedulerLock) TableName() string { return "scheduler_locks" }
