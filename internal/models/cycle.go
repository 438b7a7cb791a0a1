package models

import "time"

type CycleStatus string

const (
	CycleSubmissionOpen CycleStatus = "SUBMISSION_OPEN"
	CycleVoting         CycleStatus = "VOTING"
	CycleJudging        CycleStatus = "JUDGING"
	CycleCompleted      CycleStatus = "COMPLETED"
)

// ParseCycleStatus accepts the canonical values plus OPEN, the alias used by
// older admin clients.
func ParseCycleStatus(s string) (CycleStatus, bool) {
	switch CycleStatus(s) {
	case CycleSubmissionOpen, CycleVoting, CycleJudging, CycleCompleted:
		return CycleStatus(s), true
	}
	if s == "OPEN" {
		return CycleSubmissionOpen, true
	}
	return "", false
}

// AwardCycle is one monthly competition. (month, year) is unique.
type AwardCycle struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Month            int         `gorm:"uniqueIndex:idx_cycle_month_year;not null" json:"month"`
	Year             int         `gorm:"uniqueIndex:idx_cycle_month_year;not null" json:"year"`
	SubmissionStart  time.Time   `json:"submissionStart"`
	SubmissionEnd    time.Time   `json:"submissionEnd"`
	VotingStart      time.Time   `json:"votingStart"`
	VotingEnd        time.Time   `json:"votingEnd"`
	JudgingStart     time.Time   `json:"judgingStart"`
	JudgingEnd       time.Time   `json:"judgingEnd"`
	AnnouncementDate time.Time   `json:"announcementDate"`
	Status           CycleStatus `gorm:"size:20;default:SUBMISSION_OPEN;not null" json:"status"`
	WinnerAnnounced  bool        `gorm:"default:false" json:"winnerAnnounced"`
	NewsletterSentAt *time.Time  `json:"newsletterSentAt"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func (AwardCycle) TableName() string { return "award_cycles" }
