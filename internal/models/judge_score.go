package models

import "time"

// JudgeScore holds one judge's evaluation of one project. Only rows with
// IsComplete set count toward the average.
type JudgeScore struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JudgeID     uint      `gorm:"uniqueIndex:idx_judge_project;not null" json:"judgeId"`
	ProjectID   uint      `gorm:"uniqueIndex:idx_judge_project;index;not null" json:"projectId"`
	VibeProcess int       `gorm:"not null" json:"vibeProcess"`
	Originality int       `gorm:"not null" json:"originality"`
	Execution   int       `gorm:"not null" json:"execution"`
	WowFactor   int       `gorm:"not null" json:"wowFactor"`
	TotalScore  float64   `gorm:"not null" json:"totalScore"`
	Feedback    string    `gorm:"type:text" json:"feedback"`
	IsComplete  bool      `gorm:"default:false;index" json:"isComplete"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Judge *User `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
}

func (JudgeScore) TableName() string { return "judge_scores" }
