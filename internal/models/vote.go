package models

import "time"

// Vote is one user's community vote for a project. Month/Year are copied from
// the project's submission stamp, so (user, project, month, year) is unique.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_vote_unique;not null" json:"userId"`
	ProjectID uint      `gorm:"uniqueIndex:idx_vote_unique;index;not null" json:"projectId"`
	Month     int       `gorm:"uniqueIndex:idx_vote_unique;not null" json:"month"`
	Year      int       `gorm:"uniqueIndex:idx_vote_unique;not null" json:"year"`
	CreatedAt time.Time `json:"createdAt"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
}

func (Vote) TableName() string { return "votes" }
