package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectDraft         ProjectStatus = "DRAFT"
	ProjectSubmitted     ProjectStatus = "SUBMITTED"
	ProjectUnderReview   ProjectStatus = "UNDER_REVIEW"
	ProjectWinner        ProjectStatus = "WINNER"
	ProjectStandout      ProjectStatus = "STANDOUT"
	ProjectPeoplesChoice ProjectStatus = "PEOPLES_CHOICE"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectSubmitted, ProjectUnderReview, ProjectWinner, ProjectStandout, ProjectPeoplesChoice:
		return true
	}
	return false
}

// Categories a project may be filed under.
var Categories = []string{
	"web-app",
	"mobile-app",
	"game",
	"tool",
	"ai-ml",
	"creative",
	"data",
	"other",
}

// Project is a submission to a monthly cycle. SubmissionMonth/Year are
// stamped once at creation and key every vote cast on it.
type Project struct {
	ID                  uint          `gorm:"primaryKey" json:"id"`
	UserID              uint          `gorm:"index;not null" json:"userId"`
	Title               string        `gorm:"size:200;not null" json:"title"`
	Slug                string        `gorm:"uniqueIndex;size:240;not null" json:"slug"`
	Description         string        `gorm:"type:text;not null" json:"description"`
	VibeNarrative       string        `gorm:"type:text;not null" json:"vibeNarrative"`
	Category            string        `gorm:"size:50;index" json:"category"`
	Tags                []string      `gorm:"type:text;serializer:json" json:"tags"`
	AITools             []string      `gorm:"column:ai_tools;type:text;serializer:json" json:"aiTools"`
	DemoURL             string        `gorm:"size:500" json:"demoUrl"`
	RepoURL             string        `gorm:"size:500" json:"repoUrl"`
	VideoURL            string        `gorm:"size:500" json:"videoUrl"`
	DownloadURL         string        `gorm:"size:500" json:"downloadUrl"`
	AIGeneratedPercent  int           `gorm:"column:ai_generated_percent;default:0" json:"aiGeneratedPercent"`
	AIRefactoredPercent int           `gorm:"column:ai_refactored_percent;default:0" json:"aiRefactoredPercent"`
	HumanWrittenPercent int           `gorm:"default:0" json:"humanWrittenPercent"`
	Status              ProjectStatus `gorm:"size:20;index;default:SUBMITTED;not null" json:"status"`
	SubmissionMonth     int           `gorm:"index:idx_project_month_year;not null" json:"submissionMonth"`
	SubmissionYear      int           `gorm:"index:idx_project_month_year;not null" json:"submissionYear"`
	IsWinner            bool          `gorm:"default:false" json:"isWinner"`
	IsPeoplesChoice     bool          `gorm:"default:false" json:"isPeoplesChoice"`
	IsStandout          bool          `gorm:"default:false" json:"isStandout"`
	SubmittedAt         time.Time     `json:"submittedAt"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`

	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TeamMembers []TeamMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"teamMembers,omitempty"`
	Media       []Media      `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
}

func (Project) TableName() string { return "projects" }

// BeforeDelete removes children explicitly; SQLite ignores FK cascades unless
// foreign_keys is enabled on the connection.
func (p *Project) BeforeDelete(tx *gorm.DB) error {
	for _, m := range []interface{}{&TeamMember{}, &Media{}, &Vote{}, &JudgeScore{}, &Comment{}} {
		if err := tx.Where("project_id = ?", p.ID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

type TeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"projectId"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Role      string    `gorm:"size:100" json:"role"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	GitHub    string    `gorm:"column:github;size:100" json:"github,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (TeamMember) TableName() string { return "team_members" }

const (
	MediaImage = "IMAGE"
	MediaVideo = "VIDEO"
)

// Media references an externally hosted image or video; no bytes are stored.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"projectId"`
	Type      string    `gorm:"size:10;not null" json:"type"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	Caption   string    `gorm:"size:300" json:"caption,omitempty"`
	Order     int       `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Media) TableName() string { return "media" }
