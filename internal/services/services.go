package services

import (
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"gorm.io/gorm"
)

// Services wires every domain service over one database handle.
type Services struct {
	DB     *gorm.DB
	Config *config.Config
	Queue  TaskQueue

	Cycles        *CycleService
	Submissions   *SubmissionService
	Projects      *ProjectService
	Votes         *VotingService
	Scores        *ScoringService
	Notifications *NotificationService
	Newsletter    *NewsletterService
	Comments      *CommentService
	Dashboard     *DashboardService
	Auth          *AuthService
	OAuth         *OAuthService
	Users         *UserService
	Templates     *EmailTemplateService
	SystemConfig  *SystemConfigService
	SystemLogs    *SystemLogService
	LiveVotes     *SSEHub
}

// NewMailer picks SMTP, or the log mailer when running in debug mode with
// email switched off in the config file.
func NewMailer(db *gorm.DB, cfg *config.Config) Mailer {
	if cfg.Server.Mode == "debug" && !cfg.Email.Enabled {
		return LogMailer{}
	}
	return NewSMTPMailer(db, cfg.Email)
}

func New(db *gorm.DB, cfg *config.Config, queue TaskQueue, mailer Mailer) *Services {
	baseURL := cfg.Server.BaseURL

	cycles := NewCycleService(db, cfg.Cycle.Location())
	notifications := NewNotificationService(db, mailer, queue)
	hub := NewSSEHub()
	votes := NewVotingService(db, hub)
	scores := NewScoringService(db, notifications, baseURL)
	projects := NewProjectService(db, votes, scores)

	return &Services{
		DB:     db,
		Config: cfg,
		Queue:  queue,

		Cycles:        cycles,
		Submissions:   NewSubmissionService(db, cycles, notifications, baseURL),
		Projects:      projects,
		Votes:         votes,
		Scores:        scores,
		Notifications: notifications,
		Newsletter:    NewNewsletterService(db, notifications, cycles, baseURL),
		Comments:      NewCommentService(db),
		Dashboard:     NewDashboardService(db, cycles, projects, votes),
		Auth:          NewAuthService(db, &cfg.JWT, &cfg.OAuth),
		OAuth:         NewOAuthService(&cfg.OAuth, baseURL),
		Users:         NewUserService(db),
		Templates:     NewEmailTemplateService(db, notifications, baseURL),
		SystemConfig:  NewSystemConfigService(db),
		SystemLogs:    NewSystemLogService(db),
		LiveVotes:     hub,
	}
}
