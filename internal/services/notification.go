package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

// NotifyResult is the outcome of a single delivery attempt.
type NotifyResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Notifier queues a notification for delivery. It never blocks on the mail
// server and never reports failure to the caller.
type Notifier interface {
	Dispatch(kind, recipient string, vars map[string]interface{})
}

// NotificationService renders notification templates and sends them through
// a Mailer. Each notification gets exactly one attempt.
type NotificationService struct {
	db     *gorm.DB
	mailer Mailer
	queue  TaskQueue
}

func NewNotificationService(db *gorm.DB, mailer Mailer, queue TaskQueue) *NotificationService {
	s := &NotificationService{db: db, mailer: mailer, queue: queue}
	if sq, ok := queue.(*SyncQueue); ok {
		sq.SetProcessor(s.Process)
	}
	return s
}

func KnownKind(kind string) bool {
	switch kind {
	case models.KindSubmissionConfirmation, models.KindWinnerNotification, models.KindMonthlyNewsletter:
		return true
	}
	return false
}

// Dispatch enqueues the notification. Enqueue failures are logged.
func (s *NotificationService) Dispatch(kind, recipient string, vars map[string]interface{}) {
	task := &MailTask{Kind: kind, Recipient: recipient, Vars: vars}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Str("kind", kind).Str("to", recipient).Msg("[Notification] enqueue failed")
		LogWarning("Notification", kind, fmt.Sprintf("Failed to enqueue %s email to %s: %v", kind, recipient, err), nil, "", "", nil)
	}
}

// Process is the queue processor. It returns an error only so that the
// worker can record the failure; the task is not retried.
func (s *NotificationService) Process(ctx context.Context, task *MailTask) error {
	res := s.Notify(ctx, task.Kind, task.Recipient, task.Vars)
	if !res.Success {
		return errors.New(res.Error)
	}
	return nil
}

// Notify renders and sends one notification synchronously.
func (s *NotificationService) Notify(ctx context.Context, kind, recipient string, vars map[string]interface{}) NotifyResult {
	res := s.notify(ctx, kind, recipient, vars)
	if !res.Success {
		logger.Warn().Str("kind", kind).Str("to", recipient).Str("error", res.Error).Msg("[Notification] delivery failed")
		LogWarning("Notification", kind, fmt.Sprintf("Failed to send %s email to %s: %s", kind, recipient, res.Error), nil, "", "", nil)
		return res
	}
	logger.Info().Str("kind", kind).Str("to", recipient).Msg("[Notification] email sent")
	return res
}

func (s *NotificationService) notify(ctx context.Context, kind, recipient string, vars map[string]interface{}) NotifyResult {
	if !KnownKind(kind) {
		return NotifyResult{Error: ErrUnknownKind.Error()}
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return NotifyResult{Error: "recipient is required"}
	}

	msg, err := s.Render(kind, vars)
	if err != nil {
		return NotifyResult{Error: err.Error()}
	}
	msg.To = recipient

	if err := s.mailer.Send(ctx, msg); err != nil {
		return NotifyResult{Error: err.Error()}
	}
	return NotifyResult{Success: true}
}

// Template returns the active stored template for kind, or the built-in one.
func (s *NotificationService) Template(kind string) (*models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	err := s.db.Where("name = ? AND is_active = ?", kind, true).First(&tpl).Error
	if err == nil {
		return &tpl, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn().Err(err).Str("kind", kind).Msg("[Notification] template lookup failed, using built-in")
	}
	for _, d := range models.DefaultEmailTemplates() {
		if d.Name == kind {
			d := d
			return &d, nil
		}
	}
	return nil, ErrTemplateNotFound
}

// Render fills in the subject and HTML body for kind. The subject is plain
// text; the body is HTML-escaped.
func (s *NotificationService) Render(kind string, vars map[string]interface{}) (*MailMessage, error) {
	tpl, err := s.Template(kind)
	if err != nil {
		return nil, err
	}
	return RenderTemplate(tpl, vars)
}

func RenderTemplate(tpl *models.EmailTemplate, vars map[string]interface{}) (*MailMessage, error) {
	subjectTpl, err := texttemplate.New("subject").Parse(tpl.Subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	bodyTpl, err := htmltemplate.New("body").Parse(tpl.HTMLBody)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}

	var subject, body bytes.Buffer
	if err := subjectTpl.Execute(&subject, vars); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	if err := bodyTpl.Execute(&body, vars); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	return &MailMessage{
		Subject:  strings.TrimSpace(subject.String()),
		HTMLBody: body.String(),
	}, nil
}

// ValidateTemplate parses subject and body without rendering.
func ValidateTemplate(subject, htmlBody string) error {
	if _, err := texttemplate.New("subject").Parse(subject); err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	if _, err := htmltemplate.New("body").Parse(htmlBody); err != nil {
		return fmt.Errorf("htmlBody: %w", err)
	}
	return nil
}

// SampleVars returns placeholder variables for previewing kind.
func SampleVars(kind, baseURL string) map[string]interface{} {
	vars := map[string]interface{}{
		"Name":         "Ada",
		"ProjectTitle": "Sample Project",
		"MonthName":    time.January.String(),
		"Year":         2025,
		"ProjectURL":   baseURL + "/projects/sample-project",
		"WinnersURL":   baseURL + "/winners",
		"AwardName":    "Vibe Coding Award winner",
	}
	if kind == models.KindMonthlyNewsletter {
		vars["Intro"] = "Here is what happened this month."
		vars["Winners"] = []NewsletterWinner{{Title: "Sample Project", URL: baseURL + "/projects/sample-project", Award: "Winner"}}
		vars["SiteURL"] = baseURL
		vars["UnsubscribeURL"] = baseURL + "/newsletter/unsubscribe?token=sample"
	}
	return vars
}

func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}
