package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"gorm.io/gorm"
)

type EmailTemplateService struct {
	db      *gorm.DB
	notify  *NotificationService
	baseURL string
}

func NewEmailTemplateService(db *gorm.DB, notify *NotificationService, baseURL string) *EmailTemplateService {
	return &EmailTemplateService{db: db, notify: notify, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *EmailTemplateService) List() ([]models.EmailTemplate, error) {
	var templates []models.EmailTemplate
	if err := s.db.Order("name ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

type UpdateEmailTemplateRequest struct {
	Subject  *string `json:"subject"`
	HTMLBody *string `json:"htmlBody"`
	IsActive *bool   `json:"isActive"`
}

// Update edits the stored template for a notification kind, creating the
// row from the built-in default if it was never seeded.
func (s *EmailTemplateService) Update(name string, req *UpdateEmailTemplateRequest) (*models.EmailTemplate, error) {
	if !KnownKind(name) {
		return nil, ErrTemplateNotFound
	}

	var tpl models.EmailTemplate
	err := s.db.Where("name = ?", name).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		for _, d := range models.DefaultEmailTemplates() {
			if d.Name == name {
				tpl = d
			}
		}
	} else if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		tpl.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.HTMLBody != nil {
		tpl.HTMLBody = *req.HTMLBody
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if tpl.Subject == "" || strings.TrimSpace(tpl.HTMLBody) == "" {
		return nil, newValidationError(errors.New("subject and htmlBody are required"))
	}
	if err := ValidateTemplate(tpl.Subject, tpl.HTMLBody); err != nil {
		return nil, newValidationError(err)
	}
	if _, err := RenderTemplate(&tpl, SampleVars(name, s.baseURL)); err != nil {
		return nil, newValidationError(err)
	}

	if err := s.db.Save(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Preview renders kind with sample values.
func (s *EmailTemplateService) Preview(name string) (*MailMessage, error) {
	if !KnownKind(name) {
		return nil, ErrTemplateNotFound
	}
	return s.notify.Render(name, SampleVars(name, s.baseURL))
}

// SendTest delivers kind with sample values to recipient synchronously.
func (s *EmailTemplateService) SendTest(ctx context.Context, name, recipient string) (NotifyResult, error) {
	if !KnownKind(name) {
		return NotifyResult{}, ErrTemplateNotFound
	}
	return s.notify.Notify(ctx, name, recipient, SampleVars(name, s.baseURL)), nil
}
