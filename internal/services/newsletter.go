package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NewsletterWinner struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Award string `json:"award"`
}

type NewsletterService struct {
	db      *gorm.DB
	notify  *NotificationService
	cycles  *CycleService
	baseURL string
}

func NewNewsletterService(db *gorm.DB, notify *NotificationService, cycles *CycleService, baseURL string) *NewsletterService {
	return &NewsletterService{db: db, notify: notify, cycles: cycles, baseURL: strings.TrimRight(baseURL, "/")}
}

// Subscribe adds email to the list. Subscribing again reactivates a lapsed
// subscription and is otherwise a no-op.
func (s *NewsletterService) Subscribe(email string) (*models.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return nil, newValidationError(fmt.Errorf("email: %w", err))
	}

	var sub models.NewsletterSubscriber
	err := s.db.Where("email = ?", email).First(&sub).Error
	switch {
	case err == nil:
		if sub.IsActive {
			return &sub, nil
		}
		if err := s.db.Model(&sub).Updates(map[string]interface{}{
			"is_active":       true,
			"subscribed_at":   time.Now(),
			"unsubscribed_at": nil,
		}).Error; err != nil {
			return nil, err
		}
		sub.IsActive = true
		sub.UnsubscribedAt = nil
		return &sub, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	sub = models.NewsletterSubscriber{
		Email:        email,
		Token:        uuid.NewString(),
		IsActive:     true,
		SubscribedAt: time.Now(),
	}
	if err := s.db.Create(&sub).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return s.Subscribe(email)
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	logger.Debug().Str("email", email).Msg("[Newsletter] subscribed")
	return &sub, nil
}

// Unsubscribe deactivates the subscription owning token.
func (s *NewsletterService) Unsubscribe(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrSubscriberNotFound
	}
	var sub models.NewsletterSubscriber
	if err := s.db.Where("token = ?", token).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubscriberNotFound
		}
		return err
	}
	if !sub.IsActive {
		return nil
	}
	now := time.Now()
	return s.db.Model(&sub).Updates(map[string]interface{}{
		"is_active":       false,
		"unsubscribed_at": now,
	}).Error
}

func (s *NewsletterService) List(activeOnly bool, limit, offset int) ([]models.NewsletterSubscriber, int64, error) {
	limit, offset = normalizePage(limit, offset)
	query := s.db.Model(&models.NewsletterSubscriber{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var subs []models.NewsletterSubscriber
	if err := query.Order("subscribed_at DESC, id DESC").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

type SendNewsletterRequest struct {
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Intro string `json:"intro"`
}

type SendNewsletterResult struct {
	Month  int      `json:"month"`
	Year   int      `json:"year"`
	Total  int      `json:"total"`
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Send mails the monthly newsletter to every active subscriber, one attempt
// each, and records the send on the cycle when one exists. Zero month/year
// means the current month.
func (s *NewsletterService) Send(ctx context.Context, req SendNewsletterRequest) (*SendNewsletterResult, error) {
	if req.Month == 0 || req.Year == 0 {
		req.Month, req.Year = s.cycles.MonthOf(s.cycles.Now())
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, newValidationError(errors.New("month: must be between 1 and 12"))
	}

	winners, err := s.winners(req.Month, req.Year)
	if err != nil {
		return nil, err
	}

	var subs []models.NewsletterSubscriber
	if err := s.db.Where("is_active = ?", true).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}

	result := &SendNewsletterResult{Month: req.Month, Year: req.Year, Total: len(subs)}
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := s.notify.Notify(ctx, models.KindMonthlyNewsletter, sub.Email, map[string]interface{}{
			"MonthName":      monthName(req.Month),
			"Year":           req.Year,
			"Intro":          strings.TrimSpace(req.Intro),
			"Winners":        winners,
			"SiteURL":        s.baseURL,
			"UnsubscribeURL": s.baseURL + "/newsletter/unsubscribe?token=" + sub.Token,
		})
		if res.Success {
			result.Sent++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, sub.Email+": "+res.Error)
	}

	if cycle, err := s.cycles.Get(req.Month, req.Year); err == nil {
		now := time.Now()
		if err := s.db.Model(cycle).Update("newsletter_sent_at", now).Error; err != nil {
			logger.Warn().Err(err).Msg("[Newsletter] failed to record send time")
		}
	}

	logger.Infof("[Newsletter] %02d/%d newsletter: %d sent, %d failed", req.Month, req.Year, result.Sent, result.Failed)
	LogInfo("Newsletter", "Send", fmt.Sprintf("Newsletter for %02d/%d: %d sent, %d failed", req.Month, req.Year, result.Sent, result.Failed), nil, "", "", nil)
	return result, nil
}

func (s *NewsletterService) winners(month, year int) ([]NewsletterWinner, error) {
	var projects []models.Project
	err := s.db.Where("submission_month = ? AND submission_year = ?", month, year).
		Where("is_winner = ? OR is_peoples_choice = ? OR is_standout = ?", true, true, true).
		Order("is_winner DESC, is_peoples_choice DESC, id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	out := make([]NewsletterWinner, 0, len(projects))
	for _, p := range projects {
		out = append(out, NewsletterWinner{
			Title: p.Title,
			URL:   s.baseURL + "/projects/" + p.Slug,
			Award: awardLabel(&p),
		})
	}
	return out, nil
}

func awardLabel(p *models.Project) string {
	switch {
	case p.IsWinner:
		return "Winner"
	case p.IsPeoplesChoice:
		return "People's Choice"
	case p.IsStandout:
		return "Standout"
	}
	return ""
}
