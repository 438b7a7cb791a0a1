package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	validation "github.com/go-ozzo/ozzo-validation"
	"gorm.io/gorm"
)

const maxCommentLength = 2000

// CommentService handles project comments. New comments wait for an admin
// to approve them before they are shown.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) Add(userID, projectID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validation.Validate(content,
		validation.Required.Error("content is required"),
		validation.RuneLength(1, maxCommentLength),
	); err != nil {
		return nil, newValidationError(fmt.Errorf("content: %w", err))
	}

	var count int64
	if err := s.db.Model(&models.Project{}).Where("id = ? AND status <> ?", projectID, models.ProjectDraft).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrProjectNotFound
	}

	comment := models.Comment{
		ProjectID:  projectID,
		UserID:     userID,
		Content:    content,
		IsApproved: false,
	}
	if err := s.db.Omit("User").Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	logger.Debug().Uint("comment_id", comment.ID).Uint("project_id", projectID).Msg("[Comment] created, pending approval")
	return &comment, nil
}

func (s *CommentService) ListApproved(projectID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Preload("User", publicUser).
		Where("project_id = ? AND is_approved = ?", projectID, true).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

type CommentListRequest struct {
	Approved *bool `form:"approved"`
	Limit    int   `form:"limit"`
	Offset   int   `form:"offset"`
}

type CommentListResponse struct {
	Total int64            `json:"total"`
	Items []models.Comment `json:"items"`
}

// AdminList returns comments for moderation, oldest first.
func (s *CommentService) AdminList(req *CommentListRequest) (*CommentListResponse, error) {
	limit, offset := normalizePage(req.Limit, req.Offset)
	query := s.db.Model(&models.Comment{})
	if req.Approved != nil {
		query = query.Where("is_approved = ?", *req.Approved)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := query.Preload("User").Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		return nil, err
	}
	return &CommentListResponse{Total: total, Items: comments}, nil
}

func (s *CommentService) Approve(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&comment).Update("is_approved", true).Error; err != nil {
		return nil, err
	}
	comment.IsApproved = true
	return &comment, nil
}

func (s *CommentService) Delete(id uint) error {
	result := s.db.Delete(&models.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
