package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type UserListResponse struct {
	Total int64         `json:"total"`
	Items []models.User `json:"items"`
}

func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	limit, offset := normalizePage(req.Limit, req.Offset)
	query := s.db.Model(&models.User{})
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if req.Role != "" {
		query = query.Where("role = ?", strings.ToUpper(req.Role))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	var users []models.User
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return &UserListResponse{Total: total, Items: users}, nil
}

type UpdateUserRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
	Name     *string `json:"name"`
}

func (s *UserService) Update(adminID, id uint, req *UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*req.Role))
		if role != models.RoleUser && role != models.RoleAdmin {
			return nil, newValidationError(fmt.Errorf("role: must be %s or %s", models.RoleUser, models.RoleAdmin))
		}
		updates["role"] = role
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == adminID {
			return nil, newValidationError(errors.New("isActive: you cannot disable your own account"))
		}
		updates["is_active"] = *req.IsActive
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	LogInfo("User", "Update", fmt.Sprintf("User %s updated", user.Email), uintPtr(adminID), "", "", updates)
	return &user, nil
}

// SetRoleByEmail is used by the command line to bootstrap admins.
func (s *UserService) SetRoleByEmail(email, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, newValidationError(fmt.Errorf("role: must be %s or %s", models.RoleUser, models.RoleAdmin))
	}
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	logger.Infof("[User] %s is now %s", email, role)
	return &user, nil
}
