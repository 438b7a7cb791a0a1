package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/utils"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

// AuthService turns a verified provider profile into a session: a short
// JWT access token plus a rotating refresh token stored as a hash.
type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
	oauth     *config.OAuthConfig
	configSvc *SystemConfigService
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, oauthCfg *config.OAuthConfig) *AuthService {
	return &AuthService{
		db:        db,
		jwtConfig: jwtCfg,
		oauth:     oauthCfg,
		configSvc: NewSystemConfigService(db),
		now:       time.Now,
	}
}

// OAuthProfile is what a provider tells us about the signed-in person.
type OAuthProfile struct {
	Provider string
	Email    string
	Name     string
	Image    string
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

// SignIn finds or creates the user for profile. Emails on the admin
// allow-list are promoted to ADMIN; nobody is demoted here.
func (s *AuthService) SignIn(profile *OAuthProfile, clientIP, userAgent string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, errors.New("provider did not return an email address")
	}

	now := s.now()
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:     email,
			Name:      profile.Name,
			Image:     profile.Image,
			Role:      models.RoleUser,
			Provider:  profile.Provider,
			IsActive:  true,
			LastLogin: &now,
		}
		if s.oauth.IsAdminEmail(email) {
			user.Role = models.RoleAdmin
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		logger.Infof("[Auth] New %s user %d (%s) role=%s", profile.Provider, user.ID, email, user.Role)
	case err != nil:
		return nil, err
	default:
		if !user.IsActive {
			return nil, ErrUserDisabled
		}
		updates := map[string]interface{}{"last_login": now, "provider": profile.Provider}
		if user.Name == "" && profile.Name != "" {
			updates["name"] = profile.Name
		}
		if profile.Image != "" {
			updates["image"] = profile.Image
		}
		if s.oauth.IsAdminEmail(email) && user.Role != models.RoleAdmin {
			updates["role"] = models.RoleAdmin
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	LogInfo("Auth", "SignIn", fmt.Sprintf("User %s signed in with %s", email, profile.Provider), uintPtr(user.ID), clientIP, userAgent, nil)
	return s.issue(&user, clientIP, userAgent)
}

func (s *AuthService) issue(user *models.User, clientIP, userAgent string) (*LoginResult, error) {
	return s.issueWith(s.db, user, clientIP, userAgent, s.getAccessTokenExpireHours(), s.getRefreshTokenExpireHours())
}

// issueWith creates a token pair through db, which may be a transaction.
func (s *AuthService) issueWith(db *gorm.DB, user *models.User, clientIP, userAgent string, accessHours, refreshHours int) (*LoginResult, error) {
	now := s.now()

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   truncate(userAgent, 255),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: record.ExpiresAt,
		User:            user,
	}, nil
}

// Refresh exchanges a live refresh token for a new pair. The old token is
// revoked and linked to its replacement.
func (s *AuthService) Refresh(refreshToken, clientIP, userAgent string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefresh
	}

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !stored.Active(s.now()) {
		return nil, ErrInvalidRefresh
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessHours := s.getAccessTokenExpireHours()
	refreshHours := s.getRefreshTokenExpireHours()

	var result *LoginResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if result, err = s.issueWith(tx, &user, clientIP, userAgent, accessHours, refreshHours); err != nil {
			return err
		}
		var replacement models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(result.RefreshToken)).First(&replacement).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":           s.now(),
				"replaced_by_token_id": replacement.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		// a concurrent refresh already rotated this token
		if res.RowsAffected == 0 {
			return ErrInvalidRefresh
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", s.now()).Error
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) getAccessTokenExpireHours() int {
	return s.configSvc.GetInt("auth_access_token_expire_hours", s.jwtConfig.ExpireHour)
}

func (s *AuthService) getRefreshTokenExpireHours() int {
	return s.configSvc.GetInt("auth_refresh_token_expire_hours", 720)
}

// RefreshTTL is used for the refresh cookie lifetime.
func (s *AuthService) RefreshTTL() time.Duration {
	return time.Duration(s.getRefreshTokenExpireHours()) * time.Hour
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
