package services

import (
	"errors"
	"strconv"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

// GetInt returns a positive integer setting, or def when unset or invalid.
func (s *SystemConfigService) GetInt(key string, def int) int {
	v, err := strconv.Atoi(s.GetWithDefault(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("config_key = ?", key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where("config_group = ?", group).Order("id ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

type EmailConfigResponse struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	From        string `json:"from"`
	UseTLS      bool   `json:"useTls"`
	PasswordSet bool   `json:"passwordSet"`
}

func (s *SystemConfigService) GetEmailConfig() *EmailConfigResponse {
	port, _ := strconv.Atoi(s.GetWithDefault("email_port", "587"))
	return &EmailConfigResponse{
		Enabled:     s.GetWithDefault("email_enabled", "false") == "true",
		Host:        s.GetWithDefault("email_host", ""),
		Port:        port,
		Username:    s.GetWithDefault("email_username", ""),
		From:        s.GetWithDefault("email_from", ""),
		UseTLS:      s.GetWithDefault("email_use_tls", "false") == "true",
		PasswordSet: s.GetWithDefault("email_password", "") != "",
	}
}

type UpdateEmailConfigRequest struct {
	Enabled  *bool   `json:"enabled"`
	Host     *string `json:"host"`
	Port     *int    `json:"port"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	From     *string `json:"from"`
	UseTLS   *bool   `json:"useTls"`
}

// UpdateEmailConfig writes only the fields present in req. An empty password
// keeps the stored one.
func (s *SystemConfigService) UpdateEmailConfig(req *UpdateEmailConfigRequest) error {
	updates := map[string]string{}
	if req.Enabled != nil {
		updates["email_enabled"] = strconv.FormatBool(*req.Enabled)
	}
	if req.Host != nil {
		updates["email_host"] = *req.Host
	}
	if req.Port != nil {
		if *req.Port <= 0 || *req.Port > 65535 {
			return newValidationError(errors.New("port: must be between 1 and 65535"))
		}
		updates["email_port"] = strconv.Itoa(*req.Port)
	}
	if req.Username != nil {
		updates["email_username"] = *req.Username
	}
	if req.Password != nil && *req.Password != "" {
		updates["email_password"] = *req.Password
	}
	if req.From != nil {
		updates["email_from"] = *req.From
	}
	if req.UseTLS != nil {
		updates["email_use_tls"] = strconv.FormatBool(*req.UseTLS)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		txs := NewSystemConfigService(tx)
		for k, v := range updates {
			if err := txs.Set(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}
