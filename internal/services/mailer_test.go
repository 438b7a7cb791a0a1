package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_SettingsOverlay(t *testing.T) {
	db := newTestDB(t)
	m := NewSMTPMailer(db, config.EmailConfig{Host: "smtp.file.example", Port: 25, From: "file@example.com"})

	s := m.Settings()
	assert.False(t, s.Enabled)
	assert.Equal(t, "smtp.file.example", s.Host)

	rows := []models.SystemConfig{
		{Key: "email_enabled", Value: "true", Group: "email"},
		{Key: "email_host", Value: "smtp.db.example", Group: "email"},
		{Key: "email_port", Value: "465", Group: "email"},
		{Key: "email_from", Value: "", Group: "email"},
	}
	require.NoError(t, db.Create(&rows).Error)

	s = m.Settings()
	assert.True(t, s.Enabled)
	assert.Equal(t, "smtp.db.example", s.Host)
	assert.Equal(t, 465, s.Port)
	assert.Equal(t, "file@example.com", s.From, "empty stored values keep the default")
}

func TestSMTPMailer_Disabled(t *testing.T) {
	db := newTestDB(t)
	m := NewSMTPMailer(db, config.EmailConfig{Enabled: true})

	err := m.Send(context.Background(), &MailMessage{To: "ada@example.com", Subject: "Hi"})
	assert.ErrorIs(t, err, ErrEmailDisabled, "no host means no delivery")
}

func TestBuildMessage(t *testing.T) {
	data := string(buildMessage("Vibe <noreply@example.com>", &MailMessage{
		To:       "ada@example.com",
		Subject:  "Ciao è tutto ok",
		HTMLBody: "<p>hi</p>",
	}))

	head, body, ok := strings.Cut(data, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: Vibe <noreply@example.com>\r\n")
	assert.Contains(t, head, "To: ada@example.com\r\n")
	assert.Contains(t, head, "Subject: =?utf-8?q?")
	assert.Contains(t, head, "Content-Type: text/html; charset=UTF-8")
	assert.Equal(t, "<p>hi</p>", body)
}
