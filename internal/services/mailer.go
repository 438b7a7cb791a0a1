package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

type MailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers one rendered message. Implementations must not retry.
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// SMTPSettings is the effective SMTP configuration at send time.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

// SMTPMailer sends through an SMTP relay. Settings are read on every send so
// that admin edits to the email config group apply without a restart.
type SMTPMailer struct {
	db       *gorm.DB
	defaults config.EmailConfig
	timeout  time.Duration
}

func NewSMTPMailer(db *gorm.DB, defaults config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{db: db, defaults: defaults, timeout: 15 * time.Second}
}

// Settings overlays non-empty values from system_configs on the file/env
// defaults. Either source can enable delivery.
func (m *SMTPMailer) Settings() *SMTPSettings {
	s := &SMTPSettings{
		Enabled:  m.defaults.Enabled,
		Host:     m.defaults.Host,
		Port:     m.defaults.Port,
		Username: m.defaults.Username,
		Password: m.defaults.Password,
		From:     m.defaults.From,
		UseTLS:   m.defaults.UseTLS,
	}

	var rows []models.SystemConfig
	if err := m.db.Where("config_group = ?", "email").Find(&rows).Error; err != nil {
		logger.Warn().Err(err).Msg("[Mailer] failed to read email settings, using defaults")
	}
	for _, r := range rows {
		if r.Value == "" {
			continue
		}
		switch r.Key {
		case "email_enabled":
			s.Enabled = s.Enabled || r.Value == "true"
		case "email_host":
			s.Host = r.Value
		case "email_port":
			if port, err := strconv.Atoi(r.Value); err == nil && port > 0 {
				s.Port = port
			}
		case "email_username":
			s.Username = r.Value
		case "email_password":
			s.Password = r.Value
		case "email_from":
			s.From = r.Value
		case "email_use_tls":
			s.UseTLS = s.UseTLS || r.Value == "true"
		}
	}
	if s.Port == 0 {
		s.Port = 587
	}
	return s
}

func (m *SMTPMailer) Send(ctx context.Context, msg *MailMessage) error {
	s := m.Settings()
	if !s.Enabled || s.Host == "" {
		return ErrEmailDisabled
	}

	from := s.From
	if from == "" {
		from = s.Username
	}
	envelopeFrom := from
	if addr, err := mail.ParseAddress(from); err == nil {
		envelopeFrom = addr.Address
	}

	data := buildMessage(from, msg)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if s.UseTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: s.Host})
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !s.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.Username != "" && s.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(envelopeFrom); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from string, msg *MailMessage) []byte {
	var b strings.Builder
	headers := [][2]string{
		{"From", from},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them. Used when
// running without SMTP in development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg *MailMessage) error {
	logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("[Mailer] email (log only)")
	return nil
}

// MemoryMailer records sent messages. Err, when set, is returned from every send.
type MemoryMailer struct {
	mu   sync.Mutex
	Sent []MailMessage
	Err  error
}

func (m *MemoryMailer) Send(_ context.Context, msg *MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, *msg)
	return nil
}

func (m *MemoryMailer) Messages() []MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MailMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}
