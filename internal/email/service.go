package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

type Service interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendCategoryApproved(ctx context.Context, to, categoryName string) error
	SendCategoryRejected(ctx context.Context, to, categoryName, reason string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *zerolog.Logger
}

func NewSMTPService(cfg Config, logger *zerolog.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendWelcome(_ context.Context, to, name string) error {
	body := fmt.Sprintf("Ciao %s,\n\nil tuo account helpdesk è stato creato.\n", name)
	return s.send(to, "Benvenuto nel portale di assistenza", body)
}

func (s *smtpService) SendCategoryApproved(_ context.Context, to, categoryName string) error {
	body := fmt.Sprintf("La categoria %q è stata approvata ed è ora attiva.\n", categoryName)
	return s.send(to, "Categoria approvata", body)
}

func (s *smtpService) SendCategoryRejected(_ context.Context, to, categoryName, reason string) error {
	body := fmt.Sprintf("La categoria %q è stata rifiutata.\n\nMotivo: %s\n", categoryName, reason)
	return s.send(to, "Categoria rifiutata", body)
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, body string) error {
	return s.send(to, subject, body)
}

// noopService is used when SMTP is not configured.
type noopService struct {
	logger *zerolog.Logger
}

func NewNoopService(logger *zerolog.Logger) Service {
	return &noopService{logger: logger}
}

func (s *noopService) log(to, subject string) error {
	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sending disabled, dropping message")
	return nil
}

func (s *noopService) SendWelcome(_ context.Context, to, _ string) error {
	return s.log(to, "welcome")
}

func (s *noopService) SendCategoryApproved(_ context.Context, to, _ string) error {
	return s.log(to, "category approved")
}

func (s *noopService) SendCategoryRejected(_ context.Context, to, _, _ string) error {
	return s.log(to, "category rejected")
}

func (s *noopService) SendCustom(_ context.Context, to, subject, _ string) error {
	return s.log(to, subject)
}
