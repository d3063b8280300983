package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailService sends transactional mail. The dev implementation talks
// plain SMTP to a local catcher (Mailpit and friends); a hosted
// provider slots in behind the same interface.
type EmailService interface {
	SendEmail(ctx context.Context, req EmailRequest) error
}

type smtpEmailService struct {
	smtpAddr string
	from     string
}

// NewDevEmailService creates an unauthenticated SMTP sender
func NewDevEmailService(smtpHost, smtpPort, from string) EmailService {
	return &smtpEmailService{
		smtpAddr: smtpHost + ":" + smtpPort,
		from:     from,
	}
}

func (s *smtpEmailService) SendEmail(ctx context.Context, req EmailRequest) error {
	if len(req.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	contentType := "text/plain; charset=utf-8"
	if req.IsHTML {
		contentType = "text/html; charset=utf-8"
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n%s",
		s.from, strings.Join(req.To, ", "), req.Subject, contentType, req.Body))

	if err := smtp.SendMail(s.smtpAddr, nil, s.from, req.To, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
