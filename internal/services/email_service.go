package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"authflow/internal/config"
	"authflow/internal/logging"
)

type EmailService interface {
	SendVerificationEmail(email, otp string) error
	SendPasswordResetEmail(email, token string) error
}

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender   sender
	from     string
	appURL   string
	otpTTL   time.Duration
	resetTTL time.Duration
}

// NewEmailService sends through SMTP, or through the logger when
// cfg.DryRun is set.
func NewEmailService(cfg config.EmailConfig, appURL string, auth config.AuthConfig, log logging.Logger) EmailService {
	var snd sender
	if cfg.DryRun {
		snd = &logSender{log: log}
	} else {
		snd = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return newEmailService(snd, cfg.FromEmail, appURL, auth.OTPTTL, auth.ResetTTL)
}

func newEmailService(snd sender, from, appURL string, otpTTL, resetTTL time.Duration) *emailService {
	return &emailService{
		sender:   snd,
		from:     from,
		appURL:   strings.TrimRight(appURL, "/"),
		otpTTL:   otpTTL,
		resetTTL: resetTTL,
	}
}

func (s *emailService) SendVerificationEmail(email, otp string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Verify Your Email")

	ttl := humanDuration(s.otpTTL)
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s. This code will expire in %s.", otp, ttl))
	m.AddAlternative("text/html", fmt.Sprintf(`
		<h1>Email Verification</h1>
		<p>Your verification code is: <strong>%s</strong></p>
		<p>This code will expire in %s.</p>
	`, otp, ttl))

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Reset Your Password")

	link := s.resetLink(token)
	ttl := humanDuration(s.resetTTL)
	m.SetBody("text/plain", fmt.Sprintf("Click the following link to reset your password: %s. This link will expire in %s.", link, ttl))
	m.AddAlternative("text/html", fmt.Sprintf(`
		<h1>Password Reset</h1>
		<p>Click the link below to reset your password:</p>
		<a href="%s">Reset Password</a>
		<p>This link will expire in %s.</p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, link, ttl))

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) resetLink(token string) string {
	return s.appURL + "/reset-password/" + token
}

// humanDuration renders whole hours as "1 hour"/"2 hours" and anything else
// in minutes.
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int64(d/time.Hour), "hour")
	}
	return plural(int64(d/time.Minute), "minute")
}

// logSender writes messages to the log instead of an SMTP server. Codes and
// links end up in the log, which is why config refuses it in production.
type logSender struct {
	log logging.Logger
}

func (l *logSender) DialAndSend(msgs ...*gomail.Message) error {
	for _, m := range msgs {
		var buf bytes.Buffer
		if _, err := m.WriteTo(&buf); err != nil {
			return err
		}
		l.log.Info(context.Background(), "email dry run",
			"to", m.GetHeader("To"),
			"subject", m.GetHeader("Subject"),
			"message", buf.String(),
		)
	}
	return nil
}
