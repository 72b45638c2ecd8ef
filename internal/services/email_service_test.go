package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"authflow/internal/config"
	"authflow/internal/logging"
)

type captureSender struct {
	msgs []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m...)
	return nil
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestEmailService_Verification(t *testing.T) {
	snd := &captureSender{}
	s := newEmailService(snd, "noreply@example.com", "http://localhost:8080", 10*time.Minute, time.Hour)

	require.NoError(t, s.SendVerificationEmail("ada@example.com", "482913"))
	require.Len(t, snd.msgs, 1)

	m := snd.msgs[0]
	assert.Equal(t, []string{"noreply@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"ada@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Verify Your Email"}, m.GetHeader("Subject"))

	body := render(t, m)
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "10 minutes")
}

func TestEmailService_PasswordReset(t *testing.T) {
	snd := &captureSender{}
	s := newEmailService(snd, "noreply@example.com", "https://accounts.example.com/", 10*time.Minute, time.Hour)

	require.NoError(t, s.SendPasswordResetEmail("ada@example.com", "abc123"))
	require.Len(t, snd.msgs, 1)
	assert.Equal(t, []string{"Reset Your Password"}, snd.msgs[0].GetHeader("Subject"))
	assert.Contains(t, render(t, snd.msgs[0]), "1 hour")

	assert.Equal(t, "https://accounts.example.com/reset-password/abc123", s.resetLink("abc123"))
}

func TestEmailService_SendFailure(t *testing.T) {
	s := newEmailService(&captureSender{err: errors.New("dial tcp: refused")}, "a@b.c", "", time.Minute, time.Hour)
	err := s.SendVerificationEmail("ada@example.com", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestEmailService_DryRunLogs(t *testing.T) {
	var out bytes.Buffer
	log := logging.New(&out, "development")
	s := NewEmailService(config.EmailConfig{DryRun: true, FromEmail: "noreply@example.com"},
		"http://localhost:8080", config.AuthConfig{OTPTTL: 10 * time.Minute, ResetTTL: time.Hour}, log)

	require.NoError(t, s.SendVerificationEmail("ada@example.com", "123456"))
	assert.Contains(t, out.String(), "email dry run")
	assert.Contains(t, out.String(), "ada@example.com")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "10 minutes", humanDuration(10*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "90 minutes", humanDuration(90*time.Minute))
}
