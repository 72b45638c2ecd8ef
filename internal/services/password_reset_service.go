package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authflow/internal/logging"
	"authflow/internal/models"
	"authflow/internal/repositories"
	"authflow/internal/utils"
	"authflow/internal/validation"
)

type PasswordResetService interface {
	// RequestReset issues and emails a reset token when the email belongs to
	// an account. It reports success either way.
	RequestReset(ctx context.Context, email string) error
	// ResetPassword consumes token and sets the new password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo repositories.UserRepository
	emails   EmailService
	auth     AuthService
	resetTTL time.Duration
	log      logging.Logger
	now      func() time.Time
}

func NewPasswordResetService(userRepo repositories.UserRepository, emails EmailService, auth AuthService, resetTTL time.Duration, log logging.Logger) PasswordResetService {
	return &passwordResetService{
		userRepo: userRepo,
		emails:   emails,
		auth:     auth,
		resetTTL: resetTTL,
		log:      log.With("component", "password_reset"),
		now:      time.Now,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// don't leak existence
			s.log.Debug(ctx, "reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	pair := &models.TokenPair{Token: token, ExpiresAt: s.now().Add(s.resetTTL)}
	if err := s.userRepo.Update(ctx, user.ID, models.UserUpdate{Reset: pair}); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
		s.log.Error(ctx, "password reset email failed", "user_id", user.ID, "error", err)
		return nil
	}
	s.log.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if len(validation.PasswordProblems(newPassword)) > 0 {
		return ErrWeakPassword
	}

	user, err := s.userRepo.GetByToken(ctx, models.TokenReset, token, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("load user by reset token: %w", err)
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.userRepo.Update(ctx, user.ID, models.UserUpdate{
		PasswordHash:     &hash,
		ClearReset:       true,
		ExpectResetToken: &token,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// consumed by a concurrent request
			return ErrInvalidResetToken
		}
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info(ctx, "password reset completed", "user_id", user.ID)
	return nil
}
