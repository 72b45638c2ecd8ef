package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authflow/internal/logging"
	"authflow/internal/models"
	"authflow/internal/repositories"
	"authflow/internal/utils"
)

type VerificationService interface {
	// Verify marks the user verified when code matches the outstanding,
	// unexpired verification code.
	Verify(ctx context.Context, userID, code string) error
	// Resend replaces the outstanding code with a fresh one and emails it.
	Resend(ctx context.Context, userID string) error
}

type verificationService struct {
	repo   repositories.UserRepository
	emails EmailService
	otpTTL time.Duration
	log    logging.Logger
	now    func() time.Time
}

func NewVerificationService(repo repositories.UserRepository, emails EmailService, otpTTL time.Duration, log logging.Logger) VerificationService {
	return &verificationService{
		repo:   repo,
		emails: emails,
		otpTTL: otpTTL,
		log:    log.With("component", "verification_service"),
		now:    time.Now,
	}
}

func (s *verificationService) load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *verificationService) Verify(ctx context.Context, userID, code string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if !user.VerificationCodeMatches(code, s.now()) {
		return ErrInvalidOTP
	}

	verified := true
	err = s.repo.Update(ctx, user.ID, models.UserUpdate{IsVerified: &verified, ClearVerification: true})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("mark verified: %w", err)
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

func (s *verificationService) Resend(ctx context.Context, userID string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	pair := &models.TokenPair{Token: otp, ExpiresAt: s.now().Add(s.otpTTL)}
	if err := s.repo.Update(ctx, user.ID, models.UserUpdate{Verification: pair}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.emails.SendVerificationEmail(user.Email, otp); err != nil {
		s.log.Error(ctx, "resend verification email failed", "user_id", user.ID, "error", err)
		return err
	}
	s.log.Info(ctx, "verification code resent", "user_id", user.ID)
	return nil
}
