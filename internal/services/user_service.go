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

// SignupInput is a validated signup request with the birth date parsed.
type SignupInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth time.Time
	Phone       string
	Street      string
	Town        string
	Country     string
	State       string
	ZipCode     string
}

type UserService interface {
	// Register creates an unverified user and emails the verification code.
	Register(ctx context.Context, in SignupInput) (*models.User, error)
	// Authenticate returns the user only for a correct password on a
	// verified account.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
	otpTTL       time.Duration
	log          logging.Logger
	now          func() time.Time
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService, otpTTL time.Duration, log logging.Logger) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
		otpTTL:       otpTTL,
		log:          log.With("component", "user_service"),
		now:          time.Now,
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if len(validation.PasswordProblems(in.Password)) > 0 {
		return nil, ErrWeakPassword
	}

	hash, err := s.authService.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	otp, err := utils.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	expires := s.now().Add(s.otpTTL)

	user := &models.User{
		FirstName:               strings.TrimSpace(in.FirstName),
		LastName:                strings.TrimSpace(in.LastName),
		Email:                   email,
		PasswordHash:            hash,
		DateOfBirth:             in.DateOfBirth,
		Phone:                   strings.TrimSpace(in.Phone),
		VerificationToken:       &otp,
		VerificationTokenExpiry: &expires,
	}
	addr := &models.Address{
		Street:  strings.TrimSpace(in.Street),
		Town:    strings.TrimSpace(in.Town),
		State:   strings.TrimSpace(in.State),
		Country: strings.TrimSpace(in.Country),
		ZipCode: strings.TrimSpace(in.ZipCode),
	}

	if err := s.repo.Create(ctx, user, addr); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.emailService.SendVerificationEmail(user.Email, otp); err != nil {
		// the user never saw a code, so drop the account and let them retry
		s.log.Error(ctx, "verification email failed, removing user", "user_id", user.ID, "error", err)
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.log.Error(ctx, "remove user after email failure", "user_id", user.ID, "error", delErr)
		}
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.authService.VerifyPassword(password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.authService.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	addr, err := s.repo.GetAddress(ctx, id)
	switch {
	case err == nil:
		user.Address = addr
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("load address: %w", err)
	}
	return user, nil
}
