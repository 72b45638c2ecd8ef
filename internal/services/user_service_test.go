package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authflow/internal/logging"
	"authflow/internal/models"
	"authflow/internal/repositories"
)

type testEnv struct {
	repo   *repositories.MemoryUserRepository
	mail   *fakeMailer
	auth   AuthService
	users  *userService
	verify *verificationService
	reset  *passwordResetService
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testAuthConfig()
	env := &testEnv{
		repo: repositories.NewMemoryUserRepository(),
		mail: &fakeMailer{},
		auth: NewAuthService(cfg),
		now:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	env.users = NewUserService(env.repo, env.mail, env.auth, cfg.OTPTTL, logging.Nop()).(*userService)
	env.users.now = clock
	env.verify = NewVerificationService(env.repo, env.mail, cfg.OTPTTL, logging.Nop()).(*verificationService)
	env.verify.now = clock
	env.reset = NewPasswordResetService(env.repo, env.mail, env.auth, cfg.ResetTTL, logging.Nop()).(*passwordResetService)
	env.reset.now = clock
	return env
}

func validSignup(email string) SignupInput {
	return SignupInput{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       email,
		Password:    "Valid1Pass!",
		DateOfBirth: time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Phone:       "+44 20 7946 0000",
		Street:      "12 St James's Square",
		Town:        "London",
		Country:     "GB",
		State:       "ENG",
		ZipCode:     "SW1Y 4JH",
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), validSignup(email))
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesUnverifiedUserAndSendsCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, validSignup("  Ada@Example.COM "))
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.IsVerified)

	stored, err := env.repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Valid1Pass!", stored.PasswordHash)
	assert.True(t, env.auth.VerifyPassword("Valid1Pass!", stored.PasswordHash))
	require.NotNil(t, stored.VerificationToken)
	assert.Equal(t, env.now.Add(10*time.Minute), *stored.VerificationTokenExpiry)

	mail, ok := env.mail.last("verification")
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", mail.To)
	assert.Equal(t, *stored.VerificationToken, mail.Value)
	assert.Len(t, mail.Value, 6)

	addr, err := env.repo.GetAddress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "London", addr.Town)
	assert.Equal(t, "ENG", addr.State)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ada@example.com")

	_, err := env.users.Register(context.Background(), validSignup("ADA@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, 1, env.mail.count("verification"))
}

func TestRegister_WeakPassword(t *testing.T) {
	env := newTestEnv(t)
	in := validSignup("ada@example.com")
	in.Password = "alllowercase1!"

	_, err := env.users.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = env.repo.GetByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestRegister_EmailFailureRemovesUser(t *testing.T) {
	env := newTestEnv(t)
	env.mail.fail = true

	_, err := env.users.Register(context.Background(), validSignup("ada@example.com"))
	require.ErrorIs(t, err, errMailDown)

	_, err = env.repo.GetByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	env.mail.fail = false
	env.register(t, "ada@example.com")
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "ada@example.com")

	_, err := env.users.Authenticate(ctx, "ada@example.com", "Valid1Pass!")
	assert.ErrorIs(t, err, ErrNotVerified)

	_, err = env.users.Authenticate(ctx, "ada@example.com", "Wrong1Pass!")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "wrong password is reported before verification state")

	_, err = env.users.Authenticate(ctx, "nobody@example.com", "Valid1Pass!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	verified := true
	require.NoError(t, env.repo.Update(ctx, u.ID, models.UserUpdate{IsVerified: &verified, ClearVerification: true}))

	got, err := env.users.Authenticate(ctx, " ADA@example.com", "Valid1Pass!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestGetUserByID(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "ada@example.com")

	got, err := env.users.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	require.NotNil(t, got.Address)
	assert.Equal(t, "SW1Y 4JH", got.Address.ZipCode)

	_, err = env.users.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.com\t"))
}
