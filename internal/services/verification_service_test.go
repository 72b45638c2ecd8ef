package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "ada@example.com")
	code, _ := env.mail.last("verification")

	wrong := "000000"
	if code.Value == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, env.verify.Verify(ctx, u.ID, wrong), ErrInvalidOTP)

	require.NoError(t, env.verify.Verify(ctx, u.ID, code.Value))

	stored, err := env.repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationToken)
	assert.Nil(t, stored.VerificationTokenExpiry)

	// the code is single-use
	assert.ErrorIs(t, env.verify.Verify(ctx, u.ID, code.Value), ErrInvalidOTP)
}

func TestVerify_Expired(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "ada@example.com")
	code, _ := env.mail.last("verification")

	env.now = env.now.Add(10 * time.Minute)
	assert.ErrorIs(t, env.verify.Verify(context.Background(), u.ID, code.Value), ErrInvalidOTP)
}

func TestVerify_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.verify.Verify(context.Background(), "missing", "123456"), ErrUserNotFound)
	assert.ErrorIs(t, env.verify.Resend(context.Background(), "missing"), ErrUserNotFound)
}

func TestResend_ReplacesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "ada@example.com")
	first, _ := env.mail.last("verification")

	env.now = env.now.Add(5 * time.Minute)
	require.NoError(t, env.verify.Resend(ctx, u.ID))
	second, _ := env.mail.last("verification")
	assert.Equal(t, 2, env.mail.count("verification"))

	stored, err := env.repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Value, *stored.VerificationToken)
	assert.Equal(t, env.now.Add(10*time.Minute), *stored.VerificationTokenExpiry)

	if first.Value != second.Value {
		assert.ErrorIs(t, env.verify.Verify(ctx, u.ID, first.Value), ErrInvalidOTP)
	}
	require.NoError(t, env.verify.Verify(ctx, u.ID, second.Value))
}

func TestResend_AlreadyVerified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "ada@example.com")
	code, _ := env.mail.last("verification")
	require.NoError(t, env.verify.Verify(ctx, u.ID, code.Value))

	assert.ErrorIs(t, env.verify.Resend(ctx, u.ID), ErrAlreadyVerified)
	assert.Equal(t, 1, env.mail.count("verification"))
}

func TestResend_EmailFailure(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "ada@example.com")
	env.mail.fail = true

	assert.ErrorIs(t, env.verify.Resend(context.Background(), u.ID), errMailDown)
}
