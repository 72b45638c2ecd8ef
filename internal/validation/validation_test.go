package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordProblems(t *testing.T) {
	tests := []struct {
		pw   string
		want int
	}{
		{"abc", 4},            // short, no upper, no digit, no special
		{"alllowercase1!", 1}, // no upper
		{"ALLUPPER1!", 1},     // no lower
		{"NoDigits!!", 1},
		{"NoSpecial11", 1},
		{"Valid1Pass!", 0},
		{"Sh0rt!a", 1},
		{"Pässwörd1", 0}, // non-ASCII letters count as special characters
	}
	for _, tc := range tests {
		t.Run(tc.pw, func(t *testing.T) {
			assert.Len(t, PasswordProblems(tc.pw), tc.want, "%v", PasswordProblems(tc.pw))
		})
	}
	assert.Equal(t, []string{"Password must contain at least one uppercase letter"}, PasswordProblems("alllowercase1!"))
	assert.Equal(t, []string{"Password must contain at least one lowercase letter"}, PasswordProblems("ALLUPPER1!"))
}

func TestPasswordProblems_ByteLimit(t *testing.T) {
	tooLong := []string{"Password must be at most 72 bytes"}

	assert.Empty(t, PasswordProblems("Aa1!"+strings.Repeat("x", 68)))
	assert.Equal(t, tooLong, PasswordProblems("Aa1!"+strings.Repeat("x", 69)))
	assert.Equal(t, tooLong, PasswordProblems(strings.Repeat("Aa1!", 20)))
	// 44 characters but 84 bytes
	assert.Equal(t, tooLong, PasswordProblems("Aa1!"+strings.Repeat("é", 40)))
}

func TestIsOTP(t *testing.T) {
	assert.True(t, IsOTP("123456"))
	assert.True(t, IsOTP("000000"))
	assert.False(t, IsOTP("12345"))
	assert.False(t, IsOTP("1234567"))
	assert.False(t, IsOTP("12a456"))
	assert.False(t, IsOTP("-12345"))
	assert.False(t, IsOTP("１２３４５６"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-05-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("1990-05-17T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("17/05/1990")
	assert.Error(t, err)
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, isPastDate("2000-01-01", now))
	assert.True(t, isPastDate("2025-01-01", now))
	assert.False(t, isPastDate("2030-01-01", now))
	assert.False(t, isPastDate("nope", now))
}

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
	OTP      string `json:"otp" validate:"otp"`
	Name     string `json:"firstName" validate:"min=2"`
}

func TestDescribe_FieldErrors(t *testing.T) {
	v := validator.New()
	Register(v)

	err := v.Struct(sample{Email: "nope", Password: "abc", OTP: "12", Name: "A"})
	require.Error(t, err)

	got := Describe(err)
	fields := map[string][]string{}
	for _, fe := range got {
		fields[fe.Field] = append(fields[fe.Field], fe.Message)
	}
	assert.Equal(t, []string{"Please enter a valid email address"}, fields["email"])
	assert.Len(t, fields["password"], 4)
	assert.Equal(t, []string{"OTP must be 6 digits"}, fields["otp"])
	assert.Equal(t, []string{"First name must be at least 2 characters"}, fields["firstName"])
}

func TestDescribe_Valid(t *testing.T) {
	v := validator.New()
	Register(v)
	assert.NoError(t, v.Struct(sample{Email: "a@b.com", Password: "Valid1Pass!", OTP: "123456", Name: "Al"}))
}

func TestDescribe_NonValidationError(t *testing.T) {
	got := Describe(errors.New("unexpected EOF"))
	require.Len(t, got, 1)
	assert.Equal(t, "body", got[0].Field)
}

func TestSetup_Idempotent(t *testing.T) {
	Setup()
	Setup()
}
