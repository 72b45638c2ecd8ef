package models

import (
	"crypto/subtle"
	"time"
)

type User struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Phone       string    `json:"phone"`
	IsVerified  bool      `json:"isVerified"`

	PasswordHash string `json:"-"` // never leaves the server

	// token/expiry pairs are always both nil or both set
	VerificationToken       *string    `json:"-"`
	VerificationTokenExpiry *time.Time `json:"-"`
	ResetToken              *string    `json:"-"`
	ResetTokenExpiry        *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Address *Address `json:"address,omitempty"`
}

// VerificationCodeMatches reports whether code equals the stored OTP and the
// OTP is still live at now. An expired code counts as absent.
func (u *User) VerificationCodeMatches(code string, now time.Time) bool {
	if u.VerificationToken == nil || u.VerificationTokenExpiry == nil {
		return false
	}
	if !now.Before(*u.VerificationTokenExpiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.VerificationToken), []byte(code)) == 1
}

// ResetTokenActive reports whether a reset token is held and not yet expired.
func (u *User) ResetTokenActive(now time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil && now.Before(*u.ResetTokenExpiry)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
