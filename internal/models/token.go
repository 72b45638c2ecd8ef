package models

import "time"

// TokenKind selects one of the user's token/expiry column pairs.
type TokenKind int

const (
	TokenVerification TokenKind = iota
	TokenReset
)

func (k TokenKind) String() string {
	switch k {
	case TokenVerification:
		return "verification"
	case TokenReset:
		return "reset"
	}
	return "unknown"
}

// TokenPair is a token together with the instant it stops being valid.
type TokenPair struct {
	Token     string
	ExpiresAt time.Time
}

// UserUpdate lists the columns a single UPDATE should touch. Nil fields are
// left alone. Setting and clearing the same pair at once is rejected by the
// repositories.
type UserUpdate struct {
	PasswordHash *string
	IsVerified   *bool

	Verification      *TokenPair
	ClearVerification bool

	Reset      *TokenPair
	ClearReset bool

	// ExpectResetToken makes the update apply only while the row still holds
	// this reset token, which makes token consumption single-use.
	ExpectResetToken *string
}

// Empty reports whether the update would not change anything.
func (u UserUpdate) Empty() bool {
	return u.PasswordHash == nil && u.IsVerified == nil &&
		u.Verification == nil && !u.ClearVerification &&
		u.Reset == nil && !u.ClearReset
}
