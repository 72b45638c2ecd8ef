package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"authflow/internal/config"
)

const bcryptCost = 10

const (
	PurposeSession = "session"
	PurposeSignup  = "signup"
)

// Claims are carried by both the auth_token and signup_token cookies. Purpose
// keeps one kind from being replayed as the other.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type AuthService interface {
	HashPassword(password string) (string, error)
	// VerifyPassword compares password against hash. An empty hash still
	// costs one bcrypt comparison and always fails.
	VerifyPassword(password, hash string) bool
	IssueSessionToken(userID string) (string, time.Time, error)
	VerifySessionToken(token string) (string, error)
	IssueSignupToken(userID string) (string, time.Time, error)
	VerifySignupToken(token string) (string, error)
}

type authService struct {
	key        []byte
	issuer     string
	sessionTTL time.Duration
	signupTTL  time.Duration
	dummyHash  []byte
	now        func() time.Time
}

func NewAuthService(cfg config.AuthConfig) AuthService {
	// only used to burn time on unknown emails
	dummy, _ := bcrypt.GenerateFromPassword([]byte("authflow-placeholder-password"), bcryptCost)
	return &authService{
		key:        []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		sessionTTL: cfg.SessionTTL,
		signupTTL:  cfg.SignupTTL,
		dummyHash:  dummy,
		now:        time.Now,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *authService) VerifyPassword(password, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) IssueSessionToken(userID string) (string, time.Time, error) {
	return s.issue(userID, PurposeSession, s.sessionTTL)
}

func (s *authService) VerifySessionToken(token string) (string, error) {
	return s.parse(token, PurposeSession)
}

func (s *authService) IssueSignupToken(userID string) (string, time.Time, error) {
	return s.issue(userID, PurposeSignup, s.signupTTL)
}

func (s *authService) VerifySignupToken(token string) (string, error) {
	return s.parse(token, PurposeSignup)
}

func (s *authService) issue(userID, purpose string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("issue token: empty subject")
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *authService) parse(tokenStr, purpose string) (string, error) {
	if tokenStr == "" {
		return "", ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// HMAC only, never "none" or an asymmetric alg with our secret as key
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
