package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"authflow/internal/models"
)

// MemoryUserRepository keeps users in process memory. It backs local runs
// without a database and the service tests; it follows the same contract as
// the PostgreSQL repository.
type MemoryUserRepository struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	addresses map[string]*models.Address
	now       func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:     make(map[string]*models.User),
		addresses: make(map[string]*models.Address),
		now:       time.Now,
	}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	if u.VerificationToken != nil {
		s, t := *u.VerificationToken, *u.VerificationTokenExpiry
		cp.VerificationToken, cp.VerificationTokenExpiry = &s, &t
	}
	if u.ResetToken != nil {
		s, t := *u.ResetToken, *u.ResetTokenExpiry
		cp.ResetToken, cp.ResetTokenExpiry = &s, &t
	}
	cp.Address = nil
	return &cp
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User, addr *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = cloneUser(user)

	if addr != nil {
		if addr.ID == "" {
			addr.ID = uuid.NewString()
		}
		addr.UserID = user.ID
		addr.CreatedAt, addr.UpdatedAt = now, now
		a := *addr
		r.addresses[user.ID] = &a
	}
	user.Address = addr
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetByToken(_ context.Context, kind models.TokenKind, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.User
	for _, u := range r.users {
		var ok bool
		switch kind {
		case models.TokenVerification:
			ok = u.VerificationCodeMatches(token, now)
		case models.TokenReset:
			ok = u.ResetTokenActive(now) && *u.ResetToken == token
		}
		if ok && (found == nil || u.CreatedAt.Before(found.CreatedAt)) {
			found = u
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneUser(found), nil
}

func (r *MemoryUserRepository) GetAddress(_ context.Context, userID string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.addresses[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id string, upd models.UserUpdate) error {
	if err := validateUpdate(upd); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if upd.ExpectResetToken != nil && (u.ResetToken == nil || *u.ResetToken != *upd.ExpectResetToken) {
		return ErrNotFound
	}

	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.IsVerified != nil {
		u.IsVerified = *upd.IsVerified
	}
	switch {
	case upd.Verification != nil:
		s, t := upd.Verification.Token, upd.Verification.ExpiresAt
		u.VerificationToken, u.VerificationTokenExpiry = &s, &t
	case upd.ClearVerification:
		u.VerificationToken, u.VerificationTokenExpiry = nil, nil
	}
	switch {
	case upd.Reset != nil:
		s, t := upd.Reset.Token, upd.Reset.ExpiresAt
		u.ResetToken, u.ResetTokenExpiry = &s, &t
	case upd.ClearReset:
		u.ResetToken, u.ResetTokenExpiry = nil, nil
	}
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.addresses, id)
	return nil
}
