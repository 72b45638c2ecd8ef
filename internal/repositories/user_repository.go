package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"authflow/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidUpdate  = errors.New("invalid user update")
)

// UserRepository is the credential store. Lookups return ErrNotFound when no
// row matches; Create returns ErrDuplicateEmail when the email is taken.
type UserRepository interface {
	Create(ctx context.Context, user *models.User, addr *models.Address) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByToken returns the user holding token of the given kind, provided it
	// has not expired at now.
	GetByToken(ctx context.Context, kind models.TokenKind, token string, now time.Time) (*models.User, error)
	GetAddress(ctx context.Context, userID string) (*models.Address, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	DB  *sql.DB
	now func() time.Time
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db, now: time.Now}
}

const userColumns = `
	id, first_name, last_name, email, password_hash, date_of_birth, phone, is_verified,
	verification_token, verification_token_expiry, reset_token, reset_token_expiry,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		vt  sql.NullString
		vte sql.NullTime
		rt  sql.NullString
		rte sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.DateOfBirth, &u.Phone, &u.IsVerified,
		&vt, &vte, &rt, &rte,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if vt.Valid && vte.Valid {
		s, t := vt.String, vte.Time
		u.VerificationToken, u.VerificationTokenExpiry = &s, &t
	}
	if rt.Valid && rte.Valid {
		s, t := rt.String, rte.Time
		u.ResetToken, u.ResetTokenExpiry = &s, &t
	}
	return u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create inserts the user and its address in one transaction. Missing IDs
// are generated here.
func (r *userRepository) Create(ctx context.Context, user *models.User, addr *models.Address) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	err := withTx(ctx, r.DB, func(ctx context.Context, tx dbtx) error {
		const qUser = `
			INSERT INTO users (
				id, first_name, last_name, email, password_hash, date_of_birth, phone, is_verified,
				verification_token, verification_token_expiry, reset_token, reset_token_expiry,
				created_at, updated_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`
		if _, err := tx.ExecContext(ctx, qUser,
			user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.DateOfBirth, user.Phone, user.IsVerified,
			nullString(user.VerificationToken), nullTime(user.VerificationTokenExpiry),
			nullString(user.ResetToken), nullTime(user.ResetTokenExpiry),
			user.CreatedAt, user.UpdatedAt,
		); err != nil {
			return err
		}

		if addr == nil {
			return nil
		}
		if addr.ID == "" {
			addr.ID = uuid.NewString()
		}
		addr.UserID = user.ID
		addr.CreatedAt, addr.UpdatedAt = now, now

		const qAddr = `
			INSERT INTO addresses (id, user_id, street, town, state, country, zip_code, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`
		_, err := tx.ExecContext(ctx, qAddr,
			addr.ID, addr.UserID, addr.Street, addr.Town, addr.State, addr.Country, addr.ZipCode,
			addr.CreatedAt, addr.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("user create: %w", err)
	}
	user.Address = addr
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	q := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return u, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, strings.TrimSpace(email)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user get by email: %w", err)
	}
	return u, err
}

func (r *userRepository) GetByToken(ctx context.Context, kind models.TokenKind, token string, now time.Time) (*models.User, error) {
	var where string
	switch kind {
	case models.TokenVerification:
		where = `verification_token = $1 AND verification_token_expiry > $2`
	case models.TokenReset:
		where = `reset_token = $1 AND reset_token_expiry > $2`
	default:
		return nil, fmt.Errorf("user get by token: unknown kind %d", kind)
	}
	if token == "" {
		return nil, ErrNotFound
	}
	// verification codes are short and not unique, so pick deterministically
	q := `SELECT` + userColumns + ` FROM users WHERE ` + where + ` ORDER BY created_at LIMIT 1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, token, now))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user get by %s token: %w", kind, err)
	}
	return u, err
}

func (r *userRepository) GetAddress(ctx context.Context, userID string) (*models.Address, error) {
	const q = `
		SELECT id, user_id, street, town, state, country, zip_code, created_at, updated_at
		FROM addresses
		WHERE user_id = $1
	`
	a := &models.Address{}
	err := r.DB.QueryRowContext(ctx, q, userID).Scan(
		&a.ID, &a.UserID, &a.Street, &a.Town, &a.State, &a.Country, &a.ZipCode, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("address get: %w", err)
	}
	return a, nil
}

// Update writes the requested columns in a single statement. It returns
// ErrNotFound when no row matched, including when ExpectResetToken no
// longer matches.
func (r *userRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	if err := validateUpdate(upd); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if upd.IsVerified != nil {
		add("is_verified", *upd.IsVerified)
	}
	switch {
	case upd.Verification != nil:
		add("verification_token", upd.Verification.Token)
		add("verification_token_expiry", upd.Verification.ExpiresAt)
	case upd.ClearVerification:
		sets = append(sets, "verification_token = NULL", "verification_token_expiry = NULL")
	}
	switch {
	case upd.Reset != nil:
		add("reset_token", upd.Reset.Token)
		add("reset_token_expiry", upd.Reset.ExpiresAt)
	case upd.ClearReset:
		sets = append(sets, "reset_token = NULL", "reset_token_expiry = NULL")
	}
	add("updated_at", r.now().UTC())

	args = append(args, id)
	q := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if upd.ExpectResetToken != nil {
		args = append(args, *upd.ExpectResetToken)
		q += fmt.Sprintf(" AND reset_token = $%d", len(args))
	}

	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user; the address goes with it via ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func validateUpdate(upd models.UserUpdate) error {
	if upd.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidUpdate)
	}
	if upd.Verification != nil && upd.ClearVerification {
		return fmt.Errorf("%w: verification token both set and cleared", ErrInvalidUpdate)
	}
	if upd.Reset != nil && upd.ClearReset {
		return fmt.Errorf("%w: reset token both set and cleared", ErrInvalidUpdate)
	}
	return nil
}
