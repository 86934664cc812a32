package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/scholarport/scholarship-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// CreateParams carries everything needed to persist a new identity.
type CreateParams struct {
	Name                       string
	Email                      string
	PasswordHash               string
	Role                       Role
	VerificationToken          string
	VerificationTokenExpiresAt time.Time
}

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, params CreateParams) (*User, error) {
	dbUser := &database.User{
		Name:                       params.Name,
		Email:                      params.Email,
		PasswordHash:               params.PasswordHash,
		Role:                       params.Role.String(),
		EmailVerified:              false,
		VerificationToken:          &params.VerificationToken,
		VerificationTokenExpiresAt: &params.VerificationTokenExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// GetByEmail retrieves a user by normalized email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", NormalizeEmail(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// ConsumeVerificationToken flips email_verified and clears the token pair
// in one conditional update. The WHERE clause re-checks the token value and
// expiry, so of two concurrent consumers exactly one sees an affected row.
func (r *Repository) ConsumeVerificationToken(ctx context.Context, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("email_verified = ?", true).
		Set("verification_token = NULL").
		Set("verification_token_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("verification_token = ?", token).
		Where("verification_token_expires_at > NOW()").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}

	return requireAffectedRow(result)
}

// ConsumeResetToken sets the new password hash and clears the reset token
// pair in one conditional update, with the same single-winner guarantee as
// ConsumeVerificationToken.
func (r *Repository) ConsumeResetToken(ctx context.Context, token, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_token = NULL").
		Set("reset_token_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("reset_token = ?", token).
		Where("reset_token_expires_at > NOW()").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	return requireAffectedRow(result)
}

// SetResetToken overwrites the reset token pair. Any previously issued
// reset token stops validating immediately.
func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_token = ?", token).
		Set("reset_token_expires_at = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return requireAffectedRow(result)
}

// SetVerificationToken overwrites the verification token pair for a user
// that is still unverified (used by resend-verification).
func (r *Repository) SetVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_token = ?", token).
		Set("verification_token_expires_at = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("email_verified = ?", false).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	return requireAffectedRow(result)
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireAffectedRow(result)
}

// UpdateProfile updates name and/or email. Empty values leave the field
// unchanged.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", userID)

	if name != "" {
		q = q.Set("name = ?", name)
	}
	if email != "" {
		q = q.Set("email = ?", NormalizeEmail(email))
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return requireAffectedRow(result)
}

// List returns a page of users, optionally filtered by role, newest first.
func (r *Repository) List(ctx context.Context, page, perPage int, role *Role) ([]*User, int, error) {
	var dbUsers []*database.User

	q := r.db.NewSelect().Model(&dbUsers)
	if role != nil {
		q = q.Where("role = ?", role.String())
	}

	total, err := q.Order("created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(dbUsers))
	for _, dbu := range dbUsers {
		u, err := mapDBUserToModel(dbu)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}

	return users, total, nil
}

// Count returns the total number of users.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func requireAffectedRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) (*User, error) {
	role, err := ParseRole(dbu.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", dbu.ID, err)
	}

	return &User{
		ID:                         dbu.ID,
		Name:                       dbu.Name,
		Email:                      dbu.Email,
		PasswordHash:               dbu.PasswordHash,
		Role:                       role,
		EmailVerified:              dbu.EmailVerified,
		VerificationToken:          dbu.VerificationToken,
		VerificationTokenExpiresAt: dbu.VerificationTokenExpiresAt,
		ResetToken:                 dbu.ResetToken,
		ResetTokenExpiresAt:        dbu.ResetTokenExpiresAt,
		CreatedAt:                  dbu.CreatedAt,
		UpdatedAt:                  dbu.UpdatedAt,
	}, nil
}
