package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/user"
)

// TokenService defines the interface for session token creation and
// validation. Implementations include JWTService (HS256) and
// PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the persistence surface the auth core needs. Satisfied by
// *user.Repository; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ConsumeVerificationToken(ctx context.Context, token string) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) error
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	SetVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}
