package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/user"
)

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrNameRequired          = errors.New("name is required")
	ErrEmailRequired         = errors.New("email is required")
	ErrPasswordRequired      = errors.New("password is required")
	ErrPasswordTooShort      = errors.New("password must be at least 6 characters")
	ErrEmailNotVerified      = errors.New("email not verified, please check your inbox")
	ErrInvalidEmailFormat    = errors.New("invalid email format")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrWrongCurrentPassword  = errors.New("current password is incorrect")
)

// Service handles authentication business logic
type Service struct {
	store                UserStore
	tokenService         TokenService
	emailService         EmailService
	logger               *logging.Logger
	sessionDuration      time.Duration
	resetDuration        time.Duration
	verificationDuration time.Duration
}

func NewService(
	store UserStore,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	sessionDuration time.Duration,
	resetDuration time.Duration,
	verificationDuration time.Duration,
) *Service {
	return &Service{
		store:                store,
		tokenService:         tokenService,
		emailService:         emailService,
		logger:               logger,
		sessionDuration:      sessionDuration,
		resetDuration:        resetDuration,
		verificationDuration: verificationDuration,
	}
}

// RegistrationResult reports what Register did. EmailDelivered is false
// when the verification email could not be sent; registration still
// succeeds in that case and the handler decides whether to surface the
// token as a delivery fallback (non-production only).
type RegistrationResult struct {
	User              *user.User
	VerificationToken string
	EmailDelivered    bool
}

// Register creates a new student account and sends a verification email.
// Email delivery failure is non-fatal: the account exists either way.
func (s *Service) Register(ctx context.Context, name, email, password string) (*RegistrationResult, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateActionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	newUser, err := s.store.Create(ctx, user.CreateParams{
		Name:                       name,
		Email:                      user.NormalizeEmail(email),
		PasswordHash:               passwordHash,
		Role:                       user.RoleStudent,
		VerificationToken:          verificationToken,
		VerificationTokenExpiresAt: time.Now().Add(s.verificationDuration),
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Delivery is attempted synchronously so the caller can be told when
	// it failed. The account exists regardless.
	delivered := true
	if err := s.emailService.SendVerificationEmail(ctx, newUser.Email, verificationToken); err != nil {
		s.logger.Warn("failed to send verification email", "email", newUser.Email, "error", err)
		delivered = false
	}

	return &RegistrationResult{
		User:              newUser,
		VerificationToken: verificationToken,
		EmailDelivered:    delivered,
	}, nil
}

// Login authenticates a user and returns a session token. The credential
// check runs first, then the verification gate: an unverified account
// with a correct password is refused with ErrEmailNotVerified.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	existingUser, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Same error as a wrong password so responses don't reveal
			// whether the email is registered
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existingUser.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	if !existingUser.EmailVerified {
		return "", ErrEmailNotVerified
	}

	token, err := s.tokenService.CreateToken(existingUser.ID, s.sessionDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	return token, nil
}

// VerifyEmail consumes a verification token. Validation and consumption
// happen in one conditional update in the store, so a token authorizes at
// most one verification even under concurrent requests.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	err := s.store.ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Unknown, expired, or already consumed - indistinguishable
			// to the caller
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to consume verification token: %w", err)
	}

	return nil
}

// RequestPasswordReset initiates the password reset process
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	token, err := generateActionToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}

	// Overwrites any earlier reset token; only the newest one validates
	expiresAt := time.Now().Add(s.resetDuration)
	if err := s.store.SetResetToken(ctx, existingUser.ID, token, expiresAt); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	// Send in a goroutine; the response must not depend on delivery
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetEmail(emailCtx, existingUser.Email, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// ResetPassword sets a new password for the account holding the presented
// reset token. The token is the lookup key; consuming it clears it.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.store.ConsumeResetToken(ctx, token, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	return nil
}

// ResendVerificationEmail sends a new verification email to the user
// Always returns nil to prevent email enumeration attacks
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	existingUser, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for resend verification", "error", err)
		return nil
	}

	if existingUser.EmailVerified {
		// Don't reveal that the email is already verified
		return nil
	}

	token, err := generateActionToken()
	if err != nil {
		s.logger.Warn("failed to generate verification token", "error", err)
		return nil
	}

	expiresAt := time.Now().Add(s.verificationDuration)
	if err := s.store.SetVerificationToken(ctx, existingUser.ID, token, expiresAt); err != nil {
		s.logger.Warn("failed to update verification token", "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, existingUser.Email, token); err != nil {
			s.logger.Warn("failed to resend verification email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// ChangePassword changes the password of an authenticated user after
// re-checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	existingUser, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existingUser.PasswordHash, currentPassword) {
		return ErrWrongCurrentPassword
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
