package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/user"
)

// fakeUserStore is an in-memory UserStore. The consume methods reproduce the
// conditional-update semantics of the real repository: match token and
// expiry, mutate, and report ErrNotFound when nothing matched, all under one
// lock so concurrent consumers see exactly one winner.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserStore) Create(_ context.Context, params user.CreateParams) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == params.Email {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now()
	u := &user.User{
		ID:                         uuid.New(),
		Name:                       params.Name,
		Email:                      params.Email,
		PasswordHash:               params.PasswordHash,
		Role:                       params.Role,
		VerificationToken:          &params.VerificationToken,
		VerificationTokenExpiresAt: &params.VerificationTokenExpiresAt,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	f.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	normalized := user.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == normalized {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) ConsumeVerificationToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.VerificationToken != nil && *u.VerificationToken == token &&
			u.VerificationTokenExpiresAt != nil && u.VerificationTokenExpiresAt.After(time.Now()) {
			u.EmailVerified = true
			u.VerificationToken = nil
			u.VerificationTokenExpiresAt = nil
			return nil
		}
	}
	return user.ErrNotFound
}

func (f *fakeUserStore) ConsumeResetToken(_ context.Context, token, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(time.Now()) {
			u.PasswordHash = passwordHash
			u.ResetToken = nil
			u.ResetTokenExpiresAt = nil
			return nil
		}
	}
	return user.ErrNotFound
}

func (f *fakeUserStore) SetResetToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserStore) SetVerificationToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok || u.EmailVerified {
		return user.ErrNotFound
	}
	u.VerificationToken = &token
	u.VerificationTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// expireVerificationToken backdates the stored expiry for expiry-path tests.
func (f *fakeUserStore) expireVerificationToken(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	f.users[userID].VerificationTokenExpiresAt = &past
}

func (f *fakeUserStore) expireResetToken(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	f.users[userID].ResetTokenExpiresAt = &past
}

func (f *fakeUserStore) resetToken(userID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tok := f.users[userID].ResetToken; tok != nil {
		return *tok
	}
	return ""
}

type sentEmail struct {
	To    string
	Token string
	Kind  string
}

// fakeEmailService records sends and can be told to fail.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (f *fakeEmailService) SendVerificationEmail(_ context.Context, toEmail, token string) error {
	return f.record(toEmail, token, "verification")
}

func (f *fakeEmailService) SendPasswordResetEmail(_ context.Context, toEmail, token string) error {
	return f.record(toEmail, token, "reset")
}

func (f *fakeEmailService) record(toEmail, token, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentEmail{To: toEmail, Token: token, Kind: kind})
	return nil
}

func (f *fakeEmailService) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeEmailService) lastSent() sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeEmailService) {
	t.Helper()

	store := newFakeUserStore()
	emails := &fakeEmailService{}
	tokenService, err := NewJWTService(testSigningKey)
	require.NoError(t, err)

	svc := NewService(store, tokenService, emails, logging.NewLogger(true),
		time.Hour, time.Hour, 24*time.Hour)
	return svc, store, emails
}

func mustRegister(t *testing.T, svc *Service, email string) *RegistrationResult {
	t.Helper()
	result, err := svc.Register(context.Background(), "Ada Lovelace", email, "password123")
	require.NoError(t, err)
	return result
}

func mustRegisterVerified(t *testing.T, svc *Service, email string) *RegistrationResult {
	t.Helper()
	result := mustRegister(t, svc, email)
	require.NoError(t, svc.VerifyEmail(context.Background(), result.VerificationToken))
	return result
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"missing name", "", "ada@example.com", "password123", ErrNameRequired},
		{"missing email", "Ada", "", "password123", ErrEmailRequired},
		{"bad email", "Ada", "not-an-email", "password123", ErrInvalidEmailFormat},
		{"missing password", "Ada", "ada@example.com", "", ErrPasswordRequired},
		{"short password", "Ada", "ada@example.com", "12345", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_CreatesStudentWithVerificationToken(t *testing.T) {
	t.Parallel()

	svc, store, emails := newTestService(t)

	result, err := svc.Register(context.Background(), "Ada Lovelace", "  Ada@Example.COM ", "password123")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, user.RoleStudent, result.User.Role)
	assert.False(t, result.User.EmailVerified)
	assert.True(t, result.EmailDelivered)
	assert.NotEmpty(t, result.VerificationToken)

	stored, err := store.GetByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationToken)
	assert.Equal(t, result.VerificationToken, *stored.VerificationToken)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *stored.VerificationTokenExpiresAt, 5*time.Second)
	// Password never stored raw
	assert.NotContains(t, stored.PasswordHash, "password123")

	require.Equal(t, 1, emails.sentCount())
	assert.Equal(t, sentEmail{To: "ada@example.com", Token: result.VerificationToken, Kind: "verification"}, emails.lastSent())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	mustRegister(t, svc, "ada@example.com")

	_, err := svc.Register(context.Background(), "Imposter", "ADA@example.com", "password123")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestRegister_EmailDeliveryFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	svc, store, emails := newTestService(t)
	emails.fail = true

	result, err := svc.Register(context.Background(), "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	assert.False(t, result.EmailDelivered)
	assert.NotEmpty(t, result.VerificationToken)

	// Account exists and can still be verified via the returned token
	_, err = store.GetByEmail(context.Background(), "ada@example.com")
	assert.NoError(t, err)
	assert.NoError(t, svc.VerifyEmail(context.Background(), result.VerificationToken))
}

func TestLogin_UnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()

	_, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
	_, errWrongPw := svc.Login(ctx, "ada@example.com", "wrong-password")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLogin_UnverifiedAccountRefused(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	mustRegister(t, svc, "ada@example.com")

	// Correct password, unverified email
	_, err := svc.Login(context.Background(), "ada@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogin_VerifiedAccountGetsValidSessionToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")

	token, err := svc.Login(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.tokenService.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyEmail_TokenIsSingleUse(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegister(t, svc, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, svc.VerifyEmail(ctx, result.VerificationToken))

	stored, err := store.GetByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.Nil(t, stored.VerificationToken)

	// Second presentation of the same token fails
	err = svc.VerifyEmail(ctx, result.VerificationToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerifyEmail_ExpiredAndUnknownTokens(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegister(t, svc, "ada@example.com")
	ctx := context.Background()

	assert.ErrorIs(t, svc.VerifyEmail(ctx, ""), ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, "no-such-token"), ErrInvalidOrExpiredToken)

	store.expireVerificationToken(result.User.ID)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, result.VerificationToken), ErrInvalidOrExpiredToken)

	stored, err := store.GetByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
}

func TestRequestPasswordReset_NoAccountOracle(t *testing.T) {
	t.Parallel()

	svc, _, emails := newTestService(t)
	mustRegisterVerified(t, svc, "ada@example.com")
	before := emails.sentCount()

	// Unknown email: same nil result, nothing sent
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Equal(t, before, emails.sentCount())
}

func TestRequestPasswordReset_StoresTokenAndSendsEmail(t *testing.T) {
	t.Parallel()

	svc, store, emails := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	before := emails.sentCount()

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ada@example.com"))

	token := store.resetToken(result.User.ID)
	require.NotEmpty(t, token)

	// Delivery happens off the request path
	require.Eventually(t, func() bool {
		return emails.sentCount() == before+1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, sentEmail{To: "ada@example.com", Token: token, Kind: "reset"}, emails.lastSent())
}

func TestRequestPasswordReset_NewRequestInvalidatesOldToken(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	oldToken := store.resetToken(result.User.ID)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	newToken := store.resetToken(result.User.ID)
	require.NotEqual(t, oldToken, newToken)

	assert.ErrorIs(t, svc.ResetPassword(ctx, oldToken, "new-password"), ErrInvalidOrExpiredToken)
	assert.NoError(t, svc.ResetPassword(ctx, newToken, "new-password"))
}

func TestResetPassword_ChangesCredentialAndConsumesToken(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	token := store.resetToken(result.User.ID)

	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-password"))

	// Old password refused, new one accepted
	_, err := svc.Login(ctx, "ada@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ada@example.com", "brand-new-password")
	assert.NoError(t, err)

	// Token was consumed
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "another-password"), ErrInvalidOrExpiredToken)
}

func TestResetPassword_WeakPasswordLeavesTokenIntact(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	token := store.resetToken(result.User.ID)

	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "short"), ErrPasswordTooShort)

	// Validation failure must not burn the token
	assert.NoError(t, svc.ResetPassword(ctx, token, "long-enough"))
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	token := store.resetToken(result.User.ID)
	store.expireResetToken(result.User.ID)

	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "new-password"), ErrInvalidOrExpiredToken)
}

func TestResetPassword_ConcurrentConsumersSingleWinner(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	token := store.resetToken(result.User.ID)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.ResetPassword(ctx, token, "concurrent-password")
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one consumer may win")
}

func TestResendVerificationEmail_NoAccountOracle(t *testing.T) {
	t.Parallel()

	svc, _, emails := newTestService(t)
	mustRegisterVerified(t, svc, "ada@example.com")
	before := emails.sentCount()
	ctx := context.Background()

	// Unknown address and already-verified address both no-op with nil
	require.NoError(t, svc.ResendVerificationEmail(ctx, "nobody@example.com"))
	require.NoError(t, svc.ResendVerificationEmail(ctx, "ada@example.com"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, emails.sentCount())
}

func TestResendVerificationEmail_RotatesToken(t *testing.T) {
	t.Parallel()

	svc, _, emails := newTestService(t)
	result := mustRegister(t, svc, "ada@example.com")
	before := emails.sentCount()
	ctx := context.Background()

	require.NoError(t, svc.ResendVerificationEmail(ctx, "ada@example.com"))

	require.Eventually(t, func() bool {
		return emails.sentCount() == before+1
	}, 2*time.Second, 10*time.Millisecond)

	newToken := emails.lastSent().Token
	require.NotEqual(t, result.VerificationToken, newToken)

	// Old token is dead, rotated one verifies
	assert.ErrorIs(t, svc.VerifyEmail(ctx, result.VerificationToken), ErrInvalidOrExpiredToken)
	assert.NoError(t, svc.VerifyEmail(ctx, newToken))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	result := mustRegisterVerified(t, svc, "ada@example.com")
	ctx := context.Background()
	userID := result.User.ID

	assert.ErrorIs(t, svc.ChangePassword(ctx, userID, "wrong-current", "new-password"), ErrWrongCurrentPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, userID, "password123", "short"), ErrPasswordTooShort)

	require.NoError(t, svc.ChangePassword(ctx, userID, "password123", "new-password"))

	_, err := svc.Login(ctx, "ada@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ada@example.com", "new-password")
	assert.NoError(t, err)
}
