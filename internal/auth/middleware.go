package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/httputil"
	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "current_user"

// Middleware is the authorization gate for protected routes. It resolves
// the caller's identity from the bearer token and loads the user fresh
// from the store on every request, so role changes and deletions take
// effect on the very next call.
type Middleware struct {
	tokenService TokenService
	store        UserStore
}

func NewMiddleware(tokenService TokenService, store UserStore) *Middleware {
	return &Middleware{tokenService: tokenService, store: store}
}

// RequireAuth validates the session token and attaches the loaded user to
// the request context. Missing, malformed, expired, and orphaned tokens
// all produce the same 401 surface.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(parts[1])
		if err != nil {
			// Expired vs invalid is logged but not surfaced
			if errors.Is(err, ErrExpiredToken) {
				logger.Warn("session token expired")
			} else {
				logger.Warn("session token invalid")
			}
			httputil.RespondErrorWithCode(w, "invalid or expired session", httputil.CodeInvalidSession, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid or expired session", httputil.CodeInvalidSession, http.StatusUnauthorized)
			return
		}

		// Fresh load: the token only asserts identity, never role or
		// verification state
		currentUser, err := m.store.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				logger.Warn("session token refers to unknown user", "user_id", userID)
				httputil.RespondErrorWithCode(w, "invalid or expired session", httputil.CodeInvalidSession, http.StatusUnauthorized)
				return
			}
			logger.Error("failed to load user for session", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, currentUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole enforces role-based access. Must be mounted after
// RequireAuth.
func (m *Middleware) RequireRole(role user.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			currentUser, ok := GetUserFromContext(r.Context())
			if !ok {
				httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			if currentUser.Role != role {
				httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok
}
