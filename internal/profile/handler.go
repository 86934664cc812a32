package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/scholarport/scholarship-api/internal/auth"
	"github.com/scholarport/scholarship-api/internal/cache"
	"github.com/scholarport/scholarship-api/internal/httputil"
	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/user"
)

const profileCacheTTL = 2 * time.Minute

// Handler contains HTTP handlers for the authenticated user's profile
type Handler struct {
	userRepo    *user.Repository
	authService *auth.Service
	cache       *cache.Cache
}

func NewHandler(userRepo *user.Repository, authService *auth.Service, c *cache.Cache) *Handler {
	return &Handler{userRepo: userRepo, authService: authService, cache: c}
}

// ProfileResponse is the public view of the caller's own account
type ProfileResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// UpdateRequest represents the profile update body
type UpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChangePasswordRequest represents the change-password body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Get handles GET /api/profile
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	cacheKey := profileCacheKey(currentUser.ID.String())
	var cached ProfileResponse
	if err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil {
		httputil.RespondJSON(w, &cached, http.StatusOK)
		return
	}

	resp := toProfileResponse(currentUser)

	logger := logging.GetLoggerFromContext(r.Context())
	if err := h.cache.Set(r.Context(), cacheKey, resp, profileCacheTTL); err != nil {
		logger.Warn("failed to cache profile", "error", err.Error())
	}

	httputil.RespondJSON(w, resp, http.StatusOK)
}

// Update handles PUT /api/profile
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Name == "" && req.Email == "" {
		httputil.RespondErrorWithCode(w, "nothing to update", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			httputil.RespondErrorWithCode(w, "invalid email format", httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
			return
		}
	}

	err := h.userRepo.UpdateProfile(r.Context(), currentUser.ID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("profile update failed: email already in use")
			httputil.RespondErrorWithCode(w, "email already in use", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		logger.Error("failed to update profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.cache.Delete(r.Context(), profileCacheKey(currentUser.ID.String())); err != nil {
		logger.Warn("failed to invalidate profile cache", "error", err.Error())
	}

	updated, err := h.userRepo.GetByID(r.Context(), currentUser.ID)
	if err != nil {
		logger.Error("failed to reload profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated")

	httputil.RespondJSON(w, map[string]any{
		"message": "Profile updated successfully",
		"user":    toProfileResponse(updated),
	}, http.StatusOK)
}

// ChangePassword handles POST /api/profile/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.authService.ChangePassword(r.Context(), currentUser.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongCurrentPassword):
			logger.Warn("change password failed: wrong current password")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidCredentials, http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("failed to change password", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to change password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password changed")

	httputil.RespondJSON(w, map[string]string{
		"message": "Password changed successfully",
	}, http.StatusOK)
}

func toProfileResponse(u *user.User) ProfileResponse {
	return ProfileResponse{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role.String(),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func profileCacheKey(userID string) string {
	return "user_profile:" + userID
}
