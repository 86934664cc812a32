package admin

import (
	"net/http"

	"github.com/scholarport/scholarship-api/internal/httputil"
	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/user"
)

// Handler contains HTTP handlers for admin endpoints. Role enforcement
// happens in the router via the auth middleware; these handlers assume an
// admin caller.
type Handler struct {
	repo     *Repository
	userRepo *user.Repository
}

func NewHandler(repo *Repository, userRepo *user.Repository) *Handler {
	return &Handler{repo: repo, userRepo: userRepo}
}

// UsersResponse is a page of users
type UsersResponse struct {
	Users      []*user.User        `json:"users"`
	Pagination httputil.Pagination `json:"pagination"`
}

// Stats handles GET /api/admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		logger.Error("failed to collect admin stats", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch statistics", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, stats, http.StatusOK)
}

// Users handles GET /api/admin/users with optional role filter
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	page, perPage := httputil.ParsePagination(r, 20, 100)

	var roleFilter *user.Role
	if v := r.URL.Query().Get("role"); v != "" {
		role, err := user.ParseRole(v)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid role", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		roleFilter = &role
	}

	users, total, err := h.userRepo.List(r.Context(), page, perPage, roleFilter)
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, UsersResponse{
		Users:      users,
		Pagination: httputil.NewPagination(page, perPage, total),
	}, http.StatusOK)
}
