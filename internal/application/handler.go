package application

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/auth"
	"github.com/scholarport/scholarship-api/internal/httputil"
	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/scholarship"
	"github.com/scholarport/scholarship-api/internal/user"
)

// Handler contains HTTP handlers for application endpoints
type Handler struct {
	repo            *Repository
	scholarshipRepo *scholarship.Repository
}

func NewHandler(repo *Repository, scholarshipRepo *scholarship.Repository) *Handler {
	return &Handler{repo: repo, scholarshipRepo: scholarshipRepo}
}

// SubmitRequest represents the application submission body
type SubmitRequest struct {
	ScholarshipID string  `json:"scholarship_id"`
	Essay         *string `json:"essay"`
}

// ReviewRequest represents the admin review body
type ReviewRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// ListResponse is a page of applications
type ListResponse struct {
	Applications []*Application      `json:"applications"`
	Pagination   httputil.Pagination `json:"pagination"`
}

// Submit handles POST /api/applications
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid application request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.ScholarshipID == "" {
		httputil.RespondErrorWithCode(w, "scholarship_id is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	scholarshipID, err := uuid.Parse(req.ScholarshipID)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid scholarship_id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if _, err := h.scholarshipRepo.GetByID(r.Context(), scholarshipID); err != nil {
		if errors.Is(err, scholarship.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "scholarship not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to check scholarship", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to submit application", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	app, err := h.repo.Create(r.Context(), currentUser.ID, scholarshipID, req.Essay)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			logger.Warn("duplicate application", "scholarship_id", scholarshipID)
			httputil.RespondErrorWithCode(w, "you have already applied for this scholarship", httputil.CodeDuplicateApplication, http.StatusConflict)
			return
		}
		logger.Error("failed to create application", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to submit application", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("application submitted", "application_id", app.ID, "scholarship_id", scholarshipID)

	httputil.RespondJSON(w, map[string]any{
		"id":      app.ID,
		"message": "Application submitted successfully",
	}, http.StatusCreated)
}

// ListMine handles GET /api/applications/my and GET /api/search/applications
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	page, perPage := httputil.ParsePagination(r, 10, 100)
	params := ListParams{
		StudentID:        currentUser.ID,
		ScholarshipTitle: r.URL.Query().Get("scholarship_title"),
		Page:             page,
		PerPage:          perPage,
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status, err := ParseStatus(v)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid status", httputil.CodeInvalidStatus, http.StatusBadRequest)
			return
		}
		params.Status = &status
	}

	applications, total, err := h.repo.ListByStudent(r.Context(), params)
	if err != nil {
		logger.Error("failed to list applications", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch applications", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{
		Applications: applications,
		Pagination:   httputil.NewPagination(page, perPage, total),
	}, http.StatusOK)
}

// Get handles GET /api/applications/{id}. Students see only their own
// applications; admins see all.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid application id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	app, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "application not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get application", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch application", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if app.StudentID != currentUser.ID && currentUser.Role != user.RoleAdmin {
		httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	httputil.RespondJSON(w, app, http.StatusOK)
}

// Review handles POST /api/admin/applications/{id}/review (admin only)
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid application id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid review request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var status *Status
	if req.Status != nil {
		parsed, err := ParseStatus(*req.Status)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid status", httputil.CodeInvalidStatus, http.StatusBadRequest)
			return
		}
		status = &parsed
	}

	app, err := h.repo.Review(r.Context(), id, status, req.Notes, currentUser.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "application not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to review application", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update application", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("application reviewed", "application_id", app.ID, "status", app.Status)

	httputil.RespondJSON(w, map[string]any{
		"message":     "Application reviewed successfully",
		"application": app,
	}, http.StatusOK)
}
