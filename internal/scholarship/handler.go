package scholarship

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/auth"
	"github.com/scholarport/scholarship-api/internal/cache"
	"github.com/scholarport/scholarship-api/internal/httputil"
	"github.com/scholarport/scholarship-api/internal/logging"
)

const detailCacheTTL = 10 * time.Minute

// Handler contains HTTP handlers for scholarship endpoints
type Handler struct {
	repo  *Repository
	cache *cache.Cache
}

func NewHandler(repo *Repository, c *cache.Cache) *Handler {
	return &Handler{repo: repo, cache: c}
}

// CreateRequest represents the scholarship creation body
type CreateRequest struct {
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Amount              float64 `json:"amount"`
	Deadline            string  `json:"deadline"`
	EligibilityCriteria *string `json:"eligibility_criteria"`
	ContactEmail        *string `json:"contact_email"`
	Website             *string `json:"website"`
}

// ListResponse is a page of scholarships
type ListResponse struct {
	Scholarships []*Scholarship      `json:"scholarships"`
	Pagination   httputil.Pagination `json:"pagination"`
}

// List handles GET /api/scholarships
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	page, perPage := httputil.ParsePagination(r, 10, 100)

	scholarships, total, err := h.repo.List(r.Context(), page, perPage)
	if err != nil {
		logger.Error("failed to list scholarships", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch scholarships", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{
		Scholarships: scholarships,
		Pagination:   httputil.NewPagination(page, perPage, total),
	}, http.StatusOK)
}

// Get handles GET /api/scholarships/{id}, serving from cache when warm
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid scholarship id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	cacheKey := detailCacheKey(id)
	var cached Scholarship
	if err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil {
		httputil.RespondJSON(w, &cached, http.StatusOK)
		return
	}

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "scholarship not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get scholarship", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch scholarship", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.cache.Set(r.Context(), cacheKey, s, detailCacheTTL); err != nil {
		logger.Warn("failed to cache scholarship", "error", err.Error())
	}

	httputil.RespondJSON(w, s, http.StatusOK)
}

// Create handles POST /api/scholarships (admin only)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid scholarship request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.Description == "" || req.Deadline == "" {
		httputil.RespondErrorWithCode(w, "title, description, amount and deadline are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		httputil.RespondErrorWithCode(w, "amount must be positive", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid deadline format, use RFC 3339", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if deadline.Before(time.Now()) {
		httputil.RespondErrorWithCode(w, "deadline must be in the future", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	s, err := h.repo.Create(r.Context(), CreateParams{
		Title:               req.Title,
		Description:         req.Description,
		Amount:              req.Amount,
		Deadline:            deadline,
		EligibilityCriteria: req.EligibilityCriteria,
		ContactEmail:        req.ContactEmail,
		Website:             req.Website,
		CreatedBy:           currentUser.ID,
	})
	if err != nil {
		logger.Error("failed to create scholarship", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create scholarship", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("scholarship created", "scholarship_id", s.ID)

	httputil.RespondJSON(w, map[string]any{
		"id":      s.ID,
		"message": "Scholarship created successfully",
	}, http.StatusCreated)
}

// Toggle handles POST /api/scholarships/{id}/toggle (admin only)
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid scholarship id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	s, err := h.repo.ToggleActive(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "scholarship not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to toggle scholarship", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update scholarship status", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	// Stale detail entries would serve the old active flag
	if err := h.cache.Delete(r.Context(), detailCacheKey(id)); err != nil {
		logger.Warn("failed to invalidate scholarship cache", "error", err.Error())
	}

	status := "deactivated"
	if s.IsActive {
		status = "activated"
	}

	httputil.RespondJSON(w, map[string]any{
		"message":     fmt.Sprintf("Scholarship %s successfully", status),
		"scholarship": s,
	}, http.StatusOK)
}

// Search handles GET /api/search/scholarships
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	page, perPage := httputil.ParsePagination(r, 20, 100)
	params := SearchParams{
		Query:     r.URL.Query().Get("q"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
		Page:      page,
		PerPage:   perPage,
	}

	if v := r.URL.Query().Get("min_amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid min_amount", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		params.MinAmount = &amount
	}
	if v := r.URL.Query().Get("max_amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid max_amount", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		params.MaxAmount = &amount
	}
	if v := r.URL.Query().Get("deadline_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid deadline_before format, use RFC 3339", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		params.DeadlineBefore = &t
	}
	if v := r.URL.Query().Get("deadline_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid deadline_after format, use RFC 3339", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		params.DeadlineAfter = &t
	}

	scholarships, total, err := h.repo.Search(r.Context(), params)
	if err != nil {
		logger.Error("failed to search scholarships", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to search scholarships", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{
		Scholarships: scholarships,
		Pagination:   httputil.NewPagination(page, perPage, total),
	}, http.StatusOK)
}

func detailCacheKey(id uuid.UUID) string {
	return "scholarship:" + id.String()
}
