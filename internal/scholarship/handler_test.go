package scholarship

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/scholarport/scholarship-api/internal/auth"
	"github.com/scholarport/scholarship-api/internal/user"
)

// adminRequest builds a request carrying an authenticated admin, the state
// the router guarantees for the admin-only handlers.
func adminRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	admin := &user.User{ID: uuid.New(), Role: user.RoleAdmin}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, admin)
	return req.WithContext(ctx)
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	// Validation runs before any repository access
	h := NewHandler(nil, nil)
	future := time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing title", `{"description":"d","amount":1000,"deadline":"` + future + `"}`},
		{"missing description", `{"title":"t","amount":1000,"deadline":"` + future + `"}`},
		{"missing deadline", `{"title":"t","description":"d","amount":1000}`},
		{"zero amount", `{"title":"t","description":"d","amount":0,"deadline":"` + future + `"}`},
		{"negative amount", `{"title":"t","description":"d","amount":-50,"deadline":"` + future + `"}`},
		{"bad deadline format", `{"title":"t","description":"d","amount":1000,"deadline":"next friday"}`},
		{"past deadline", `{"title":"t","description":"d","amount":1000,"deadline":"2020-01-01T00:00:00Z"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.Create(rec, adminRequest(http.MethodPost, "/api/scholarships", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreate_RequiresAuthContext(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/scholarships", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGet_InvalidID(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/api/scholarships/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_InvalidFilters(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"bad min_amount", "min_amount=lots"},
		{"bad max_amount", "max_amount=1e"},
		{"bad deadline_before", "deadline_before=tomorrow"},
		{"bad deadline_after", "deadline_after=2025-13-45"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/search/scholarships?"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.Search(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
