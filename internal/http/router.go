package http

import (
	"net/http"

	"github.com/scholarport/scholarship-api/internal/admin"
	"github.com/scholarport/scholarship-api/internal/application"
	"github.com/scholarport/scholarship-api/internal/auth"
	"github.com/scholarport/scholarship-api/internal/config"
	"github.com/scholarport/scholarship-api/internal/httputil"
	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/profile"
	"github.com/scholarport/scholarship-api/internal/scholarship"
	"github.com/scholarport/scholarship-api/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers bundles the per-feature HTTP handlers the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	Profile     *profile.Handler
	Scholarship *scholarship.Handler
	Application *application.Handler
	Admin       *admin.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/verify-email/{token}", h.Auth.VerifyEmail)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password/{token}", h.Auth.ResetPassword)
			r.Post("/resend-verification", h.Auth.ResendVerificationEmail)
		})

		// Scholarship browsing (public)
		r.Get("/scholarships", h.Scholarship.List)
		r.Get("/scholarships/{id}", h.Scholarship.Get)
		r.Get("/search/scholarships", h.Scholarship.Search)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", h.Profile.Get)
				r.Put("/", h.Profile.Update)
				r.Post("/change-password", h.Profile.ChangePassword)
			})

			r.Post("/applications", h.Application.Submit)
			r.Get("/applications/my", h.Application.ListMine)
			r.Get("/applications/{id}", h.Application.Get)
			r.Get("/search/applications", h.Application.ListMine)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(authMiddleware.RequireRole(user.RoleAdmin))

			r.Post("/scholarships", h.Scholarship.Create)
			r.Post("/scholarships/{id}/toggle", h.Scholarship.Toggle)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/applications/{id}/review", h.Application.Review)
				r.Get("/stats", h.Admin.Stats)
				r.Get("/users", h.Admin.Users)
			})
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
