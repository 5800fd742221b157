package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JohannsenLum/chow/internal/auth"
	"github.com/JohannsenLum/chow/internal/repository"
	"github.com/JohannsenLum/chow/internal/service"
	"github.com/JohannsenLum/chow/pkg/health"
	"github.com/JohannsenLum/chow/pkg/middleware"
)

// NewRouter creates a chi router with all server routes registered.
func NewRouter(
	sessionService *service.SessionService,
	profileService *service.ProfileService,
	questService *service.QuestService,
	petRepo repository.PetRepository,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("chow-server"))
	r.Use(middleware.PrometheusMetrics("chow"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		}, nil
	}

	// Auth endpoints
	authHandler := NewAuthHandler(sessionService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/restore", authHandler.Restore)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/session", authHandler.Session)
			r.Post("/signout", authHandler.SignOut)
		})
	})

	// Profile and pet endpoints (auth required)
	profileHandler := NewProfileHandler(profileService)
	petHandler := NewPetHandler(petRepo)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", profileHandler.GetProfile)
		r.Put("/me", profileHandler.UpdateProfile)

		r.Get("/me/pets", petHandler.List)
		r.Post("/me/pets", petHandler.Create)
		r.Put("/me/pets/{id}", petHandler.Update)
		r.Delete("/me/pets/{id}", petHandler.Delete)
	})

	// Quest endpoints (auth required)
	questHandler := NewQuestHandler(questService)
	r.Route("/api/v1/quests", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		// The catalog changes rarely; let clients cache it briefly.
		r.With(middleware.CacheControl(300)).Get("/", questHandler.ListCatalog)
		r.Get("/me", questHandler.ListMine)
		r.Post("/reset", questHandler.Reset)
		r.Post("/{id}/start", questHandler.Start)
		r.Post("/{id}/complete", questHandler.Complete)
		r.Post("/{id}/claim", questHandler.Claim)
	})

	return r
}
