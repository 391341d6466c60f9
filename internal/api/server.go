// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/core"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/lease"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/metrics"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/playback"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app      *core.App
	db       *sql.DB
	store    *store.Store
	leases   *lease.Manager
	playback *playback.Service
	resolver *credential.Resolver
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	storeInstance := store.New(app.DB())
	resolver := credential.NewResolver(storeInstance)
	return &Server{
		app:      app,
		db:       app.DB(),
		store:    storeInstance,
		leases:   lease.NewManager(storeInstance, app.Config()),
		playback: playback.NewService(storeInstance, app.RD(), resolver, app.Config()),
		resolver: resolver,
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Instrument)

	// API routes
	r.Post("/api/users/login", s.handleLogin)
	r.Get("/api/version", s.handleGetVersion)
	r.Get("/api/config", s.handleGetConfig)
	r.Method("GET", "/metrics", metrics.Handler())

	// Session lease endpoints. Playback clients call these around every
	// stream: check before starting, heartbeat while playing, end on stop.
	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		r.Use(s.EnabledOnlyMiddleware)

		r.Post("/session/check", s.handleSessionCheck)
		r.Post("/session/heartbeat", s.handleSessionHeartbeat)
		r.Post("/session/end", s.handleSessionEnd)

		r.Post("/api/stream/resolve", s.handleStreamResolve)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Post("/api/users/logout", s.handleLogout)
		r.Get("/api/users/me", s.handleGetMe)

		// Admin routes
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(s.AdminOnlyMiddleware)

			r.Get("/users", s.handleAdminListUsers)
			r.Post("/users", s.handleAdminCreateUser)
			r.Put("/users/{userID}", s.handleAdminUpdateUser)
			r.Delete("/users/{userID}", s.handleAdminDeleteUser)
			r.Put("/users/{userID}/enabled", s.handleAdminSetUserEnabled)
			r.Get("/accounts/status", s.handleAdminAccountStatus)

			r.Get("/leases", s.handleAdminListLeases)
			r.Get("/link-cache", s.handleAdminLinkCacheStats)
			r.Post("/link-cache/evict", s.handleAdminEvictLinks)

			r.Post("/jobs/run", s.handleRunAdminJob)
			r.Get("/jobs/status", s.handleGetAdminJobsStatus)
		})
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
