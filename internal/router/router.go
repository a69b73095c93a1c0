package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/config"
	"github.com/bonkboard/backend/internal/handlers"
	"github.com/bonkboard/backend/internal/middleware"
	"github.com/bonkboard/backend/internal/services"
)

// New assembles the full route tree: the public read API, the login
// endpoint, the admin-gated mutation surface, the live channel, and the
// static page / audio file servers.
func New(cfg *config.Config, state *services.State, hub *broker.Hub, clicks *services.ClickService) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewRealIPMiddleware(cfg.TrustedProxies).Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Services
	authService := services.NewAuthService(cfg.JWTSecret, cfg.AdminTokenDuration)

	// Handlers
	loginHandler := handlers.NewLoginHandler(cfg, authService)
	statsHandler := handlers.NewStatsHandler(state.Stats, hub)
	soundHandler := handlers.NewSoundHandler(state.Sounds, hub)
	milestoneHandler := handlers.NewMilestoneHandler(state.Milestones, hub)
	notificationHandler := handlers.NewNotificationHandler(hub)
	liveHandler := handlers.NewLiveHandler(hub, clicks, cfg.CORSAllowedOrigins)
	sentryTunnelHandler := handlers.NewSentryTunnelHandler(cfg)

	// Rate limiter for login attempts
	loginRateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Public read surface
		r.Get("/connection", statsHandler.Connection)
		r.Get("/counter", statsHandler.Counter)
		r.Get("/summary", statsHandler.Summary)
		r.Get("/stats", statsHandler.Stats)
		r.Get("/chart", statsHandler.Chart)
		r.Get("/sounds", soundHandler.List)
		r.Get("/milestones", milestoneHandler.List)

		// Admin login (rate limited)
		r.With(loginRateLimiter.Middleware).Post("/login", loginHandler.Login)

		// Sentry tunnel for the frontend
		r.Post("/sentry-tunnel", sentryTunnelHandler.Tunnel)

		// Admin-only mutation surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))
			r.Use(middleware.AdminOnlyMiddleware)

			r.Post("/sounds", soundHandler.Upload)
			r.Put("/sounds/{id}", soundHandler.Modify)
			r.Delete("/sounds/{id}", soundHandler.Delete)

			r.Post("/milestones", milestoneHandler.Create)
			r.Put("/milestones/{id}", milestoneHandler.Modify)
			r.Delete("/milestones/{id}", milestoneHandler.Delete)

			r.Post("/notification", notificationHandler.Push)
		})
	})

	// Live channel
	r.Get("/live", liveHandler.Connect)

	// Static assets: the single page and the audio clips
	r.Handle("/audio/*", http.StripPrefix("/audio/", http.FileServer(http.Dir(cfg.AudioDir))))
	r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))

	return r
}
