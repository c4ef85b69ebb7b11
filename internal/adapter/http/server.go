package adapthttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/app"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

// Services are the application services the adapter drives.
type Services struct {
	Auth          *app.AuthService
	Measurements  *app.MeasurementService
	Progress      *app.ProgressService
	Treats        *app.TreatService
	Notifications *app.NotificationService
}

// Options configure transport concerns.
type Options struct {
	WebDir           string
	CORSAllowOrigins []string

	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	StreamHeartbeat time.Duration
	StreamRetry     time.Duration

	OIDC   *OIDCConfig
	Logger *slog.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	authSvc       *app.AuthService
	measurements  *app.MeasurementService
	progress      *app.ProgressService
	treats        *app.TreatService
	notifications *app.NotificationService
	hub           *notify.Hub

	opts       Options
	oidcConfig *OIDCConfig
	logger     *slog.Logger

	disableAuth bool
	devUser     *domain.User
}

// New creates a Server wired to the given application services. Live
// notification streams subscribe to hub.
func New(svc Services, hub *notify.Hub, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OIDC == nil {
		opts.OIDC = &OIDCConfig{}
	}
	if opts.StreamHeartbeat <= 0 {
		opts.StreamHeartbeat = 25 * time.Second
	}
	if opts.StreamRetry <= 0 {
		opts.StreamRetry = 5 * time.Second
	}
	return &Server{
		authSvc:       svc.Auth,
		measurements:  svc.Measurements,
		progress:      svc.Progress,
		treats:        svc.Treats,
		notifications: svc.Notifications,
		hub:           hub,
		opts:          opts,
		oidcConfig:    opts.OIDC,
		logger:        opts.Logger,
	}
}

// WithoutAuth disables authentication and serves every request as user.
// Intended for tests and local development.
func (s *Server) WithoutAuth(user *domain.User) *Server {
	s.disableAuth = true
	s.devUser = user
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   s.opts.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	// --- Routes ---
	r.Route("/api", func(api chi.Router) {
		api.Use(withNoCache)
		if s.opts.RateLimitEnabled {
			api.Use(RateLimitMiddleware(s.opts.RateLimitRequests, s.opts.RateLimitWindow))
		}

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", s.handleLogin)
			ar.Post("/logout", s.handleLogout)
			ar.Post("/setup", s.handleSetupUser)
			ar.Get("/config", s.handleConfig)
			ar.Get("/sso/login", s.handleSSOLogin)
			ar.Get("/sso/callback", s.handleSSOCallback)
			ar.With(s.authMiddleware).Post("/token", s.handleIssueToken)
			ar.With(s.authMiddleware).Get("/me", s.handleMe)
		})

		api.Group(func(p chi.Router) {
			p.Use(s.authMiddleware)

			p.Get("/measurements/today", s.handleMeasurementToday)
			p.Put("/measurements/today", s.handleMeasurementRecord)
			p.Get("/measurements/recent", s.handleMeasurementRecent)
			p.Post("/measurements/undo-last", s.handleMeasurementUndoLast)

			p.Get("/progress/daily", s.handleProgressDaily)

			p.Route("/treats", func(tr chi.Router) {
				tr.Get("/eligibility", s.handleEligibility)
				tr.Post("/spin", s.handleSpin)
				tr.Get("/spins", s.handleSpins)
				tr.Get("/spins/{id}/replay", s.handleSpinReplay)
				tr.Post("/spins/{id}/bonus-complete", s.handleBonusComplete)
				tr.Get("/items", s.handleTreatItems)
				tr.Post("/items", s.handleAddTreatItem)
				tr.Delete("/items/{id}", s.handleDeleteTreatItem)
			})

			p.Route("/notifications", func(nr chi.Router) {
				nr.Get("/", s.handleNotifications)
				nr.Get("/unread-count", s.handleUnreadCount)
				nr.Post("/read", s.handleMarkRead)
				nr.Get("/stream", s.handleNotificationStream)
			})
		})
	})

	r.Handle("/*", withNoCache(spaFromDisk(s.opts.WebDir)))
	return r
}
