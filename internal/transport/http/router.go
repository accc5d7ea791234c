package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/timeweaver-api/internal/application/notification"
	"github.com/timeweaver-api/internal/application/session"
	"github.com/timeweaver-api/internal/application/timer"
	"github.com/timeweaver-api/internal/application/user"
	"github.com/timeweaver-api/internal/config"
	jwtinfra "github.com/timeweaver-api/internal/infrastructure/jwt"
	"github.com/timeweaver-api/internal/realtime"
	"github.com/timeweaver-api/internal/transport/http/handler"
	appmiddleware "github.com/timeweaver-api/internal/transport/http/middleware"
	"github.com/timeweaver-api/web"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	TimerRepo        TimerRepository
	NotificationRepo NotificationRepository
	UserRepo         UserRepository    // nil when running on the local store
	SessionRepo      SessionRepository // nil when running on the local store
	Scheduler        timer.Registry
	Hub              *realtime.Hub
	JWTProvider      *jwtinfra.Provider // nil when no identity provider is configured
}

// NewRouter builds and returns the application router. Without a JWT provider
// every request runs under the fixed anonymous identity and the account
// endpoints are not mounted.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = appmiddleware.Anonymous
	}

	// 5 requests/second, burst of 10. Applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	timerSvc := timer.NewService(deps.TimerRepo, deps.Scheduler, deps.Hub, cfg.DefaultTimeZone)
	notifSvc := notification.NewService(deps.NotificationRepo)

	healthH := handler.NewHealthHandler()
	timerH := handler.NewTimerHandler(timerSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	streamH := handler.NewStreamHandler(timerSvc, notifSvc, deps.Hub)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		if deps.JWTProvider != nil {
			sessionSvc := session.NewService(deps.SessionRepo, deps.UserRepo, deps.JWTProvider, cfg.RefreshExpiry)
			userSvc := user.NewService(deps.UserRepo, deps.SessionRepo, deps.JWTProvider, cfg.RefreshExpiry)
			sessionH := handler.NewSessionHandler(sessionSvc)
			userH := handler.NewUserHandler(userSvc)

			r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
			r.Post("/sessions/refresh", sessionH.Refresh)
			r.With(sensitiveRL.Limit).Post("/users", userH.Register)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Get("/sessions", sessionH.GetCurrent)
				r.Post("/sessions/logout", sessionH.Logout)
				r.Get("/users/me", userH.Me)
				r.Put("/users/me", userH.Update)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/timers", timerH.List)
			r.Post("/timers", timerH.Create)
			r.Delete("/timers/{id}", timerH.Delete)
			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.Acknowledge)
			r.Get("/timers/stream", streamH.Subscribe)
		})
	})

	r.Handle("/*", web.Handler())

	return r
}
