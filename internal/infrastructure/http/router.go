package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/http/handlers"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	VerificationHandler *handlers.VerificationHandler
	AdminHandler        *handlers.AdminHandler
	HealthHandler       *handlers.HealthHandler
	RequireAdmin        func(http.Handler) http.Handler // X-KYP-Admin-Secret for /admin/*
	Secure              func(http.Handler) http.Handler
	CORS                func(http.Handler) http.Handler
	IPRateLimit         func(http.Handler) http.Handler // per-IP limit across the whole API
	AuthRateLimit       func(http.Handler) http.Handler // stricter limit on credential endpoints
	Log                 zerolog.Logger
	Metrics             bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	r.Use(chimid.AllowContentType("application/json"))
	r.Use(chimid.SetHeader("Content-Type", "application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		// Credential endpoints get the stricter per-IP limit.
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimit != nil {
				r.Use(cfg.AuthRateLimit)
			}
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
		})
		r.Post("/unlock", cfg.AuthHandler.Unlock)
		r.Post("/2fa/setup", cfg.AuthHandler.SecondFactorSetup)
		r.Post("/2fa/confirm", cfg.AuthHandler.SecondFactorConfirm)
	})

	r.Route("/verification", func(r chi.Router) {
		r.Post("/issue", cfg.VerificationHandler.Issue)
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimit != nil {
				r.Use(cfg.AuthRateLimit)
			}
			r.Post("/verify", cfg.VerificationHandler.Verify)
			r.Post("/check", cfg.VerificationHandler.Check)
		})
	})

	if cfg.AdminHandler != nil && cfg.RequireAdmin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.RequireAdmin)
			r.Post("/accounts/lock", cfg.AdminHandler.SetLock)
		})
	}

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
