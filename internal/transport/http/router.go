package http

import (
	"context"
	"net/http"

	"github.com/doc-analyzer-api/internal/config"
	"github.com/doc-analyzer-api/internal/transport/http/handler"
	appmiddleware "github.com/doc-analyzer-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiter.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.Tokens != nil {
		authMw = appmiddleware.Auth(deps.Tokens)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to the login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustedProxies...)

	healthH := handler.NewHealthHandler("PDF Document Analyzer API", deps.Version)
	authH := handler.NewAuthHandler(deps.Auth)
	docH := handler.NewDocumentHandler(deps.Documents, cfg.MaxUploadBytes)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Health)
		r.Get("/test", healthH.Test)

		r.Route("/auth", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/send-otp", authH.SendOTP)
			r.Post("/verify-otp", authH.VerifyOTP)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Use(authMw)
			r.Post("/upload", docH.Upload)
			r.Post("/chat", docH.Chat)
			r.Get("/", docH.List)
			r.Get("/{id}", docH.Get)
			r.Delete("/{id}", docH.Delete)
		})
	})

	return r
}
