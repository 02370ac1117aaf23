package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	authhandler "taskstation/internal/auth/handler"
	"taskstation/internal/backend"
	companyhandler "taskstation/internal/company/handler"
	dashboardhandler "taskstation/internal/dashboard/handler"
	"taskstation/internal/gate"
	"taskstation/internal/platform/config"
	"taskstation/internal/platform/health"
	"taskstation/internal/platform/logger"
	"taskstation/internal/platform/metrics"
	"taskstation/internal/platform/middleware"
	"taskstation/internal/session"
	superadminhandler "taskstation/internal/superadmin/handler"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Page and action logic lives in the domain packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing task station console",
		"addr", cfg.Addr,
		"api_base_url", cfg.APIBaseURL,
		"environment", cfg.Environment,
	)

	m := metrics.New()
	api := backend.New(cfg.APIBaseURL, cfg.BackendTimeout, log, m)
	cookies := session.Writer{Secure: cfg.SecureCookies}
	access := gate.New(api, log, m)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("api", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return api.Ping(ctx)
	})

	router := newRouter(cfg, log, m,
		healthHandler,
		authhandler.New(api, cookies, access, log, m),
		dashboardhandler.New(api, access, log),
		companyhandler.New(api, cookies, access, log, m),
		superadminhandler.New(api, cookies, access, log, m),
	)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// registrar is the shape every domain handler exposes.
type registrar interface {
	Register(r chi.Router)
}

// newRouter assembles the middleware stack and mounts every domain.
func newRouter(cfg config.Server, log *slog.Logger, m *metrics.Metrics, domains ...registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ClientInfo)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowCredentials: true,
		}).Handler)
	}

	r.Handle("/metrics", promhttp.Handler())

	for _, domain := range domains {
		domain.Register(r)
	}

	return r
}
