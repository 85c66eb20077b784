package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	admissionhandler "wealthgate/internal/admission/handler"
	admissionmetrics "wealthgate/internal/admission/metrics"
	admissionmw "wealthgate/internal/admission/middleware"
	"wealthgate/internal/platform/config"
	"wealthgate/internal/platform/health"
	"wealthgate/internal/platform/logger"
	"wealthgate/internal/seeder"
	httptransport "wealthgate/internal/transport/http"
	wealthhandler "wealthgate/internal/wealth/handler"
	wealthmetrics "wealthgate/internal/wealth/metrics"
	"wealthgate/internal/wealth/tracer"
	"wealthgate/pkg/platform/middleware/metadata"
	"wealthgate/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("initializing wealthgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"counter_backend", cfg.Admission.CounterBackend,
		"profile_backend", cfg.Wealth.ProfileBackend,
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()

	healthHandler := health.New(cfg.Environment)
	backends.registerChecks(healthHandler)

	// Admission
	limiter, err := buildLimiter(cfg, backends, log, admissionmetrics.New())
	if err != nil {
		return err
	}

	// Wealth
	wm := wealthmetrics.New()
	registry, err := buildProviders(cfg.Wealth, log)
	if err != nil {
		return err
	}
	profiles := buildProfileStore(cfg.Wealth, backends)
	wealth, err := buildWealthService(cfg.Wealth, registry, profiles, wm, tracer.NewOTel(), log)
	if err != nil {
		return err
	}
	if cfg.Wealth.SeedDemoData {
		if err := seeder.New(profiles, log).SeedAll(ctx); err != nil {
			log.Warn("failed to seed demo data", "error", err)
		}
	}

	trusted, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	auth, err := authProxy(cfg.AuthUpstreamURL)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:              log,
		Metadata:            metadata.NewMiddleware(&metadata.Config{TrustedProxies: trusted}),
		RequestMetrics:      request.NewMetrics(),
		Gatherer:            prometheus.DefaultGatherer,
		Admission:           admissionmw.New(limiter, log),
		AdmissionAdmin:      admissionhandler.New(limiter, log),
		Wealth:              wealthhandler.New(wealth, log),
		Health:              healthHandler,
		Auth:                auth,
		AdminToken:          cfg.AdminToken,
		AdminRequestsPerMin: cfg.Admission.AdminRequestsPerMinute,
		RequestTimeout:      cfg.RequestTimeout,
		MaxBodyBytes:        cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
