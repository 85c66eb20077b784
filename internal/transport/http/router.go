// Package httptransport assembles the public HTTP surface: probes, metrics,
// the admission-controlled /api tree and the operator endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	admissionhandler "wealthgate/internal/admission/handler"
	admissionmw "wealthgate/internal/admission/middleware"
	"wealthgate/internal/platform/health"
	wealthhandler "wealthgate/internal/wealth/handler"
	"wealthgate/pkg/platform/middleware/admin"
	"wealthgate/pkg/platform/middleware/metadata"
	"wealthgate/pkg/platform/middleware/request"
)

// Deps carries everything the router mounts. Auth is optional; when set it is
// served under /api/auth behind the login policy.
type Deps struct {
	Logger         *slog.Logger
	Metadata       *metadata.Middleware
	RequestMetrics *request.Metrics
	Gatherer       prometheus.Gatherer

	Admission      *admissionmw.Middleware
	AdmissionAdmin *admissionhandler.Handler
	Wealth         *wealthhandler.Handler
	Health         *health.Handler
	Auth           http.Handler

	AdminToken          string
	AdminRequestsPerMin int
	RequestTimeout      time.Duration
	MaxBodyBytes        int64
}

func NewRouter(d Deps) http.Handler {
	if d.Metadata == nil {
		d.Metadata = metadata.NewMiddleware(nil)
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.AdminRequestsPerMin <= 0 {
		d.AdminRequestsPerMin = 30
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(d.Metadata.Handler)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.RequestMetrics))
	if d.RequestTimeout > 0 {
		r.Use(request.Timeout(d.RequestTimeout))
	}
	if d.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(d.MaxBodyBytes))
	}
	// Every /api request is counted, matched route or not. /api/auth is left
	// to the login policy below.
	r.Use(d.Admission.Admission)

	if d.Health != nil {
		d.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	if d.Auth != nil {
		r.With(d.Admission.Login()).Mount("/api/auth", d.Auth)
	}
	d.Wealth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(admin.Throttle(d.AdminRequestsPerMin, time.Minute))
		r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
		d.AdmissionAdmin.RegisterAdmin(r)
	})

	return r
}
