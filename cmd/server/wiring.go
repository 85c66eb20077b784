package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"time"

	"wealthgate/internal/admission/config"
	admissionmetrics "wealthgate/internal/admission/metrics"
	"wealthgate/internal/admission/ports"
	admissionservice "wealthgate/internal/admission/service"
	"wealthgate/internal/admission/store/counter"
	platformconfig "wealthgate/internal/platform/config"
	"wealthgate/internal/platform/database"
	"wealthgate/internal/platform/health"
	redisclient "wealthgate/internal/platform/redis"
	"wealthgate/internal/wealth/aggregator"
	wealthmetrics "wealthgate/internal/wealth/metrics"
	"wealthgate/internal/wealth/models"
	wealthports "wealthgate/internal/wealth/ports"
	"wealthgate/internal/wealth/providers"
	"wealthgate/internal/wealth/providers/adapters"
	"wealthgate/internal/wealth/providers/mock"
	wealthservice "wealthgate/internal/wealth/service"
	"wealthgate/internal/wealth/store/profile"
	"wealthgate/internal/wealth/tracer"
	"wealthgate/pkg/platform/circuit"
)

// infra holds the shared backends. Either may be nil when not configured.
type infra struct {
	redis    *redisclient.Client
	db       *database.Pool
	closers  []func()
	stopJobs context.CancelFunc
}

func openInfra(ctx context.Context, cfg platformconfig.Server, log *slog.Logger) (*infra, error) {
	jobs, stop := context.WithCancel(context.Background())
	in := &infra{stopJobs: stop}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		in.redis = rc
		in.closers = append(in.closers, func() { _ = rc.Close() })
		go rc.RunPoolStats(jobs, 15*time.Second)
		log.Info("redis connected")
	}

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		in.db = pool
		in.closers = append(in.closers, func() { _ = pool.Close() })
		if cfg.Database.AutoMigrate {
			if err := pool.Migrate(); err != nil {
				in.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		log.Info("database connected", "auto_migrate", cfg.Database.AutoMigrate)
	}
	return in, nil
}

func (in *infra) Close() {
	in.stopJobs()
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
}

func (in *infra) registerChecks(h *health.Handler) {
	if in.redis != nil {
		h.RegisterCheck("redis", in.redis.Health)
	}
	if in.db != nil {
		h.RegisterCheck("database", in.db.Health)
	}
}

func (in *infra) onClose(fn func()) {
	in.closers = append(in.closers, fn)
}

func buildLimiter(cfg platformconfig.Server, in *infra, log *slog.Logger, m *admissionmetrics.Metrics) (*admissionservice.Service, error) {
	table, err := config.NewTable(cfg.Admission.PolicyOverrides)
	if err != nil {
		return nil, err
	}

	fallback := counter.NewInMemory()
	fallback.Start()
	in.onClose(fallback.Stop)

	var store ports.CounterStore
	switch {
	case cfg.Admission.CounterBackend == platformconfig.BackendRedis && in.redis != nil:
		store = counter.NewRedis(in.redis.Client)
	case cfg.Admission.CounterBackend == platformconfig.BackendPostgres && in.db != nil:
		store = counter.NewPostgres(in.db.DB())
	default:
		// Single instance: the shared store and the fallback are the same map.
		store = fallback
	}

	breaker := circuit.New("counter-store",
		circuit.WithFailureThreshold(cfg.Admission.BreakerFailureThreshold),
		circuit.WithCooldown(cfg.Admission.BreakerCooldown),
	)
	for _, p := range table.Policies() {
		log.Info("admission policy",
			"operation", p.Operation,
			"window_seconds", p.WindowSeconds(),
			"max_requests", p.MaxRequests,
			"fail_mode", p.FailMode,
		)
	}
	return admissionservice.New(store,
		admissionservice.WithPolicyTable(table),
		admissionservice.WithFallback(fallback),
		admissionservice.WithBreaker(breaker),
		admissionservice.WithLogger(log),
		admissionservice.WithMetrics(m),
	)
}

// providerWeights is the influence of each holdings category when real HTTP
// providers are configured.
var providerWeights = map[models.Category]float64{
	models.CategoryRealEstate:  1.0,
	models.CategoryInvestments: 0.8,
	models.CategoryBusiness:    0.8,
	models.CategoryCash:        0.5,
}

func buildProviders(cfg platformconfig.WealthConfig, log *slog.Logger) (*providers.Registry, error) {
	registry := providers.NewRegistry()
	if cfg.UseMockProviders {
		for _, p := range mock.Defaults() {
			if err := registry.Register(p); err != nil {
				return nil, err
			}
		}
		log.Info("using mock wealth providers", "count", registry.Len())
		return registry, nil
	}

	categories := make([]string, 0, len(cfg.ProviderURLs))
	for c := range cfg.ProviderURLs {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, name := range categories {
		category := models.Category(name)
		if !category.IsValid() {
			return nil, fmt.Errorf("unknown provider category %q", name)
		}
		adapter := adapters.NewHTTPAdapter(adapters.HTTPAdapterConfig{
			ID:       name + "-http",
			BaseURL:  cfg.ProviderURLs[name],
			APIKey:   cfg.ProviderAPIKey,
			Category: category,
			Weight:   providerWeights[category],
			Timeout:  cfg.ProviderTimeout,
		})
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	if registry.Len() == 0 {
		log.Warn("no wealth providers configured; every generation will report no_signal")
	}
	return registry, nil
}

func buildProfileStore(cfg platformconfig.WealthConfig, in *infra) wealthports.ProfileStore {
	switch {
	case cfg.ProfileBackend == platformconfig.BackendPostgres && in.db != nil:
		return profile.NewPostgres(in.db.DB())
	case cfg.ProfileBackend == platformconfig.BackendRedis && in.redis != nil:
		return profile.NewRedis(in.redis.Client, cfg.ProfileTTL)
	default:
		return profile.NewInMemory()
	}
}

func buildWealthService(cfg platformconfig.WealthConfig, registry *providers.Registry, store wealthports.ProfileStore, m *wealthmetrics.Metrics, t tracer.Tracer, log *slog.Logger) (*wealthservice.Service, error) {
	retries := cfg.ProviderRetries
	if retries == 0 {
		retries = -1
	}
	agg := aggregator.New(aggregator.Config{
		Registry: registry,
		Timeout:  cfg.ProviderTimeout,
		Backoff:  aggregator.BackoffConfig{MaxRetries: retries},
		Tracer:   t,
		Metrics:  m,
		Logger:   log,
	})
	return wealthservice.New(store, agg,
		wealthservice.WithLogger(log),
		wealthservice.WithMetrics(m),
		wealthservice.WithTracer(t),
		wealthservice.WithGenerateTimeout(cfg.GenerateTimeout),
	)
}

// authProxy forwards /api/auth to the external authentication service. It
// returns nil when none is configured.
func authProxy(upstream string) (http.Handler, error) {
	if upstream == "" {
		return nil, nil
	}
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse auth upstream: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("auth upstream %q must be an absolute URL", upstream)
	}
	return httputil.NewSingleHostReverseProxy(target), nil
}
