package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	admissionmetrics "wealthgate/internal/admission/metrics"
	"wealthgate/internal/admission/models"
	platformconfig "wealthgate/internal/platform/config"
	"wealthgate/internal/wealth/store/profile"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildProvidersUsesMocks(t *testing.T) {
	registry, err := buildProviders(platformconfig.WealthConfig{UseMockProviders: true}, discard())
	require.NoError(t, err)
	assert.Equal(t, 3, registry.Len())
}

func TestBuildProvidersFromURLs(t *testing.T) {
	registry, err := buildProviders(platformconfig.WealthConfig{
		ProviderURLs: map[string]string{
			"real_estate": "http://re:8081",
			"cash":        "http://cash:8083",
		},
	}, discard())
	require.NoError(t, err)
	require.Equal(t, 2, registry.Len())

	p, ok := registry.Get("real_estate-http")
	require.True(t, ok)
	assert.Equal(t, 1.0, p.Weight())

	_, err = buildProviders(platformconfig.WealthConfig{
		ProviderURLs: map[string]string{"yachts": "http://y"},
	}, discard())
	assert.Error(t, err)
}

func TestBuildProfileStoreFallsBackToMemory(t *testing.T) {
	store := buildProfileStore(platformconfig.WealthConfig{ProfileBackend: platformconfig.BackendPostgres}, &infra{stopJobs: func() {}})
	assert.IsType(t, &profile.InMemoryStore{}, store)
}

func TestBuildLimiterAppliesOverrides(t *testing.T) {
	in := &infra{stopJobs: func() {}}
	defer in.Close()

	cfg := platformconfig.Server{Admission: platformconfig.AdmissionConfig{
		CounterBackend:          platformconfig.BackendMemory,
		PolicyOverrides:         map[string]string{"login": "2/10s"},
		BreakerFailureThreshold: 3,
	}}
	limiter, err := buildLimiter(cfg, in, discard(), admissionmetrics.NewWithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)

	for _, p := range limiter.Policies() {
		if p.Operation == models.OperationLogin {
			assert.Equal(t, 2, p.MaxRequests)
		}
	}

	_, err = buildLimiter(platformconfig.Server{Admission: platformconfig.AdmissionConfig{
		PolicyOverrides: map[string]string{"checkout": "1/1s"},
	}}, in, discard(), admissionmetrics.NewWithRegistry(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestAuthProxy(t *testing.T) {
	h, err := authProxy("")
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = authProxy("not a url")
	assert.Error(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream-Path", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer upstream.Close()

	h, err = authProxy(upstream.URL)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/api/auth/login", rec.Header().Get("X-Upstream-Path"))
}
