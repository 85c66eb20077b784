package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"REDIS_URL", "DATABASE_URL", "RATE_LIMIT_BACKEND", "PROFILE_BACKEND", "WEALTHGATE_ENV"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendMemory, cfg.Admission.CounterBackend)
	assert.Equal(t, BackendMemory, cfg.Wealth.ProfileBackend)
	assert.True(t, cfg.Wealth.UseMockProviders)
	assert.True(t, cfg.Wealth.SeedDemoData)
	assert.Equal(t, 3*time.Second, cfg.Wealth.ProviderTimeout)
	assert.Empty(t, cfg.Admission.PolicyOverrides)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("WEALTHGATE_ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/wealth")
	t.Setenv("RATE_LIMIT_LOGIN", "10/30s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("WEALTH_PROVIDER_URLS", "real_estate=http://re:8081,business=http://biz:8082")
	t.Setenv("WEALTH_PROVIDER_TIMEOUT", "750ms")

	cfg := FromEnv()

	assert.Equal(t, BackendRedis, cfg.Admission.CounterBackend)
	assert.Equal(t, BackendPostgres, cfg.Wealth.ProfileBackend)
	assert.Equal(t, "10/30s", cfg.Admission.PolicyOverrides["login"])
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, "http://biz:8082", cfg.Wealth.ProviderURLs["business"])
	assert.Equal(t, 750*time.Millisecond, cfg.Wealth.ProviderTimeout)
	assert.False(t, cfg.Wealth.UseMockProviders)
	assert.False(t, cfg.Wealth.SeedDemoData)
	assert.Equal(t, "http://re:8081", cfg.Wealth.ProviderURLs["real_estate"])
}

func TestExplicitBackendWins(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_LIMIT_BACKEND", "memory")

	assert.Equal(t, BackendMemory, FromEnv().Admission.CounterBackend)
}
