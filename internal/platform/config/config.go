package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "wealthgate/pkg/platform/strings"
)

// Store backends selectable for counters and profiles.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	AdminToken      string
	AuthUpstreamURL string
	TrustedProxies  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	Redis     RedisConfig
	Database  DatabaseConfig
	Admission AdmissionConfig
	Wealth    WealthConfig
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// AdmissionConfig controls the rate limiter. PolicyOverrides maps an
// operation name to a "max/window" string such as "10/30s".
type AdmissionConfig struct {
	CounterBackend          string
	PolicyOverrides         map[string]string
	BreakerFailureThreshold int
	BreakerCooldown         time.Duration
	AdminRequestsPerMinute  int
}

// WealthConfig controls profile generation. ProviderURLs maps a holdings
// category (e.g. "real_estate") to the base URL of its HTTP provider.
type WealthConfig struct {
	ProfileBackend   string
	ProfileTTL       time.Duration
	ProviderURLs     map[string]string
	ProviderAPIKey   string
	UseMockProviders bool
	ProviderTimeout  time.Duration
	ProviderRetries  int
	GenerateTimeout  time.Duration
	SeedDemoData     bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	env := getEnv("WEALTHGATE_ENV", "development")

	redisCfg := RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     getInt("REDIS_POOL_SIZE", 20),
		MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
		ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
		WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
	}
	dbCfg := DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:     getBool("DATABASE_AUTO_MIGRATE", true),
	}

	overrides := make(map[string]string)
	for _, op := range []string{"login", "search", "api", "export"} {
		if v := os.Getenv("RATE_LIMIT_" + strings.ToUpper(op)); v != "" {
			overrides[op] = v
		}
	}

	return Server{
		Addr:            getEnv("WEALTHGATE_ADDR", ":8080"),
		Environment:     env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AdminToken:      os.Getenv("ADMIN_API_TOKEN"),
		AuthUpstreamURL: os.Getenv("AUTH_UPSTREAM_URL"),
		TrustedProxies:  pstrings.SplitList(os.Getenv("TRUSTED_PROXIES")),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    int64(getInt("MAX_BODY_BYTES", 1<<20)),
		Redis:           redisCfg,
		Database:        dbCfg,
		Admission: AdmissionConfig{
			CounterBackend:          backend("RATE_LIMIT_BACKEND", redisCfg, dbCfg),
			PolicyOverrides:         overrides,
			BreakerFailureThreshold: getInt("RATE_LIMIT_BREAKER_FAILURES", 5),
			BreakerCooldown:         getDuration("RATE_LIMIT_BREAKER_COOLDOWN", 10*time.Second),
			AdminRequestsPerMinute:  getInt("ADMIN_REQUESTS_PER_MINUTE", 30),
		},
		Wealth: WealthConfig{
			ProfileBackend:   backend("PROFILE_BACKEND", redisCfg, dbCfg),
			ProfileTTL:       getDuration("PROFILE_CACHE_TTL", 0),
			ProviderURLs:     pstrings.SplitPairs(os.Getenv("WEALTH_PROVIDER_URLS")),
			ProviderAPIKey:   os.Getenv("WEALTH_PROVIDER_API_KEY"),
			UseMockProviders: getBool("WEALTH_MOCK_PROVIDERS", env != "production"),
			ProviderTimeout:  getDuration("WEALTH_PROVIDER_TIMEOUT", 3*time.Second),
			ProviderRetries:  getInt("WEALTH_PROVIDER_RETRIES", 2),
			GenerateTimeout:  getDuration("WEALTH_GENERATE_TIMEOUT", 10*time.Second),
			SeedDemoData:     getBool("SEED_DEMO_DATA", env == "development"),
		},
	}
}

// backend honours an explicit choice, otherwise prefers Postgres, then Redis,
// then memory depending on what is configured.
func backend(key string, r RedisConfig, d DatabaseConfig) string {
	switch v := strings.ToLower(os.Getenv(key)); v {
	case BackendMemory, BackendRedis, BackendPostgres:
		return v
	}
	switch {
	case key == "RATE_LIMIT_BACKEND" && r.URL != "":
		return BackendRedis
	case d.URL != "":
		return BackendPostgres
	case r.URL != "":
		return BackendRedis
	default:
		return BackendMemory
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
