package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/providers"
)

func newAdapter(t *testing.T, handler http.HandlerFunc) *HTTPAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPAdapter(HTTPAdapterConfig{
		ID:       "land-registry",
		BaseURL:  srv.URL + "/",
		APIKey:   "secret",
		Category: models.CategoryRealEstate,
		Timeout:  time.Second,
	})
}

func TestHTTPAdapter_Lookup(t *testing.T) {
	t.Run("parses a signal", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/lookup", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Acme Owner", body["ownerName"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"estimate": "6750000",
				"reliability": 0.9,
				"category": "real_estate",
				"lastUpdated": "2026-09-01T00:00:00Z",
				"annualChange": 4.2,
				"properties": [{"propertyId": "prop-1", "address": "1 Main St", "estimatedValue": "2500000"}]
			}`))
		})

		signal, err := a.Lookup(context.Background(), "Acme Owner")
		require.NoError(t, err)
		assert.Equal(t, "land-registry", signal.ProviderID)
		assert.True(t, decimal.NewFromInt(6_750_000).Equal(signal.Estimate))
		assert.InDelta(t, 0.9, signal.Reliability, 1e-9)
		require.NotNil(t, signal.AnnualChange)
		assert.InDelta(t, 4.2, *signal.AnnualChange, 1e-9)
		require.Len(t, signal.Properties, 1)
		assert.Equal(t, "prop-1", signal.Properties[0].PropertyID.String())
	})

	t.Run("category defaults to the configured one", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"estimate": "100", "reliability": 0.5}`))
		})
		signal, err := a.Lookup(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, models.CategoryRealEstate, signal.Category)
	})

	t.Run("rejects invalid payloads as bad data", func(t *testing.T) {
		for name, payload := range map[string]string{
			"malformed":          `{`,
			"negative estimate":  `{"estimate": "-1", "reliability": 0.5}`,
			"reliability range":  `{"estimate": "1", "reliability": 1.5}`,
			"category mismatch":  `{"estimate": "1", "reliability": 0.5, "category": "cash"}`,
			"invalid propertyId": `{"estimate": "1", "reliability": 0.5, "properties": [{"propertyId": "../x"}]}`,
		} {
			t.Run(name, func(t *testing.T) {
				a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte(payload))
				})
				_, err := a.Lookup(context.Background(), "x")
				assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))
				assert.False(t, providers.IsRetryable(err))
			})
		}
	})
}

func TestHTTPAdapter_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		category  providers.ErrorCategory
		retryable bool
	}{
		{http.StatusUnauthorized, providers.ErrorAuthentication, false},
		{http.StatusForbidden, providers.ErrorAuthentication, false},
		{http.StatusNotFound, providers.ErrorNotFound, false},
		{http.StatusTooManyRequests, providers.ErrorRateLimited, true},
		{http.StatusBadGateway, providers.ErrorProviderOutage, true},
		{http.StatusServiceUnavailable, providers.ErrorProviderOutage, true},
		{http.StatusTeapot, providers.ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := a.Lookup(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.category, providers.GetCategory(err))
			assert.Equal(t, tt.retryable, providers.IsRetryable(err))
		})
	}
}

func TestHTTPAdapter_Timeout(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := a.Lookup(ctx, "x")
	assert.Equal(t, providers.ErrorTimeout, providers.GetCategory(err))
	assert.True(t, providers.IsRetryable(err))
}

func TestHTTPAdapter_Health(t *testing.T) {
	healthy := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, healthy.Health(context.Background()))

	down := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(down.Health(context.Background())))
}
