package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/providers"
	"wealthgate/pkg/domain"
)

const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPAdapter calls a wealth-signal service over JSON/HTTP:
//
//	POST {baseURL}/lookup  {"ownerName": "..."}
//	GET  {baseURL}/health
type HTTPAdapter struct {
	id       string
	baseURL  string
	apiKey   string
	category models.Category
	weight   float64
	client   HTTPDoer
}

type HTTPAdapterConfig struct {
	ID         string
	BaseURL    string
	APIKey     string
	Category   models.Category
	Weight     float64
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

func NewHTTPAdapter(cfg HTTPAdapterConfig) *HTTPAdapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Weight == 0 {
		cfg.Weight = 1
	}
	return &HTTPAdapter{
		id:       cfg.ID,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		category: cfg.Category,
		weight:   cfg.Weight,
		client:   selectHTTPClient(cfg),
	}
}

func selectHTTPClient(cfg HTTPAdapterConfig) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{
		Timeout: cfg.Timeout,
	}
}

func (a *HTTPAdapter) ID() string                { return a.id }
func (a *HTTPAdapter) Category() models.Category { return a.category }
func (a *HTTPAdapter) Weight() float64           { return a.weight }

type lookupRequest struct {
	OwnerName string `json:"ownerName"`
}

type lookupResponse struct {
	Estimate     decimal.Decimal `json:"estimate"`
	Reliability  float64         `json:"reliability"`
	Category     models.Category `json:"category"`
	LastUpdated  time.Time       `json:"lastUpdated"`
	AnnualChange *float64        `json:"annualChange,omitempty"`
	Area         *struct {
		Median  decimal.Decimal `json:"median"`
		Average decimal.Decimal `json:"average"`
	} `json:"area,omitempty"`
	Properties []struct {
		PropertyID     string          `json:"propertyId"`
		Address        string          `json:"address"`
		EstimatedValue decimal.Decimal `json:"estimatedValue"`
	} `json:"properties,omitempty"`
}

// Lookup fetches the owner's signal. Failures are returned as
// *providers.ProviderError with a normalized category.
func (a *HTTPAdapter) Lookup(ctx context.Context, ownerName string) (*providers.Signal, error) {
	body, err := json.Marshal(lookupRequest{OwnerName: ownerName})
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, a.id, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, a.id, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, providers.NewProviderError(providers.ErrorTimeout, a.id, "request timeout", err)
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, a.id, "failed to execute request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, a.id, "failed to read response", err)
	}

	if perr := a.classifyStatus(resp.StatusCode); perr != nil {
		return nil, perr
	}

	signal, err := a.parse(respBody)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, a.id, "failed to parse response", err)
	}
	return signal, nil
}

func (a *HTTPAdapter) classifyStatus(code int) *providers.ProviderError {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return providers.NewProviderError(providers.ErrorAuthentication, a.id, fmt.Sprintf("authentication failed: %d", code), nil)
	case code == http.StatusNotFound:
		return providers.NewProviderError(providers.ErrorNotFound, a.id, "owner not known to provider", nil)
	case code == http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ErrorRateLimited, a.id, "rate limit exceeded", nil)
	case code >= http.StatusInternalServerError:
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, fmt.Sprintf("provider unavailable: %d", code), nil)
	default:
		return providers.NewProviderError(providers.ErrorBadData, a.id, fmt.Sprintf("unexpected status: %d", code), nil)
	}
}

func (a *HTTPAdapter) parse(body []byte) (*providers.Signal, error) {
	var r lookupResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	category := r.Category
	if category == "" {
		category = a.category
	}
	if category != a.category {
		return nil, fmt.Errorf("category %q does not match configured %q", category, a.category)
	}

	signal := &providers.Signal{
		ProviderID:   a.id,
		Category:     category,
		Estimate:     r.Estimate,
		Reliability:  r.Reliability,
		LastUpdated:  r.LastUpdated,
		AnnualChange: r.AnnualChange,
	}
	if r.Area != nil {
		signal.Area = &providers.AreaStats{Median: r.Area.Median, Average: r.Area.Average}
	}
	for _, p := range r.Properties {
		id, err := domain.ParsePropertyID(p.PropertyID)
		if err != nil {
			return nil, err
		}
		signal.Properties = append(signal.Properties, models.PropertyRef{
			PropertyID:     id,
			Address:        p.Address,
			EstimatedValue: p.EstimatedValue,
		})
	}
	if err := signal.Validate(); err != nil {
		return nil, err
	}
	return signal, nil
}

func (a *HTTPAdapter) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, "health check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, fmt.Sprintf("unhealthy status: %d", resp.StatusCode), nil)
	}
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

var _ providers.Provider = (*HTTPAdapter)(nil)
