package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"wealthgate/internal/admission/models"
	"wealthgate/internal/admission/service"
	"wealthgate/internal/admission/store/counter"
	dErrors "wealthgate/pkg/domain-errors"
	"wealthgate/pkg/requestcontext"
)

type stubLimiter struct {
	decision *models.Decision
	err      error
	calls    []models.Operation
	idents   []string
}

func (l *stubLimiter) CheckLimit(_ context.Context, op models.Operation, identifier string) (*models.Decision, error) {
	l.calls = append(l.calls, op)
	l.idents = append(l.idents, identifier)
	return l.decision, l.err
}

type MiddlewareSuite struct {
	suite.Suite
	logger  *slog.Logger
	resetAt time.Time
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.resetAt = time.Unix(1_700_000_060, 0)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(method, path, ip string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test-agent"))
}

func (s *MiddlewareSuite) TestAllowedRequestCarriesQuotaHeaders() {
	limiter := &stubLimiter{decision: &models.Decision{Allowed: true, Limit: 100, Remaining: 99, ResetAt: s.resetAt}}
	var called bool
	rr := httptest.NewRecorder()

	New(limiter, s.logger).Admission(okHandler(&called)).ServeHTTP(rr, requestFrom(http.MethodGet, "/api/properties/42", "10.1.2.3"))

	s.True(called)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("100", rr.Header().Get(HeaderLimit))
	s.Equal("99", rr.Header().Get(HeaderRemaining))
	s.Equal("1700000060", rr.Header().Get(HeaderReset))
	s.Empty(rr.Header().Get(HeaderStatus))
	s.Equal([]string{"10.1.2.3"}, limiter.idents)
}

func (s *MiddlewareSuite) TestDeniedRequestShortCircuits() {
	limiter := &stubLimiter{decision: &models.Decision{Allowed: false, Limit: 30, Remaining: 0, ResetAt: s.resetAt, RetryAfter: 12}}
	var called bool
	rr := httptest.NewRecorder()

	New(limiter, s.logger).Admission(okHandler(&called)).ServeHTTP(rr, requestFrom(http.MethodGet, "/api/search/homes", "10.1.2.3"))

	s.False(called)
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal("12", rr.Header().Get(HeaderRetryAfter))
	s.Equal("0", rr.Header().Get(HeaderRemaining))

	var body models.RateLimitExceededResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
	s.Equal("rate_limit_exceeded", body.Error)
	s.Equal(12, body.RetryAfter)
}

func (s *MiddlewareSuite) TestDegradedDecisionIsFlagged() {
	limiter := &stubLimiter{decision: &models.Decision{Allowed: true, Limit: 30, Remaining: 30, ResetAt: s.resetAt, Degraded: true}}
	var called bool
	rr := httptest.NewRecorder()

	New(limiter, s.logger).Admission(okHandler(&called)).ServeHTTP(rr, requestFrom(http.MethodGet, "/api/search", "10.1.2.3"))

	s.True(called)
	s.Equal("degraded", rr.Header().Get(HeaderStatus))
}

func (s *MiddlewareSuite) TestFailClosedStoreFailure() {
	limiter := &stubLimiter{
		decision: &models.Decision{Allowed: false, Limit: 5, ResetAt: s.resetAt, RetryAfter: 60, Degraded: true},
		err:      dErrors.Wrap(errors.New("connection refused"), dErrors.CodeStoreUnavailable, "rate limit store unavailable"),
	}
	var called bool
	rr := httptest.NewRecorder()

	New(limiter, s.logger).Login()(okHandler(&called)).ServeHTTP(rr, requestFrom(http.MethodPost, "/login", "10.1.2.3"))

	s.False(called)
	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Equal("60", rr.Header().Get(HeaderRetryAfter))
	s.Equal("degraded", rr.Header().Get(HeaderStatus))
	s.NotContains(rr.Body.String(), "connection refused")
	s.Equal([]models.Operation{models.OperationLogin}, limiter.calls)
}

func (s *MiddlewareSuite) TestUnknownOperationIsBadRequest() {
	limiter := &stubLimiter{err: models.UnknownOperationError("upload")}
	var called bool
	rr := httptest.NewRecorder()

	New(limiter, s.logger).Limit("upload")(okHandler(&called)).ServeHTTP(rr, requestFrom(http.MethodGet, "/api/x", "10.1.2.3"))

	s.False(called)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *MiddlewareSuite) TestUnmatchedPathsBypassLimiter() {
	for _, path := range []string{"/api/auth/session", "/api/auth", "/health", "/"} {
		limiter := &stubLimiter{}
		var called bool
		rr := httptest.NewRecorder()

		New(limiter, s.logger).Admission(okHandler(&called)).ServeHTTP(rr, requestFrom(http.MethodGet, path, "10.1.2.3"))

		s.True(called, path)
		s.Empty(limiter.calls, path)
		s.Empty(rr.Header().Get(HeaderLimit), path)
	}
}

func (s *MiddlewareSuite) TestMissingClientIPUsesUnknownBucket() {
	limiter := &stubLimiter{decision: &models.Decision{Allowed: true, Limit: 100, Remaining: 99, ResetAt: s.resetAt}}
	var called bool

	New(limiter, s.logger).Admission(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))

	s.Equal([]string{"unknown"}, limiter.idents)
}

func TestResolveOperation(t *testing.T) {
	tests := []struct {
		path   string
		op     models.Operation
		routed bool
	}{
		{"/api/search", models.OperationSearch, true},
		{"/api/search/listings", models.OperationSearch, true},
		{"/api/searchable", models.OperationAPI, true},
		{"/api/export/csv", models.OperationExport, true},
		{"/api/properties/7", models.OperationAPI, true},
		{"/api/wealth-analysis/abc", models.OperationAPI, true},
		{"/api/integrations/maps", models.OperationAPI, true},
		{"/api", models.OperationAPI, true},
		{"/api/auth/login", "", false},
		{"/apiary", "", false},
		{"/admin/rate-limit/login/x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			op, routed := ResolveOperation(tt.path)
			assert.Equal(t, tt.routed, routed)
			assert.Equal(t, tt.op, op)
		})
	}
}

func TestLoginSequenceOverHTTP(t *testing.T) {
	svc, err := service.New(counter.NewInMemory(), service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	mw := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var called bool
	h := mw.Login()(okHandler(&called))
	for i, want := range []string{"4", "3", "2", "1", "0"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestFrom(http.MethodPost, "/login", "1.2.3.4"))
		require.Equal(t, http.StatusOK, rr.Code, "attempt %d", i+1)
		assert.Equal(t, want, rr.Header().Get(HeaderRemaining))
		assert.Equal(t, "5", rr.Header().Get(HeaderLimit))
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom(http.MethodPost, "/login", "1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(HeaderRetryAfter))

	// A different client has its own window.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom(http.MethodPost, "/login", "5.6.7.8"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
