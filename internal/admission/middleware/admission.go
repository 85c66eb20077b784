// Package middleware applies admission control to inbound HTTP requests.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"wealthgate/internal/admission/models"
	dErrors "wealthgate/pkg/domain-errors"
	"wealthgate/pkg/platform/httputil"
	"wealthgate/pkg/platform/privacy"
	"wealthgate/pkg/requestcontext"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderStatus     = "X-RateLimit-Status"
	HeaderRetryAfter = "Retry-After"
)

type Limiter interface {
	CheckLimit(ctx context.Context, op models.Operation, identifier string) (*models.Decision, error)
}

type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
}

func New(limiter Limiter, logger *slog.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger,
	}
}

// ResolveOperation maps a request path to its policy. Paths outside /api and
// the /api/auth subtree are not admission-controlled.
func ResolveOperation(path string) (models.Operation, bool) {
	switch {
	case !hasSegmentPrefix(path, "/api"):
		return "", false
	case hasSegmentPrefix(path, "/api/auth"):
		return "", false
	case hasSegmentPrefix(path, "/api/search"):
		return models.OperationSearch, true
	case hasSegmentPrefix(path, "/api/export"):
		return models.OperationExport, true
	default:
		return models.OperationAPI, true
	}
}

// hasSegmentPrefix reports whether path equals prefix or continues it with a
// new segment, so "/api/searchable" does not match "/api/search".
func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Admission checks every request against the policy resolved from its path.
func (m *Middleware) Admission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, ok := ResolveOperation(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		m.enforce(op, next, w, r)
	})
}

// Limit checks every request against op regardless of path. The login route
// group uses it with models.OperationLogin.
func (m *Middleware) Limit(op models.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.enforce(op, next, w, r)
		})
	}
}

// Login is Limit(models.OperationLogin).
func (m *Middleware) Login() func(http.Handler) http.Handler {
	return m.Limit(models.OperationLogin)
}

func (m *Middleware) enforce(op models.Operation, next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := requestcontext.ClientIP(ctx)
	if ip == "" {
		ip = "unknown"
	}

	decision, err := m.limiter.CheckLimit(ctx, op, ip)
	if err != nil {
		m.writeCheckFailure(ctx, w, op, ip, decision, err)
		return
	}

	addRateLimitHeaders(w, decision)
	if !decision.Allowed {
		writeRateLimitExceeded(w, decision)
		return
	}
	next.ServeHTTP(w, r)
}

// writeCheckFailure answers when the limiter returned an error. A fail-closed
// policy with an unreachable store still carries its quota headers and a
// Retry-After; the body stays generic.
func (m *Middleware) writeCheckFailure(ctx context.Context, w http.ResponseWriter, op models.Operation, ip string, decision *models.Decision, err error) {
	m.logger.ErrorContext(ctx, "admission check failed",
		"operation", op,
		"ip_prefix", privacy.AnonymizeIP(ip),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	if decision != nil {
		addRateLimitHeaders(w, decision)
		if decision.RetryAfter > 0 {
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(decision.RetryAfter))
		}
	}
	httputil.WriteError(w, err)
}

func addRateLimitHeaders(w http.ResponseWriter, d *models.Decision) {
	if d == nil {
		return
	}
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	if d.Degraded {
		h.Set(HeaderStatus, "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, d *models.Decision) {
	w.Header().Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      string(dErrors.CodeRateLimitExceeded),
		Message:    "Too many requests. Please try again later.",
		RetryAfter: d.RetryAfter,
	})
}
