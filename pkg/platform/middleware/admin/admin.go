// Package admin guards operator endpoints.
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"wealthgate/pkg/platform/httputil"
	"wealthgate/pkg/requestcontext"
)

type contextKeyActorID struct{}

// ActorID returns the X-Admin-Actor-ID captured by RequireAdminToken, or "".
func ActorID(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyActorID{}).(string)
	return v
}

// RequireAdminToken rejects requests whose X-Admin-Token does not match
// expectedToken. An empty expectedToken rejects everything.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error:       "unauthorized",
					Description: "admin token required",
				})
				return
			}

			if actorID := r.Header.Get("X-Admin-Actor-ID"); actorID != "" {
				ctx = context.WithValue(ctx, contextKeyActorID{}, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Throttle limits admin calls per client IP, independent of the admission
// counters so an operator can always reach the reset endpoint. The key is the
// identity resolved by the metadata middleware.
func Throttle(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if ip := requestcontext.ClientIP(r.Context()); ip != "" {
				return ip, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:       "rate_limit_exceeded",
				Description: "too many admin requests",
			})
		}),
	)
}
