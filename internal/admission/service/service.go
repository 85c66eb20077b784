// Package service implements admission control: every checked request is
// counted against its operation's sliding-window policy.
//
// Usage:
//
//	svc, _ := service.New(counterStore, service.WithPolicyTable(table))
//	decision, err := svc.CheckLimit(ctx, models.OperationLogin, clientIP)
//	if err == nil && !decision.Allowed {
//	    // 429 with decision.RetryAfter
//	}
//
// When the counter store fails repeatedly a circuit breaker diverts checks to
// an in-process counter so limits keep applying per instance. Decisions made
// without the shared store are flagged Degraded.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"wealthgate/internal/admission/config"
	"wealthgate/internal/admission/metrics"
	"wealthgate/internal/admission/models"
	"wealthgate/internal/admission/ports"
	"wealthgate/internal/admission/store/counter"
	dErrors "wealthgate/pkg/domain-errors"
	"wealthgate/pkg/platform/circuit"
	"wealthgate/pkg/platform/privacy"
	"wealthgate/pkg/requestcontext"
)

// Service is safe for concurrent use.
type Service struct {
	table    *config.PolicyTable
	store    ports.CounterStore
	fallback ports.CounterStore
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPolicyTable replaces the default policy table.
func WithPolicyTable(t *config.PolicyTable) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithFallback sets the counter used while the breaker is open.
func WithFallback(store ports.CounterStore) Option {
	return func(s *Service) {
		s.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
	}
}

// New builds the service around the shared counter store. Without
// WithFallback an in-memory counter is used as the fallback.
func New(store ports.CounterStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	svc := &Service{
		table:   config.DefaultTable(),
		store:   store,
		breaker: circuit.New("counter-store"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.fallback == nil {
		svc.fallback = counter.NewInMemory()
	}
	return svc, nil
}

// CheckLimit counts one attempt for identifier under op and returns the
// verdict. The attempt is counted whether or not it is allowed.
//
// Errors: unknown_operation when op has no policy; store_unavailable together
// with a denying, degraded decision when a fail-closed policy cannot reach
// its counter.
func (s *Service) CheckLimit(ctx context.Context, op models.Operation, identifier string) (*models.Decision, error) {
	policy, err := s.table.Lookup(op)
	if err != nil {
		return nil, err
	}
	key := models.CounterKey(policy, identifier)
	now := requestcontext.Now(ctx)

	if !s.breaker.Allow() {
		return s.checkFallback(ctx, policy, key, now)
	}

	start := time.Now()
	wc, err := s.store.Increment(ctx, key, policy.Window)
	if s.metrics != nil {
		s.metrics.ObserveStoreLatency(string(op), time.Since(start).Seconds())
	}
	if err != nil {
		return s.handleStoreFailure(ctx, policy, key, identifier, now, err)
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "counter store circuit closed", "breaker", s.breaker.Name())
	}
	s.recordCircuitState()

	decision := models.NewDecision(policy, wc, now)
	s.recordDecision(ctx, decision, identifier)
	return decision, nil
}

func (s *Service) handleStoreFailure(ctx context.Context, policy models.Policy, key, identifier string, now time.Time, storeErr error) (*models.Decision, error) {
	if s.metrics != nil {
		s.metrics.IncrementStoreErrors(string(policy.Operation))
	}
	useFallback, change := s.breaker.RecordFailure()
	s.recordCircuitState()
	if change.Opened {
		s.logger.ErrorContext(ctx, "counter store circuit opened",
			"breaker", s.breaker.Name(),
			"error", storeErr,
		)
	}
	if useFallback {
		return s.checkFallback(ctx, policy, key, now)
	}

	s.logger.WarnContext(ctx, "counter store unavailable",
		"operation", policy.Operation,
		"fail_mode", policy.FailMode,
		"identifier_prefix", privacy.AnonymizeIP(identifier),
		"request_id", requestcontext.RequestID(ctx),
		"error", storeErr,
	)
	return s.failByPolicy(ctx, policy, now, storeErr)
}

// failByPolicy decides without any counter: fail-open allows, fail-closed
// denies and reports the store as unavailable.
func (s *Service) failByPolicy(ctx context.Context, policy models.Policy, now time.Time, cause error) (*models.Decision, error) {
	resetAt := now.Add(policy.Window)
	if policy.FailMode == models.FailOpen {
		d := &models.Decision{
			Operation: policy.Operation,
			Allowed:   true,
			Limit:     policy.MaxRequests,
			Remaining: policy.MaxRequests,
			ResetAt:   resetAt,
			Degraded:  true,
		}
		s.recordDecision(ctx, d, "")
		return d, nil
	}

	d := &models.Decision{
		Operation:  policy.Operation,
		Allowed:    false,
		Limit:      policy.MaxRequests,
		ResetAt:    resetAt,
		RetryAfter: models.RetryAfterSeconds(resetAt, now),
		Degraded:   true,
	}
	s.recordDecision(ctx, d, "")
	return d, dErrors.Wrap(cause, dErrors.CodeStoreUnavailable, "rate limit store unavailable")
}

func (s *Service) checkFallback(ctx context.Context, policy models.Policy, key string, now time.Time) (*models.Decision, error) {
	if s.metrics != nil {
		s.metrics.IncrementFallback(string(policy.Operation))
	}
	wc, err := s.fallback.Increment(ctx, key, policy.Window)
	if err != nil {
		return s.failByPolicy(ctx, policy, now, err)
	}
	d := models.NewDecision(policy, wc, now)
	d.Degraded = true
	s.recordDecision(ctx, d, "")
	return d, nil
}

// Status reports the current count for identifier without counting an attempt.
func (s *Service) Status(ctx context.Context, op models.Operation, identifier string) (*models.CounterStatus, error) {
	policy, err := s.table.Lookup(op)
	if err != nil {
		return nil, err
	}
	key := models.CounterKey(policy, identifier)

	store := s.store
	if s.breaker.IsOpen() {
		store = s.fallback
	}
	wc, err := store.Count(ctx, key, policy.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "rate limit store unavailable")
	}
	return &models.CounterStatus{
		Policy:     policy,
		Identifier: identifier,
		Count:      wc.Count,
		ResetAt:    wc.ResetAt,
	}, nil
}

// Reset clears identifier's counter in the shared store and the fallback.
func (s *Service) Reset(ctx context.Context, op models.Operation, identifier string) error {
	policy, err := s.table.Lookup(op)
	if err != nil {
		return err
	}
	key := models.CounterKey(policy, identifier)

	if err := s.fallback.Reset(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "reset fallback counter")
	}
	if err := s.store.Reset(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "rate limit store unavailable")
	}
	if s.metrics != nil {
		s.metrics.IncrementResets(string(op))
	}
	s.logger.InfoContext(ctx, "rate limit counter reset",
		"operation", op,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Policies exposes the active policy table.
func (s *Service) Policies() []models.Policy {
	return s.table.Policies()
}

func (s *Service) recordDecision(ctx context.Context, d *models.Decision, identifier string) {
	outcome := "allowed"
	if !d.Allowed {
		outcome = "denied"
	}
	if d.Degraded {
		outcome = "degraded_" + outcome
	}
	if s.metrics != nil {
		s.metrics.ObserveDecision(string(d.Operation), outcome)
	}
	if !d.Allowed && identifier != "" {
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"operation", d.Operation,
			"identifier_prefix", privacy.AnonymizeIP(identifier),
			"limit", d.Limit,
			"retry_after", d.RetryAfter,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) recordCircuitState() {
	if s.metrics != nil {
		s.metrics.SetCircuitState(int(s.breaker.State()))
	}
}
