// Package aggregator fans an owner lookup out to every registered wealth
// signal provider and combines whatever answers arrive.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"wealthgate/internal/wealth/metrics"
	"wealthgate/internal/wealth/providers"
	"wealthgate/internal/wealth/tracer"
	"wealthgate/pkg/domain"
	dErrors "wealthgate/pkg/domain-errors"
)

// BackoffConfig configures retries of retryable provider errors.
type BackoffConfig struct {
	InitialDelay time.Duration // default 100ms
	MaxDelay     time.Duration // default 2s
	MaxRetries   int           // default 2; negative disables retries
	Multiplier   float64       // default 2.0
}

type Config struct {
	Registry *providers.Registry
	Timeout  time.Duration // per provider attempt, default 3s
	Backoff  BackoffConfig
	Tracer   tracer.Tracer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Aggregator struct {
	registry *providers.Registry
	timeout  time.Duration
	backoff  BackoffConfig
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(cfg Config) *Aggregator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Backoff.InitialDelay == 0 {
		cfg.Backoff.InitialDelay = 100 * time.Millisecond
	}
	if cfg.Backoff.MaxDelay == 0 {
		cfg.Backoff.MaxDelay = 2 * time.Second
	}
	if cfg.Backoff.MaxRetries == 0 {
		cfg.Backoff.MaxRetries = 2
	}
	if cfg.Backoff.MaxRetries < 0 {
		cfg.Backoff.MaxRetries = 0
	}
	if cfg.Backoff.Multiplier == 0 {
		cfg.Backoff.Multiplier = 2.0
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = providers.NewRegistry()
	}
	return &Aggregator{
		registry: cfg.Registry,
		timeout:  cfg.Timeout,
		backoff:  cfg.Backoff,
		tracer:   cfg.Tracer,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Result holds the successful observations and the per-provider failures of
// one fan-out.
type Result struct {
	Observations []Observation
	Errors       map[string]error
	Expected     int
}

// NoSignalError reports that no provider produced a usable signal.
func NoSignalError(expected int, cause error) error {
	msg := "no wealth signal available"
	if expected > 0 {
		msg = fmt.Sprintf("no wealth signal available: 0 of %d providers responded", expected)
	}
	return dErrors.Wrap(cause, dErrors.CodeNoSignal, msg)
}

// Collect queries all providers concurrently. Individual failures are
// recorded in Result.Errors; the call fails with no_signal only when nothing
// responded.
func (a *Aggregator) Collect(ctx context.Context, ownerID domain.OwnerID, ownerName string) (result *Result, err error) {
	all := a.registry.All()
	ctx, span := a.tracer.Start(ctx, tracer.SpanFanOut,
		tracer.String(tracer.AttrOwnerID, ownerID.String()),
		tracer.Int(tracer.AttrExpected, len(all)),
	)
	defer func() { span.End(err) }()

	if len(all) == 0 {
		return nil, NoSignalError(0, nil)
	}

	type outcome struct {
		signal *providers.Signal
		err    error
	}
	outcomes := make([]outcome, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range all {
		g.Go(func() error {
			// Each goroutine owns outcomes[i]; failures never cancel siblings.
			s, lerr := a.lookup(gctx, p, ownerID, ownerName)
			outcomes[i] = outcome{signal: s, err: lerr}
			return nil
		})
	}
	_ = g.Wait()

	result = &Result{
		Errors:   make(map[string]error),
		Expected: len(all),
	}
	var errs []error
	for i, p := range all {
		o := outcomes[i]
		if o.err != nil {
			result.Errors[p.ID()] = o.err
			errs = append(errs, o.err)
			continue
		}
		result.Observations = append(result.Observations, Observation{
			ProviderID: p.ID(),
			Weight:     p.Weight(),
			Signal:     o.signal,
		})
	}
	span.SetAttributes(tracer.Int(tracer.AttrResponders, len(result.Observations)))

	if len(result.Observations) == 0 {
		return result, NoSignalError(len(all), errors.Join(errs...))
	}
	return result, nil
}

// lookup calls one provider with a per-attempt timeout and exponential
// backoff on retryable errors.
func (a *Aggregator) lookup(ctx context.Context, p providers.Provider, ownerID domain.OwnerID, ownerName string) (signal *providers.Signal, err error) {
	ctx, span := a.tracer.Start(ctx, tracer.SpanProviderLookup,
		tracer.String(tracer.AttrProviderID, p.ID()),
		tracer.String(tracer.AttrCategory, string(p.Category())),
	)
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(providers.GetCategory(err))
			span.SetAttributes(tracer.String(tracer.AttrErrorCategory, outcome))
			a.logger.WarnContext(ctx, "wealth provider lookup failed",
				"provider", p.ID(),
				"owner_id", ownerID,
				"error_category", outcome,
				"error", err,
			)
		}
		if a.metrics != nil {
			a.metrics.ObserveProviderLookup(p.ID(), outcome, time.Since(start))
		}
		span.End(err)
	}()

	delay := a.backoff.InitialDelay
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			span.AddEvent(tracer.EventRetry, tracer.Int(tracer.AttrAttempt, attempt))
			if a.metrics != nil {
				a.metrics.IncrementProviderRetry(p.ID())
			}
			if werr := sleep(ctx, delay); werr != nil {
				return nil, providers.NewProviderError(providers.ErrorTimeout, p.ID(), "gave up waiting to retry", werr)
			}
			delay = min(time.Duration(float64(delay)*a.backoff.Multiplier), a.backoff.MaxDelay)
		}

		signal, err = a.attempt(ctx, p, ownerName)
		if err == nil {
			return signal, nil
		}
		if !providers.IsRetryable(err) || attempt >= a.backoff.MaxRetries {
			return nil, err
		}
	}
}

func (a *Aggregator) attempt(ctx context.Context, p providers.Provider, ownerName string) (*providers.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	signal, err := p.Lookup(ctx, ownerName)
	if err != nil {
		var pe *providers.ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, providers.NewProviderError(providers.ErrorTimeout, p.ID(), "request timeout", err)
		}
		return nil, providers.NewProviderError(providers.ErrorInternal, p.ID(), "lookup failed", err)
	}
	if signal == nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.ID(), "empty signal", nil)
	}
	if signal.Category != p.Category() {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.ID(),
			fmt.Sprintf("signal category %q does not match provider category %q", signal.Category, p.Category()), nil)
	}
	if verr := signal.Validate(); verr != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.ID(), "invalid signal", verr)
	}
	return signal, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HealthCheck reports each provider's health by ID.
func (a *Aggregator) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, p := range a.registry.All() {
		results[p.ID()] = p.Health(ctx)
	}
	return results
}

// Expected is the number of registered providers.
func (a *Aggregator) Expected() int {
	return a.registry.Len()
}
