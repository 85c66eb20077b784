// Package service implements the wealth aggregation use cases: reading a
// stored profile and generating one from the registered signal providers.
//
// Generations for the same owner are collapsed in-process, so concurrent
// callers share one provider fan-out and one store write. Across processes
// the store upsert is last-writer-wins.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"wealthgate/internal/wealth/aggregator"
	"wealthgate/internal/wealth/metrics"
	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/ports"
	"wealthgate/internal/wealth/tracer"
	"wealthgate/pkg/domain"
	dErrors "wealthgate/pkg/domain-errors"
	"wealthgate/pkg/platform/sentinel"
	"wealthgate/pkg/requestcontext"
)

// Collector gathers provider observations for an owner.
type Collector interface {
	Collect(ctx context.Context, ownerID domain.OwnerID, ownerName string) (*aggregator.Result, error)
}

type persistMode int

const (
	persistUpsert persistMode = iota
	persistUpdate
)

func (m persistMode) String() string {
	if m == persistUpdate {
		return "regenerate"
	}
	return "generate"
}

// Service is safe for concurrent use.
type Service struct {
	store           ports.ProfileStore
	collector       Collector
	group           singleflight.Group
	generateTimeout time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tracer          tracer.Tracer
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithGenerateTimeout bounds a whole generation, fan-out and store write
// included. The default is 10s.
func WithGenerateTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.generateTimeout = d
		}
	}
}

func New(store ports.ProfileStore, collector Collector, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("profile store is required")
	}
	if collector == nil {
		return nil, errors.New("signal collector is required")
	}
	svc := &Service{
		store:           store,
		collector:       collector,
		generateTimeout: 10 * time.Second,
		logger:          slog.Default(),
		tracer:          tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GetProfile returns the stored profile for ownerID.
//
// Errors: not_found when no profile exists; store_unavailable when the store
// cannot be read.
func (s *Service) GetProfile(ctx context.Context, ownerID domain.OwnerID) (*models.WealthProfile, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner id is required")
	}
	p, err := s.store.Find(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordRead("miss")
			return nil, dErrors.New(dErrors.CodeNotFound, "wealth profile not found")
		}
		s.logger.ErrorContext(ctx, "failed to read wealth profile",
			"owner_id", ownerID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "wealth profile store unavailable")
	}
	s.recordRead("hit")
	return p, nil
}

// GenerateProfile builds a profile for ownerName and stores it under the id
// derived from the normalized name, replacing any earlier profile.
func (s *Service) GenerateProfile(ctx context.Context, ownerName string) (*models.WealthProfile, error) {
	name, err := normalizeOwnerName(ownerName)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, domain.DeriveOwnerID(name), name, persistUpsert)
}

// GenerateProfileFor is GenerateProfile for a caller-chosen owner id.
func (s *Service) GenerateProfileFor(ctx context.Context, ownerID domain.OwnerID, ownerName string) (*models.WealthProfile, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner id is required")
	}
	name, err := normalizeOwnerName(ownerName)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, ownerID, name, persistUpsert)
}

// RegenerateProfile replaces an existing profile with a fresh one. An empty
// ownerName reuses the stored name. The old profile stays readable until the
// new one is written.
func (s *Service) RegenerateProfile(ctx context.Context, ownerID domain.OwnerID, ownerName string) (*models.WealthProfile, error) {
	existing, err := s.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if ownerName == "" {
		ownerName = existing.OwnerName
	}
	name, err := normalizeOwnerName(ownerName)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, ownerID, name, persistUpdate)
}

func (s *Service) generate(ctx context.Context, ownerID domain.OwnerID, ownerName string, mode persistMode) (*models.WealthProfile, error) {
	key := mode.String() + ":" + ownerID.String()
	ch := s.group.DoChan(key, func() (any, error) {
		// Shared by every waiting caller, so one caller's cancellation must
		// not abort the others.
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.generateTimeout)
		defer cancel()
		return s.doGenerate(gctx, ownerID, ownerName, mode)
	})

	select {
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "wealth profile generation cancelled")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared && s.metrics != nil {
			s.metrics.IncrementSharedGenerate()
		}
		return res.Val.(*models.WealthProfile).Clone(), nil
	}
}

func (s *Service) doGenerate(ctx context.Context, ownerID domain.OwnerID, ownerName string, mode persistMode) (profile *models.WealthProfile, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanGenerate, tracer.String(tracer.AttrOwnerID, ownerID.String()))
	defer func() {
		span.End(err)
		if s.metrics != nil {
			outcome := "ok"
			if err != nil {
				outcome = string(dErrors.CodeOf(err))
			}
			s.metrics.ObserveGeneration(outcome, time.Since(start))
		}
	}()

	result, err := s.collector.Collect(ctx, ownerID, ownerName)
	if err != nil {
		s.logger.WarnContext(ctx, "wealth profile generation found no signal",
			"owner_id", ownerID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeNoSignal) {
			return nil, err
		}
		return nil, aggregator.NoSignalError(0, err)
	}

	est := aggregator.Combine(result.Observations, result.Expected)
	span.SetAttributes(tracer.Int(tracer.AttrScore, est.Score))

	profile, err = models.NewWealthProfile(models.ProfileParams{
		OwnerID:           ownerID,
		OwnerName:         ownerName,
		EstimatedNetWorth: est.NetWorth,
		ConfidenceScore:   est.Score,
		Sources:           est.Sources,
		Breakdown:         models.NewBreakdown(est.ByCategory),
		Trend:             est.Trend,
		Comparisons:       est.Comparisons,
		Properties:        est.Properties,
		GeneratedAt:       requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, profile, mode); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveConfidenceScore(profile.ConfidenceScore)
	}
	s.logger.InfoContext(ctx, "wealth profile generated",
		"owner_id", ownerID,
		"mode", mode.String(),
		"confidence", profile.Confidence,
		"confidence_score", profile.ConfidenceScore,
		"providers_responded", len(result.Observations),
		"providers_failed", len(result.Errors),
		"request_id", requestcontext.RequestID(ctx),
	)
	return profile, nil
}

func (s *Service) persist(ctx context.Context, p *models.WealthProfile, mode persistMode) error {
	var err error
	switch mode {
	case persistUpdate:
		err = s.store.Update(ctx, p.OwnerID, p)
	default:
		err = s.store.Upsert(ctx, p)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "wealth profile not found")
	}
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return err
	}
	s.logger.ErrorContext(ctx, "failed to store wealth profile",
		"owner_id", p.OwnerID,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "wealth profile store unavailable")
}

func (s *Service) recordRead(result string) {
	if s.metrics != nil {
		s.metrics.IncrementProfileRead(result)
	}
}

func normalizeOwnerName(ownerName string) (string, error) {
	req := models.GenerateProfileRequest{OwnerName: ownerName}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	return req.OwnerName, nil
}
