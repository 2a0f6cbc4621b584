package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/redactd/internal/feedback"
	"github.com/fyrsmithlabs/redactd/internal/match"
	"github.com/fyrsmithlabs/redactd/internal/pattern"
	"github.com/fyrsmithlabs/redactd/internal/refine"
)

const instrumentationName = "github.com/fyrsmithlabs/redactd/internal/engine"

// Service exposes the engine's logical operations to calling services.
type Service interface {
	// Match locates sensitive-data spans in text. With no pattern IDs
	// it uses all active patterns; explicit unknown or inactive IDs
	// are skipped with a warning rather than failing the pass.
	Match(ctx context.Context, text string, patternIDs ...string) ([]match.Match, error)

	// SubmitFeedback records a human judgment about one match.
	SubmitFeedback(ctx context.Context, req *SubmitFeedbackRequest) (*feedback.Event, error)

	// GetAccuracy aggregates the pattern's full feedback history.
	GetAccuracy(ctx context.Context, patternID string) (*feedback.Metrics, error)

	// ListPatternsNeedingRefinement returns active patterns whose
	// negative feedback crosses their auto-refine threshold while
	// precision sits below the floor. A nil override uses the
	// configured floor.
	ListPatternsNeedingRefinement(ctx context.Context, floorOverride *float64) ([]*PatternAccuracy, error)

	// SuggestRefinement derives a proposed edit from the pattern's
	// negative feedback.
	SuggestRefinement(ctx context.Context, patternID string) (*refine.Suggestion, error)

	// ApplyRefinement commits a reviewed suggestion into the registry.
	ApplyRefinement(ctx context.Context, patternID string, s refine.Suggestion) (*pattern.Pattern, error)

	// Registry exposes pattern CRUD to the transport layer.
	Registry() pattern.Registry
}

// SubmitFeedbackRequest carries one feedback submission.
type SubmitFeedbackRequest struct {
	PatternID          string          `json:"pattern_id"`
	Type               feedback.Type   `json:"type"`
	MatchedText        string          `json:"matched_text"`
	SurroundingContext string          `json:"surrounding_context,omitempty"`
	OriginalConfidence float64         `json:"original_confidence"`
	Reason             feedback.Reason `json:"reason,omitempty"`
}

// PatternAccuracy pairs a pattern with its computed metrics.
type PatternAccuracy struct {
	Pattern *pattern.Pattern  `json:"pattern"`
	Metrics *feedback.Metrics `json:"metrics"`
}

// Config configures the engine service.
type Config struct {
	// PrecisionFloor is the global refinement-eligibility precision
	// threshold (default: feedback.DefaultPrecisionFloor).
	PrecisionFloor float64

	// Matcher configures the matcher; nil uses match.DefaultConfig.
	Matcher *match.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PrecisionFloor: feedback.DefaultPrecisionFloor,
		Matcher:        match.DefaultConfig(),
	}
}

// service implements the Service interface.
type service struct {
	config     *Config
	registry   pattern.Registry
	store      feedback.Store
	matcher    *match.Matcher
	calculator *feedback.Calculator
	suggester  *refine.Suggester
	applier    *refine.Applier
	logger     *zap.Logger

	// Telemetry
	tracer            trace.Tracer
	meter             metric.Meter
	matchCounter      metric.Int64Counter
	feedbackCounter   metric.Int64Counter
	refinementCounter metric.Int64Counter
}

// NewService creates the engine service.
func NewService(cfg *Config, registry pattern.Registry, store feedback.Store, logger *zap.Logger) (Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		return nil, errors.New("pattern registry is required")
	}
	if store == nil {
		return nil, errors.New("feedback store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	applier, err := refine.NewApplier(registry, logger)
	if err != nil {
		return nil, err
	}

	s := &service{
		config:     cfg,
		registry:   registry,
		store:      store,
		matcher:    match.New(cfg.Matcher, logger),
		calculator: feedback.NewCalculator(store, cfg.PrecisionFloor),
		suggester:  refine.NewSuggester(logger),
		applier:    applier,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		meter:      otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *service) initMetrics() {
	var err error

	s.matchCounter, err = s.meter.Int64Counter(
		"redactd.engine.matches_total",
		metric.WithDescription("Total matches returned across matching passes"),
		metric.WithUnit("{match}"),
	)
	if err != nil {
		s.logger.Warn("failed to create match counter", zap.Error(err))
	}

	s.feedbackCounter, err = s.meter.Int64Counter(
		"redactd.engine.feedback_total",
		metric.WithDescription("Total feedback events recorded"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		s.logger.Warn("failed to create feedback counter", zap.Error(err))
	}

	s.refinementCounter, err = s.meter.Int64Counter(
		"redactd.engine.refinements_total",
		metric.WithDescription("Total refinements applied to patterns"),
		metric.WithUnit("{refinement}"),
	)
	if err != nil {
		s.logger.Warn("failed to create refinement counter", zap.Error(err))
	}
}

// Match locates sensitive-data spans in text.
func (s *service) Match(ctx context.Context, text string, patternIDs ...string) ([]match.Match, error) {
	ctx, span := s.tracer.Start(ctx, "engine.match")
	defer span.End()
	span.SetAttributes(
		attribute.Int("text_bytes", len(text)),
		attribute.Int("requested_patterns", len(patternIDs)),
	)

	patterns, err := s.resolvePatterns(ctx, patternIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	matches := s.matcher.Match(text, patterns)

	if s.matchCounter != nil {
		s.matchCounter.Add(ctx, int64(len(matches)))
	}
	span.SetAttributes(attribute.Int("match_count", len(matches)))
	return matches, nil
}

// resolvePatterns loads the requested patterns, or all active ones
// when no IDs are given. Unknown and inactive IDs are skipped; a
// data-quality issue must not fail the whole pass.
func (s *service) resolvePatterns(ctx context.Context, patternIDs []string) ([]*pattern.Pattern, error) {
	if len(patternIDs) == 0 {
		return s.registry.ListActive(ctx)
	}

	patterns := make([]*pattern.Pattern, 0, len(patternIDs))
	for _, id := range patternIDs {
		p, err := s.registry.Get(ctx, id)
		if errors.Is(err, pattern.ErrPatternNotFound) {
			s.logger.Warn("skipping unknown pattern in match request", zap.String("pattern_id", id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load pattern %s: %w", id, err)
		}
		if !p.IsActive {
			s.logger.Warn("skipping inactive pattern in match request", zap.String("pattern_id", id))
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// SubmitFeedback records a human judgment about one match.
func (s *service) SubmitFeedback(ctx context.Context, req *SubmitFeedbackRequest) (*feedback.Event, error) {
	ctx, span := s.tracer.Start(ctx, "engine.submit_feedback")
	defer span.End()
	span.SetAttributes(
		attribute.String("pattern_id", req.PatternID),
		attribute.String("feedback_type", string(req.Type)),
	)

	// The pattern must exist before anything is written.
	if _, err := s.registry.Get(ctx, req.PatternID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	event, err := s.store.Record(ctx, &feedback.Event{
		PatternID:          req.PatternID,
		Type:               req.Type,
		MatchedText:        req.MatchedText,
		SurroundingContext: req.SurroundingContext,
		OriginalConfidence: req.OriginalConfidence,
		Reason:             req.Reason,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.feedbackCounter != nil {
		s.feedbackCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", string(req.Type)),
		))
	}

	s.logger.Info("recorded feedback",
		zap.String("event_id", event.ID),
		zap.String("pattern_id", event.PatternID),
		zap.String("type", string(event.Type)),
	)
	return event, nil
}

// GetAccuracy aggregates the pattern's full feedback history.
func (s *service) GetAccuracy(ctx context.Context, patternID string) (*feedback.Metrics, error) {
	ctx, span := s.tracer.Start(ctx, "engine.get_accuracy")
	defer span.End()
	span.SetAttributes(attribute.String("pattern_id", patternID))

	if _, err := s.registry.Get(ctx, patternID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.calculator.ComputeMetrics(ctx, patternID)
}

// ListPatternsNeedingRefinement returns eligible patterns with metrics.
func (s *service) ListPatternsNeedingRefinement(ctx context.Context, floorOverride *float64) ([]*PatternAccuracy, error) {
	ctx, span := s.tracer.Start(ctx, "engine.list_needing_refinement")
	defer span.End()

	floor := s.config.PrecisionFloor
	if floorOverride != nil {
		floor = *floorOverride
	}
	span.SetAttributes(attribute.Float64("precision_floor", floor))

	patterns, err := s.registry.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := make([]*PatternAccuracy, 0)
	for _, p := range patterns {
		eligible, metrics, err := s.calculator.NeedsRefinementWithFloor(ctx, p, floor)
		if err != nil {
			return nil, fmt.Errorf("compute metrics for %s: %w", p.ID, err)
		}
		if eligible {
			result = append(result, &PatternAccuracy{Pattern: p, Metrics: metrics})
		}
	}

	span.SetAttributes(attribute.Int("eligible_count", len(result)))
	return result, nil
}

// SuggestRefinement derives a proposed edit from negative feedback.
func (s *service) SuggestRefinement(ctx context.Context, patternID string) (*refine.Suggestion, error) {
	ctx, span := s.tracer.Start(ctx, "engine.suggest_refinement")
	defer span.End()
	span.SetAttributes(attribute.String("pattern_id", patternID))

	p, err := s.registry.Get(ctx, patternID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	events, err := s.store.ListByPattern(ctx, patternID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return s.suggester.Suggest(p, events)
}

// ApplyRefinement commits a reviewed suggestion into the registry.
func (s *service) ApplyRefinement(ctx context.Context, patternID string, suggestion refine.Suggestion) (*pattern.Pattern, error) {
	ctx, span := s.tracer.Start(ctx, "engine.apply_refinement")
	defer span.End()
	span.SetAttributes(attribute.String("pattern_id", patternID))

	refined, err := s.applier.Apply(ctx, patternID, suggestion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.refinementCounter != nil {
		s.refinementCounter.Add(ctx, 1)
	}
	return refined, nil
}

// Registry exposes pattern CRUD to the transport layer.
func (s *service) Registry() pattern.Registry {
	return s.registry
}

// Compile-time check that service implements Service.
var _ Service = (*service)(nil)
