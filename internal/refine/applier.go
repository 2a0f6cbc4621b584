package refine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

// Applier validates and commits refinement suggestions into the
// pattern registry.
type Applier struct {
	registry pattern.Registry
	logger   *zap.Logger
}

// NewApplier creates an applier over the registry.
func NewApplier(registry pattern.Registry, logger *zap.Logger) (*Applier, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{
		registry: registry,
		logger:   logger,
	}, nil
}

// Apply merges the suggestion into the pattern and persists it.
//
// The merge is all-or-nothing: validation failures leave the stored
// pattern untouched. Feedback history is never deleted or reset; the
// audit record survives even though the pattern's behavior changes
// going forward. Concurrent applies against the same pattern are not
// coordinated here; callers serialize refinement review per pattern.
func (a *Applier) Apply(ctx context.Context, patternID string, s Suggestion) (*pattern.Pattern, error) {
	if !s.ProposesChange() {
		return nil, ErrEmptySuggestion
	}
	if s.ConfidenceAdjustment != nil {
		if v := *s.ConfidenceAdjustment; v < 0.0 || v > 1.0 {
			return nil, ErrInvalidAdjustment
		}
	}

	p, err := a.registry.Get(ctx, patternID)
	if err != nil {
		return nil, err
	}

	added := mergeExclusions(p, s.ExcludePatterns)
	if s.ConfidenceAdjustment != nil {
		p.ConfidenceThreshold = *s.ConfidenceAdjustment
	}
	now := time.Now()
	p.LastRefinedAt = &now

	saved, err := a.registry.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("persist refined pattern: %w", err)
	}

	a.logger.Info("applied refinement",
		zap.String("pattern_id", patternID),
		zap.Int("exclusions_added", added),
		zap.Bool("threshold_changed", s.ConfidenceAdjustment != nil),
	)
	return saved, nil
}

// mergeExclusions set-unions the proposed exclusions into the pattern,
// comparing case-insensitively and preserving existing order. Returns
// the number of entries actually added.
func mergeExclusions(p *pattern.Pattern, exclusions []string) int {
	existing := make(map[string]struct{}, len(p.ExcludedExamples))
	for _, ex := range p.ExcludedExamples {
		existing[strings.ToLower(ex)] = struct{}{}
	}

	added := 0
	for _, ex := range exclusions {
		key := strings.ToLower(ex)
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = struct{}{}
		p.ExcludedExamples = append(p.ExcludedExamples, ex)
		added++
	}
	return added
}
