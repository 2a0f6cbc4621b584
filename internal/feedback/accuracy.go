package feedback

import (
	"context"

	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

// DefaultPrecisionFloor is the precision below which a pattern becomes
// eligible for refinement. Global, not per pattern.
const DefaultPrecisionFloor = 0.7

// Metrics holds per-pattern accuracy derived from the feedback log.
type Metrics struct {
	// Positive is the count of positive events.
	Positive int `json:"positive"`

	// Negative is the count of negative events.
	Negative int `json:"negative"`

	// Precision is positive / (positive + negative). With no feedback
	// it defaults to 1.0: no negative evidence yet, the pattern is
	// assumed acceptable.
	Precision float64 `json:"precision"`
}

// Calculator derives accuracy metrics by re-aggregating the event log
// on every read. This trades read cost for correctness under
// concurrent feedback submission.
type Calculator struct {
	store          Store
	precisionFloor float64
}

// NewCalculator creates a calculator over the store. A precisionFloor
// of zero selects DefaultPrecisionFloor.
func NewCalculator(store Store, precisionFloor float64) *Calculator {
	if precisionFloor == 0 {
		precisionFloor = DefaultPrecisionFloor
	}
	return &Calculator{
		store:          store,
		precisionFloor: precisionFloor,
	}
}

// ComputeMetrics aggregates the full feedback history for the pattern.
func (c *Calculator) ComputeMetrics(ctx context.Context, patternID string) (*Metrics, error) {
	events, err := c.store.ListByPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}

	m := &Metrics{Precision: 1.0}
	for _, e := range events {
		switch e.Type {
		case Positive:
			m.Positive++
		case Negative:
			m.Negative++
		}
	}
	if total := m.Positive + m.Negative; total > 0 {
		m.Precision = float64(m.Positive) / float64(total)
	}
	return m, nil
}

// NeedsRefinement reports whether the pattern has accumulated enough
// negative evidence to be eligible for suggested refinement.
func (c *Calculator) NeedsRefinement(ctx context.Context, p *pattern.Pattern) (bool, *Metrics, error) {
	return c.needsRefinement(ctx, p, c.precisionFloor)
}

// NeedsRefinementWithFloor is NeedsRefinement with a per-call precision
// floor override.
func (c *Calculator) NeedsRefinementWithFloor(ctx context.Context, p *pattern.Pattern, floor float64) (bool, *Metrics, error) {
	return c.needsRefinement(ctx, p, floor)
}

func (c *Calculator) needsRefinement(ctx context.Context, p *pattern.Pattern, floor float64) (bool, *Metrics, error) {
	m, err := c.ComputeMetrics(ctx, p.ID)
	if err != nil {
		return false, nil, err
	}
	eligible := m.Negative >= p.AutoRefineThreshold && m.Precision < floor
	return eligible, m, nil
}
