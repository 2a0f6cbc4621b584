package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

func recordEvents(t *testing.T, s Store, patternID string, positive, negative int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < positive; i++ {
		_, err := s.Record(ctx, &Event{
			PatternID:          patternID,
			Type:               Positive,
			MatchedText:        "text",
			OriginalConfidence: 0.9,
		})
		require.NoError(t, err)
	}
	for i := 0; i < negative; i++ {
		_, err := s.Record(ctx, &Event{
			PatternID:          patternID,
			Type:               Negative,
			MatchedText:        "text",
			OriginalConfidence: 0.9,
			Reason:             ReasonTooBroad,
		})
		require.NoError(t, err)
	}
}

func TestCalculator_ComputeMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("no feedback defaults to precision 1.0", func(t *testing.T) {
		c := NewCalculator(NewInMemoryStore(), 0)
		m, err := c.ComputeMetrics(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 0, m.Positive)
		assert.Equal(t, 0, m.Negative)
		assert.Equal(t, 1.0, m.Precision)
	})

	t.Run("precision is positive over total", func(t *testing.T) {
		s := NewInMemoryStore()
		recordEvents(t, s, "p1", 3, 1)

		c := NewCalculator(s, 0)
		m, err := c.ComputeMetrics(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 3, m.Positive)
		assert.Equal(t, 1, m.Negative)
		assert.Equal(t, 0.75, m.Precision)
	})

	t.Run("recomputes after new events", func(t *testing.T) {
		s := NewInMemoryStore()
		c := NewCalculator(s, 0)

		recordEvents(t, s, "p1", 1, 0)
		m, err := c.ComputeMetrics(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 1.0, m.Precision)

		recordEvents(t, s, "p1", 0, 1)
		m, err = c.ComputeMetrics(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 0.5, m.Precision)
	})
}

func TestCalculator_NeedsRefinement(t *testing.T) {
	ctx := context.Background()

	newPattern := func(autoRefine int) *pattern.Pattern {
		p, err := pattern.New("ssn", pattern.TypeIdentity, []string{`\d+`}, nil)
		require.NoError(t, err)
		p.AutoRefineThreshold = autoRefine
		return p
	}

	t.Run("eligible when negatives cross threshold and precision is low", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newPattern(3)
		recordEvents(t, s, p.ID, 2, 5)

		c := NewCalculator(s, 0)
		eligible, m, err := c.NeedsRefinement(ctx, p)
		require.NoError(t, err)
		assert.True(t, eligible)
		assert.Equal(t, 5, m.Negative)
		assert.InDelta(t, 2.0/7.0, m.Precision, 1e-9)
	})

	t.Run("not eligible below the negative count threshold", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newPattern(10)
		recordEvents(t, s, p.ID, 0, 5)

		c := NewCalculator(s, 0)
		eligible, _, err := c.NeedsRefinement(ctx, p)
		require.NoError(t, err)
		assert.False(t, eligible)
	})

	t.Run("not eligible when precision stays above the floor", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newPattern(3)
		recordEvents(t, s, p.ID, 20, 3) // precision ~0.87

		c := NewCalculator(s, 0)
		eligible, _, err := c.NeedsRefinement(ctx, p)
		require.NoError(t, err)
		assert.False(t, eligible)
	})

	t.Run("per-call floor override", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newPattern(3)
		recordEvents(t, s, p.ID, 20, 3)

		c := NewCalculator(s, 0)
		eligible, _, err := c.NeedsRefinementWithFloor(ctx, p, 0.95)
		require.NoError(t, err)
		assert.True(t, eligible)
	})
}
