package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/redactd/internal/feedback"
	"github.com/fyrsmithlabs/redactd/internal/match"
	"github.com/fyrsmithlabs/redactd/internal/pattern"
	"github.com/fyrsmithlabs/redactd/internal/refine"
)

func newTestService(t *testing.T) (Service, *pattern.InMemoryRegistry, *feedback.InMemoryStore) {
	t.Helper()
	registry := pattern.NewInMemoryRegistry()
	store := feedback.NewInMemoryStore()
	svc, err := NewService(nil, registry, store, zap.NewNop())
	require.NoError(t, err)
	return svc, registry, store
}

func savePattern(t *testing.T, registry pattern.Registry, category string, regexes, examples []string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.New(category, pattern.TypeIdentity, regexes, examples)
	require.NoError(t, err)
	saved, err := registry.Save(context.Background(), p)
	require.NoError(t, err)
	return saved
}

func TestNewService(t *testing.T) {
	t.Run("requires registry and store", func(t *testing.T) {
		_, err := NewService(nil, nil, feedback.NewInMemoryStore(), zap.NewNop())
		assert.Error(t, err)

		_, err = NewService(nil, pattern.NewInMemoryRegistry(), nil, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("nil config and logger use defaults", func(t *testing.T) {
		svc, err := NewService(nil, pattern.NewInMemoryRegistry(), feedback.NewInMemoryStore(), nil)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestService_Match(t *testing.T) {
	ctx := context.Background()

	t.Run("formatted SSN scenario", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		p := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)

		matches, err := svc.Match(ctx, "SSN: 123-45-6789 and 123456789")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "123-45-6789", matches[0].Text)
		assert.Equal(t, match.RegexConfidence, matches[0].Confidence)
		assert.Equal(t, p.ID, matches[0].PatternID)
	})

	t.Run("exclusion scenario returns zero results", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		p := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)
		p.ExcludedExamples = []string{"123-45-6789"}
		_, err := registry.Save(ctx, p)
		require.NoError(t, err)

		matches, err := svc.Match(ctx, "SSN: 123-45-6789 and 123456789")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("overlap between two patterns keeps the regex match", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		x := savePattern(t, registry, "phone", []string{`\d{3}-\d{4}`}, nil)
		savePattern(t, registry, "extension", nil, []string{"555-1234"})

		matches, err := svc.Match(ctx, "dial 555-1234 now")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, x.ID, matches[0].PatternID)
		assert.Equal(t, match.RegexConfidence, matches[0].Confidence)
	})

	t.Run("explicit pattern IDs restrict the pass", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		ssn := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)
		savePattern(t, registry, "markings", nil, []string{"CONFIDENTIAL"})

		matches, err := svc.Match(ctx, "CONFIDENTIAL 123-45-6789", ssn.ID)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, ssn.ID, matches[0].PatternID)
	})

	t.Run("unknown IDs in an explicit list are skipped", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		ssn := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)

		matches, err := svc.Match(ctx, "123-45-6789", ssn.ID, "no-such-pattern")
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("inactive patterns never match", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		p := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)
		p.IsActive = false
		_, err := registry.Save(ctx, p)
		require.NoError(t, err)

		matches, err := svc.Match(ctx, "123-45-6789")
		require.NoError(t, err)
		assert.Empty(t, matches)

		matches, err = svc.Match(ctx, "123-45-6789", p.ID)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("empty text is not an error", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		savePattern(t, registry, "ssn", []string{`\d+`}, nil)

		matches, err := svc.Match(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestService_SubmitFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("records against an existing pattern", func(t *testing.T) {
		svc, registry, store := newTestService(t)
		p := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)

		event, err := svc.SubmitFeedback(ctx, &SubmitFeedbackRequest{
			PatternID:          p.ID,
			Type:               feedback.Negative,
			MatchedText:        "123-45-6789",
			SurroundingContext: "SSN: 123-45-6789 and more",
			OriginalConfidence: 0.9,
			Reason:             feedback.ReasonTooBroad,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, event.ID)

		events, err := store.ListByPattern(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("unknown pattern writes nothing", func(t *testing.T) {
		svc, _, store := newTestService(t)

		_, err := svc.SubmitFeedback(ctx, &SubmitFeedbackRequest{
			PatternID:          "missing",
			Type:               feedback.Positive,
			MatchedText:        "text",
			OriginalConfidence: 0.9,
		})
		assert.ErrorIs(t, err, pattern.ErrPatternNotFound)

		events, err := store.ListByPattern(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestService_GetAccuracy(t *testing.T) {
	ctx := context.Background()
	svc, registry, _ := newTestService(t)
	p := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)

	t.Run("no feedback yields optimistic precision", func(t *testing.T) {
		m, err := svc.GetAccuracy(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, m.Precision)
	})

	t.Run("precision is recomputed from the event log", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := svc.SubmitFeedback(ctx, &SubmitFeedbackRequest{
				PatternID: p.ID, Type: feedback.Positive,
				MatchedText: "t", OriginalConfidence: 0.9,
			})
			require.NoError(t, err)
		}
		_, err := svc.SubmitFeedback(ctx, &SubmitFeedbackRequest{
			PatternID: p.ID, Type: feedback.Negative,
			MatchedText: "t", OriginalConfidence: 0.9,
			Reason: feedback.ReasonInvalidData,
		})
		require.NoError(t, err)

		m, err := svc.GetAccuracy(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, m.Positive)
		assert.Equal(t, 1, m.Negative)
		assert.Equal(t, 0.75, m.Precision)
	})

	t.Run("unknown pattern is not found", func(t *testing.T) {
		_, err := svc.GetAccuracy(ctx, "missing")
		assert.ErrorIs(t, err, pattern.ErrPatternNotFound)
	})
}

func TestService_RefinementLoop(t *testing.T) {
	ctx := context.Background()

	// Feedback loop scenario: 2 positive + 5 negative too_broad events
	// on a pattern with auto-refine threshold 3.
	setup := func(t *testing.T) (Service, *pattern.Pattern) {
		t.Helper()
		svc, registry, _ := newTestService(t)
		p := savePattern(t, registry, "ssn", []string{`\d{3}-\d{2}-\d{4}`}, nil)
		p.AutoRefineThreshold = 3
		_, err := registry.Save(ctx, p)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err := svc.SubmitFeedback(ctx, &SubmitFeedbackRequest{
				PatternID: p.ID, Type: feedback.Positive,
				MatchedText: "999-99-9999", OriginalConfidence: 0.9,
			})
			require.NoError(t, err)
		}
		for i := 0; i < 5; i++ {
			_, err := svc.SubmitFeedback(ctx, &SubmitFeedbackRequest{
				PatternID: p.ID, Type: feedback.Negative,
				MatchedText: "123-45-6789", OriginalConfidence: 0.9,
				Reason: feedback.ReasonTooBroad,
			})
			require.NoError(t, err)
		}
		return svc, p
	}

	t.Run("pattern becomes eligible and suggestion excludes the offender", func(t *testing.T) {
		svc, p := setup(t)

		needing, err := svc.ListPatternsNeedingRefinement(ctx, nil)
		require.NoError(t, err)
		require.Len(t, needing, 1)
		assert.Equal(t, p.ID, needing[0].Pattern.ID)
		assert.Equal(t, 5, needing[0].Metrics.Negative)

		suggestion, err := svc.SuggestRefinement(ctx, p.ID)
		require.NoError(t, err)
		assert.Contains(t, suggestion.ExcludePatterns, "123-45-6789")
		assert.NotEmpty(t, suggestion.Reasoning)
	})

	t.Run("applying the suggestion stops the false positive", func(t *testing.T) {
		svc, p := setup(t)

		suggestion, err := svc.SuggestRefinement(ctx, p.ID)
		require.NoError(t, err)

		refined, err := svc.ApplyRefinement(ctx, p.ID, *suggestion)
		require.NoError(t, err)
		assert.Contains(t, refined.ExcludedExamples, "123-45-6789")
		require.NotNil(t, refined.LastRefinedAt)

		matches, err := svc.Match(ctx, "SSN: 123-45-6789")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("feedback history survives refinement", func(t *testing.T) {
		svc, p := setup(t)

		suggestion, err := svc.SuggestRefinement(ctx, p.ID)
		require.NoError(t, err)
		_, err = svc.ApplyRefinement(ctx, p.ID, *suggestion)
		require.NoError(t, err)

		m, err := svc.GetAccuracy(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, m.Positive)
		assert.Equal(t, 5, m.Negative)
	})

	t.Run("floor override changes eligibility", func(t *testing.T) {
		svc, _ := setup(t)

		zero := 0.1 // precision 2/7 ~ 0.29 is above this floor
		needing, err := svc.ListPatternsNeedingRefinement(ctx, &zero)
		require.NoError(t, err)
		assert.Empty(t, needing)
	})

	t.Run("suggesting for a pattern without negatives fails", func(t *testing.T) {
		svc, registry, _ := newTestService(t)
		clean := savePattern(t, registry, "email", []string{`\S+@\S+`}, nil)

		_, err := svc.SuggestRefinement(ctx, clean.ID)
		assert.ErrorIs(t, err, refine.ErrNoNegativeFeedback)
	})
}
