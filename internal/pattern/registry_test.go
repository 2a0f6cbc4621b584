package pattern

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPattern(t *testing.T, category string) *Pattern {
	t.Helper()
	p, err := New(category, TypeIdentity, []string{`\d{3}-\d{2}-\d{4}`}, nil)
	require.NoError(t, err)
	return p
}

func TestInMemoryRegistry_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRegistry()

	t.Run("round-trips a pattern", func(t *testing.T) {
		p := newTestPattern(t, "ssn")
		saved, err := r.Save(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, p.ID, saved.ID)

		got, err := r.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "ssn", got.Category)
		assert.Equal(t, p.RegexSet, got.RegexSet)
	})

	t.Run("get unknown ID returns not found", func(t *testing.T) {
		_, err := r.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})

	t.Run("save rejects invalid pattern", func(t *testing.T) {
		p := newTestPattern(t, "ssn")
		p.Category = ""
		_, err := r.Save(ctx, p)
		assert.ErrorIs(t, err, ErrEmptyCategory)
	})

	t.Run("upsert preserves creation time", func(t *testing.T) {
		p := newTestPattern(t, "email")
		first, err := r.Save(ctx, p)
		require.NoError(t, err)

		first.Category = "email-updated"
		second, err := r.Save(ctx, first)
		require.NoError(t, err)

		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.Equal(t, "email-updated", second.Category)
	})

	t.Run("returned copies do not alias stored state", func(t *testing.T) {
		p := newTestPattern(t, "phone")
		saved, err := r.Save(ctx, p)
		require.NoError(t, err)

		saved.RegexSet[0] = "mutated"

		got, err := r.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, `\d{3}-\d{2}-\d{4}`, got.RegexSet[0])
	})
}

func TestInMemoryRegistry_ListActive(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRegistry()

	a := newTestPattern(t, "a")
	b := newTestPattern(t, "b")
	inactive := newTestPattern(t, "inactive")
	inactive.IsActive = false

	for _, p := range []*Pattern{a, b, inactive} {
		_, err := r.Save(ctx, p)
		require.NoError(t, err)
	}

	active, err := r.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, p := range active {
		assert.True(t, p.IsActive)
		assert.NotEqual(t, "inactive", p.Category)
	}
}

func TestInMemoryRegistry_Delete(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRegistry()

	p := newTestPattern(t, "ssn")
	_, err := r.Save(ctx, p)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, p.ID))

	_, err = r.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPatternNotFound)

	assert.ErrorIs(t, r.Delete(ctx, p.ID), ErrPatternNotFound)
}
