package pattern

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pattern-related errors.
var (
	ErrPatternNotFound  = errors.New("pattern not found")
	ErrEmptyID          = errors.New("pattern ID cannot be empty")
	ErrEmptyCategory    = errors.New("pattern category cannot be empty")
	ErrInvalidType      = errors.New("invalid pattern type")
	ErrNoStrategies     = errors.New("pattern needs at least one regex or example")
	ErrInvalidThreshold = errors.New("confidence threshold must be between 0.0 and 1.0")
	ErrNegativeRefine   = errors.New("auto-refine threshold cannot be negative")
)

// Type classifies what kind of sensitive data a pattern detects.
type Type string

const (
	// TypeIdentity covers personal identifiers (SSN, passport numbers, emails).
	TypeIdentity Type = "identity-data"

	// TypeFinancial covers payment and banking data (cards, IBANs, accounts).
	TypeFinancial Type = "financial-data"

	// TypeHealth covers medical identifiers and diagnosis codes.
	TypeHealth Type = "health-data"

	// TypeClassification covers document classification markings.
	TypeClassification Type = "classification-label"

	// TypeCustom covers operator-authored patterns outside the built-in taxonomy.
	TypeCustom Type = "custom"
)

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	switch t {
	case TypeIdentity, TypeFinancial, TypeHealth, TypeClassification, TypeCustom:
		return true
	}
	return false
}

// Pattern is a named sensitive-data detector.
//
// RegexSet is an ordered sequence; regexes are evaluated independently
// but order is preserved so first-match-wins semantics stay unambiguous
// if a future evaluator short-circuits. Examples and ExcludedExamples
// carry set semantics and are compared case-insensitively.
type Pattern struct {
	// ID is the stable identifier, unchanged across refinements.
	ID string `json:"id"`

	// Category is a free-form grouping label (e.g. "pii", "payments").
	Category string `json:"category"`

	// Type classifies the pattern within the closed type set.
	Type Type `json:"type"`

	// RegexSet holds regular-expression sources, compiled case-insensitively
	// at match time.
	RegexSet []string `json:"regex_set,omitempty"`

	// Examples are literal strings matched by case-insensitive substring search.
	Examples []string `json:"examples,omitempty"`

	// ExcludedExamples are literal strings that must never be reported as
	// matches, regardless of which strategy found them.
	ExcludedExamples []string `json:"excluded_examples,omitempty"`

	// ConfidenceThreshold suppresses matches scoring below it (0.0 - 1.0).
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// AutoRefineThreshold is the minimum negative feedback count before the
	// pattern becomes eligible for suggested refinement.
	AutoRefineThreshold int `json:"auto_refine_threshold"`

	// IsActive controls whether the pattern participates in matching.
	IsActive bool `json:"is_active"`

	// LastRefinedAt is set by the refinement applier, never implicitly.
	LastRefinedAt *time.Time `json:"last_refined_at,omitempty"`

	// CreatedAt is when the pattern was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the pattern was last saved.
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an active pattern with a generated UUID and default thresholds.
func New(category string, typ Type, regexSet, examples []string) (*Pattern, error) {
	now := time.Now()
	p := &Pattern{
		ID:                  uuid.New().String(),
		Category:            category,
		Type:                typ,
		RegexSet:            regexSet,
		Examples:            examples,
		ConfidenceThreshold: 0.5,
		AutoRefineThreshold: 5,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the pattern's fields.
func (p *Pattern) Validate() error {
	if p.ID == "" {
		return ErrEmptyID
	}
	if p.Category == "" {
		return ErrEmptyCategory
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if len(p.RegexSet) == 0 && len(p.Examples) == 0 {
		return ErrNoStrategies
	}
	if p.ConfidenceThreshold < 0.0 || p.ConfidenceThreshold > 1.0 {
		return ErrInvalidThreshold
	}
	if p.AutoRefineThreshold < 0 {
		return ErrNegativeRefine
	}
	return nil
}

// IsExcluded reports whether text equals one of the pattern's excluded
// examples, compared case-insensitively.
func (p *Pattern) IsExcluded(text string) bool {
	for _, ex := range p.ExcludedExamples {
		if strings.EqualFold(ex, text) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so registry callers cannot alias stored state.
func (p *Pattern) Clone() *Pattern {
	c := *p
	c.RegexSet = append([]string(nil), p.RegexSet...)
	c.Examples = append([]string(nil), p.Examples...)
	c.ExcludedExamples = append([]string(nil), p.ExcludedExamples...)
	if p.LastRefinedAt != nil {
		t := *p.LastRefinedAt
		c.LastRefinedAt = &t
	}
	return &c
}
