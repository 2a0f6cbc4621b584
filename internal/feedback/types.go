package feedback

import (
	"errors"
	"time"
)

// Feedback-related errors.
var (
	ErrEmptyPatternID    = errors.New("pattern ID cannot be empty")
	ErrEmptyMatchedText  = errors.New("matched text cannot be empty")
	ErrInvalidType       = errors.New("feedback type must be 'positive' or 'negative'")
	ErrInvalidReason     = errors.New("invalid reason code")
	ErrReasonRequired    = errors.New("negative feedback requires a reason code")
	ErrReasonNotAllowed  = errors.New("positive feedback cannot carry a reason code")
	ErrInvalidConfidence = errors.New("original confidence must be between 0.0 and 1.0")
)

// Type is the polarity of a feedback event.
type Type string

const (
	// Positive confirms the match was a true detection.
	Positive Type = "positive"

	// Negative marks the match as a false positive.
	Negative Type = "negative"
)

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	return t == Positive || t == Negative
}

// Reason explains why a match was judged a false positive. The set is
// closed; the refinement suggester dispatches on it.
type Reason string

const (
	// ReasonWrongFormat means the span has the wrong structure for the data type.
	ReasonWrongFormat Reason = "wrong_format"

	// ReasonMissingContext means the span alone is ambiguous without surrounding text.
	ReasonMissingContext Reason = "missing_context"

	// ReasonInvalidData means the span is structurally plausible but not real data.
	ReasonInvalidData Reason = "invalid_data"

	// ReasonNotSensitive means the span is real data but not sensitive in context.
	ReasonNotSensitive Reason = "not_sensitive"

	// ReasonTooBroad means the pattern matches far more than intended.
	ReasonTooBroad Reason = "too_broad"
)

// Valid reports whether r is a member of the closed reason set.
func (r Reason) Valid() bool {
	switch r {
	case ReasonWrongFormat, ReasonMissingContext, ReasonInvalidData, ReasonNotSensitive, ReasonTooBroad:
		return true
	}
	return false
}

// Event is an immutable record of one human judgment about a match.
type Event struct {
	// ID is the unique event identifier, assigned by the store.
	ID string `json:"id"`

	// PatternID is the pattern the judged match came from.
	PatternID string `json:"pattern_id"`

	// Type is the judgment polarity.
	Type Type `json:"type"`

	// MatchedText is the exact span text that was judged.
	MatchedText string `json:"matched_text"`

	// SurroundingContext is a bounded window of text around the match,
	// kept for audit and diagnosis.
	SurroundingContext string `json:"surrounding_context,omitempty"`

	// OriginalConfidence is the confidence the match carried when surfaced.
	OriginalConfidence float64 `json:"original_confidence"`

	// Reason is set only on negative feedback.
	Reason Reason `json:"reason,omitempty"`

	// CreatedAt is assigned by the store.
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the event's fields prior to recording.
func (e *Event) Validate() error {
	if e.PatternID == "" {
		return ErrEmptyPatternID
	}
	if e.MatchedText == "" {
		return ErrEmptyMatchedText
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if e.OriginalConfidence < 0.0 || e.OriginalConfidence > 1.0 {
		return ErrInvalidConfidence
	}
	switch e.Type {
	case Negative:
		if e.Reason == "" {
			return ErrReasonRequired
		}
		if !e.Reason.Valid() {
			return ErrInvalidReason
		}
	case Positive:
		if e.Reason != "" {
			return ErrReasonNotAllowed
		}
	}
	return nil
}
