package refine

import "errors"

// Refinement-related errors.
var (
	ErrNoNegativeFeedback = errors.New("pattern has no negative feedback to refine from")
	ErrEmptySuggestion    = errors.New("suggestion proposes no change")
	ErrInvalidAdjustment  = errors.New("confidence adjustment must be between 0.0 and 1.0")
)

// Suggestion is a proposed pattern edit derived from negative feedback.
// Reasoning is mandatory and explains, in order, which evidence drove
// each proposed field; operators review it before applying anything.
type Suggestion struct {
	// ExcludePatterns are matched texts to add to the pattern's
	// excluded examples (exact, case-insensitive).
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`

	// ConfidenceAdjustment, when set, replaces the pattern's
	// confidence threshold.
	ConfidenceAdjustment *float64 `json:"confidence_adjustment,omitempty"`

	// Reasoning is the audit trail for the proposal.
	Reasoning []string `json:"reasoning"`
}

// ProposesChange reports whether the suggestion carries any applicable
// edit, as opposed to a reasoning-only note.
func (s *Suggestion) ProposesChange() bool {
	return len(s.ExcludePatterns) > 0 || s.ConfidenceAdjustment != nil
}
