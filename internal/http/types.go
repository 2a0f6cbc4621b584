package http

import (
	"github.com/fyrsmithlabs/redactd/internal/feedback"
	"github.com/fyrsmithlabs/redactd/internal/match"
	"github.com/fyrsmithlabs/redactd/internal/refine"
)

// MatchRequest is the request body for POST /api/v1/match.
type MatchRequest struct {
	// Text is the document text to scan.
	Text string `json:"text"`

	// PatternIDs optionally restricts the pass; empty means all active.
	PatternIDs []string `json:"pattern_ids,omitempty"`
}

// MatchResponse is the response body for POST /api/v1/match.
type MatchResponse struct {
	Matches []match.Match `json:"matches"`
	Count   int           `json:"count"`
}

// FeedbackRequest is the request body for POST /api/v1/patterns/:id/feedback.
type FeedbackRequest struct {
	Type               feedback.Type   `json:"type"`
	MatchedText        string          `json:"matched_text"`
	SurroundingContext string          `json:"surrounding_context,omitempty"`
	OriginalConfidence float64         `json:"original_confidence"`
	Reason             feedback.Reason `json:"reason,omitempty"`
}

// ApplyRefinementRequest is the request body for
// POST /api/v1/patterns/:id/refinement/apply.
type ApplyRefinementRequest struct {
	ExcludePatterns      []string `json:"exclude_patterns,omitempty"`
	ConfidenceAdjustment *float64 `json:"confidence_adjustment,omitempty"`
	Reasoning            []string `json:"reasoning,omitempty"`
}

// Suggestion converts the request into the engine's refinement type.
func (r *ApplyRefinementRequest) Suggestion() refine.Suggestion {
	return refine.Suggestion{
		ExcludePatterns:      r.ExcludePatterns,
		ConfidenceAdjustment: r.ConfidenceAdjustment,
		Reasoning:            r.Reasoning,
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
