package match

// Confidence scores per detection strategy. Regex evidence is treated
// as stronger than literal-example evidence.
const (
	// RegexConfidence is assigned to regex-derived matches.
	RegexConfidence = 0.9

	// ExampleConfidence is assigned to literal-example matches.
	ExampleConfidence = 0.85
)

// Match is a located span of text attributed to exactly one pattern.
// Offsets are half-open byte offsets into the source document.
// Matches are transient results; the engine never persists them.
type Match struct {
	// PatternID identifies the pattern that produced this match.
	PatternID string `json:"pattern_id"`

	// Text is the exact matched substring.
	Text string `json:"text"`

	// Start is the inclusive byte offset of the span.
	Start int `json:"start"`

	// End is the exclusive byte offset of the span.
	End int `json:"end"`

	// Confidence is the strategy-derived score (0.0 - 1.0).
	Confidence float64 `json:"confidence"`
}

// Overlaps reports whether two matches occupy intersecting spans.
func (m Match) Overlaps(other Match) bool {
	return m.Start < other.End && other.Start < m.End
}
