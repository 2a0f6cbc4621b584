package refine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/redactd/internal/feedback"
	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

// Confidence-raise step for invalid_data / not_sensitive dominant
// feedback. The raise is capped below regex confidence so the pattern
// can still match at all.
const (
	confidenceRaiseStep = 0.05
	confidenceRaiseCap  = 0.95
)

// reasonPriority fixes the tie-break order between dominant reasons so
// suggestions are reproducible for a given feedback set. Lower index
// wins a tie.
var reasonPriority = []feedback.Reason{
	feedback.ReasonTooBroad,
	feedback.ReasonWrongFormat,
	feedback.ReasonInvalidData,
	feedback.ReasonNotSensitive,
	feedback.ReasonMissingContext,
}

// Suggester derives pattern edits from negative feedback.
type Suggester struct {
	logger *zap.Logger
}

// NewSuggester creates a suggester. A nil logger is replaced with a
// no-op logger.
func NewSuggester(logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{logger: logger}
}

// Suggest produces a refinement suggestion for the pattern from its
// feedback history. Positive events are ignored; with no negative
// events there is nothing to refine from and ErrNoNegativeFeedback is
// returned.
func (s *Suggester) Suggest(p *pattern.Pattern, events []*feedback.Event) (*Suggestion, error) {
	negatives := make([]*feedback.Event, 0, len(events))
	for _, e := range events {
		if e.Type == feedback.Negative {
			negatives = append(negatives, e)
		}
	}
	if len(negatives) == 0 {
		return nil, ErrNoNegativeFeedback
	}

	dominant, count := dominantReason(negatives)
	s.logger.Debug("suggesting refinement",
		zap.String("pattern_id", p.ID),
		zap.String("dominant_reason", string(dominant)),
		zap.Int("negative_count", len(negatives)),
	)

	suggestion := &Suggestion{
		Reasoning: []string{
			fmt.Sprintf("%d of %d negative feedback events cite %s", count, len(negatives), dominant),
		},
	}

	switch dominant {
	case feedback.ReasonTooBroad:
		s.suggestExclusions(suggestion, p, negatives, dominant)

	case feedback.ReasonWrongFormat:
		s.describeShapes(suggestion, negatives)

	case feedback.ReasonInvalidData, feedback.ReasonNotSensitive:
		s.suggestThresholdRaise(suggestion, p)
		s.suggestExclusions(suggestion, p, negatives, dominant)

	case feedback.ReasonMissingContext:
		suggestion.Reasoning = append(suggestion.Reasoning,
			"matches are ambiguous without surrounding context; no safe automatic change exists, review the pattern manually")
	}

	return suggestion, nil
}

// suggestExclusions proposes the offending matched texts as excluded
// examples, the lowest-risk remediation.
func (s *Suggester) suggestExclusions(suggestion *Suggestion, p *pattern.Pattern, negatives []*feedback.Event, reason feedback.Reason) {
	texts := distinctTexts(negatives, reason)

	// Skip texts the pattern already excludes.
	proposed := texts[:0]
	for _, text := range texts {
		if !p.IsExcluded(text) {
			proposed = append(proposed, text)
		}
	}
	if len(proposed) == 0 {
		return
	}

	suggestion.ExcludePatterns = proposed
	suggestion.Reasoning = append(suggestion.Reasoning,
		fmt.Sprintf("excluding %d matched text(s) reported as false positives: %s",
			len(proposed), strings.Join(proposed, ", ")))
}

// suggestThresholdRaise proposes raising the confidence threshold one
// step, capped below regex confidence.
func (s *Suggester) suggestThresholdRaise(suggestion *Suggestion, p *pattern.Pattern) {
	raised := p.ConfidenceThreshold + confidenceRaiseStep
	if raised > confidenceRaiseCap {
		raised = confidenceRaiseCap
	}
	if raised <= p.ConfidenceThreshold {
		return
	}
	suggestion.ConfidenceAdjustment = &raised
	suggestion.Reasoning = append(suggestion.Reasoning,
		fmt.Sprintf("raising confidence threshold from %.2f to %.2f to suppress low-evidence matches",
			p.ConfidenceThreshold, raised))
}

// describeShapes surfaces the offending texts grouped by structural
// shape so an operator can author a tighter regex. No regex is
// synthesized automatically.
func (s *Suggester) describeShapes(suggestion *Suggestion, negatives []*feedback.Event) {
	groups := make(map[string][]string)
	var order []string
	for _, text := range distinctTexts(negatives, feedback.ReasonWrongFormat) {
		shape := structuralShape(text)
		if _, ok := groups[shape]; !ok {
			order = append(order, shape)
		}
		groups[shape] = append(groups[shape], text)
	}

	suggestion.Reasoning = append(suggestion.Reasoning,
		"matched texts have the wrong structure; tighten the regex to require the expected delimiters")
	for _, shape := range order {
		suggestion.Reasoning = append(suggestion.Reasoning,
			fmt.Sprintf("shape %s: %s", shape, strings.Join(groups[shape], ", ")))
	}
}

// dominantReason returns the most frequent reason among negative
// events. Ties resolve by fixed priority order.
func dominantReason(negatives []*feedback.Event) (feedback.Reason, int) {
	counts := make(map[feedback.Reason]int)
	for _, e := range negatives {
		counts[e.Reason]++
	}

	best := reasonPriority[len(reasonPriority)-1]
	bestCount := -1
	for _, reason := range reasonPriority {
		if counts[reason] > bestCount {
			best = reason
			bestCount = counts[reason]
		}
	}
	return best, bestCount
}

// distinctTexts returns the distinct matched texts of events carrying
// the given reason, case-insensitive, in first-seen order.
func distinctTexts(negatives []*feedback.Event, reason feedback.Reason) []string {
	seen := make(map[string]struct{})
	var texts []string
	for _, e := range negatives {
		if e.Reason != reason {
			continue
		}
		key := strings.ToLower(e.MatchedText)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		texts = append(texts, e.MatchedText)
	}
	return texts
}

// structuralShape summarizes a text as digit-run lengths and separator
// presence, e.g. "123-45-6789" -> "d3-d2-d4" and "12 3456" -> "d2 d4".
func structuralShape(text string) string {
	var b strings.Builder
	run := 0
	flush := func() {
		if run > 0 {
			fmt.Fprintf(&b, "d%d", run)
			run = 0
		}
	}
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			run++
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			flush()
			b.WriteByte('a')
		default:
			flush()
			b.WriteRune(r)
		}
	}
	flush()
	return b.String()
}
