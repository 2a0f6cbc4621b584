package match

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

// Config configures the matcher.
type Config struct {
	// MaxRegexLength caps regex source length; longer sources are
	// treated like compile failures (default: 1000). Pattern regexes
	// are operator-authored but still untrusted-ish input.
	MaxRegexLength int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRegexLength: 1000,
	}
}

// Matcher produces resolved matches from regex and literal-example
// strategies. Safe for concurrent use.
type Matcher struct {
	config *Config
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*regexp.Regexp // source -> compiled, nil for known-bad
}

// New creates a matcher. A nil config uses defaults; a nil logger is
// replaced with a no-op logger.
func New(cfg *Config, logger *zap.Logger) *Matcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		config: cfg,
		logger: logger,
		cache:  make(map[string]*regexp.Regexp),
	}
}

// Match scans text with the given patterns and returns an ordered,
// non-overlapping sequence of matches. Patterns are expected to be
// pre-filtered to active ones; inactive filtering is the caller's job.
//
// Empty text or patterns with no usable strategies contribute nothing
// and are not errors.
func (m *Matcher) Match(text string, patterns []*pattern.Pattern) []Match {
	if text == "" || len(patterns) == 0 {
		return []Match{}
	}

	candidates := make([]Match, 0)
	for _, p := range patterns {
		candidates = append(candidates, m.regexCandidates(text, p)...)
		candidates = append(candidates, m.exampleCandidates(text, p)...)
	}

	candidates = filterCandidates(candidates, patterns)
	candidates = dedupe(candidates)
	return resolveOverlaps(candidates)
}

// regexCandidates scans text with each regex of the pattern. Each regex
// performs its own non-overlapping left-to-right scan.
func (m *Matcher) regexCandidates(text string, p *pattern.Pattern) []Match {
	var out []Match
	for _, source := range p.RegexSet {
		re, err := m.compile(source)
		if err != nil {
			// A single bad regex must never abort the pass.
			m.logger.Warn("skipping malformed regex",
				zap.String("pattern_id", p.ID),
				zap.String("category", p.Category),
				zap.Error(err),
			)
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Match{
				PatternID:  p.ID,
				Text:       text[loc[0]:loc[1]],
				Start:      loc[0],
				End:        loc[1],
				Confidence: RegexConfidence,
			})
		}
	}
	return out
}

// exampleCandidates finds every case-insensitive occurrence of each
// literal example. Examples go through the same compile path as
// regexes, quoted, so span offsets always index the original text;
// lowercasing the haystack shifts byte offsets wherever a case mapping
// changes rune length. The scan advances one byte past each found
// start so repeated and self-overlapping occurrences are all reported.
func (m *Matcher) exampleCandidates(text string, p *pattern.Pattern) []Match {
	var out []Match
	for _, example := range p.Examples {
		if example == "" {
			continue
		}
		re, err := m.compile(regexp.QuoteMeta(example))
		if err != nil {
			m.logger.Warn("skipping oversized example",
				zap.String("pattern_id", p.ID),
				zap.String("category", p.Category),
				zap.Error(err),
			)
			continue
		}
		for from := 0; from < len(text); {
			loc := re.FindStringIndex(text[from:])
			if loc == nil {
				break
			}
			start := from + loc[0]
			end := from + loc[1]
			out = append(out, Match{
				PatternID:  p.ID,
				Text:       text[start:end],
				Start:      start,
				End:        end,
				Confidence: ExampleConfidence,
			})
			from = start + 1
		}
	}
	return out
}

// filterCandidates drops excluded spans and candidates below their
// pattern's confidence threshold. Exclusion runs before overlap
// resolution so an excluded span can never shadow a valid one.
func filterCandidates(candidates []Match, patterns []*pattern.Pattern) []Match {
	byID := make(map[string]*pattern.Pattern, len(patterns))
	for _, p := range patterns {
		byID[p.ID] = p
	}

	kept := candidates[:0]
	for _, c := range candidates {
		p, ok := byID[c.PatternID]
		if !ok {
			continue
		}
		if p.IsExcluded(c.Text) {
			continue
		}
		if c.Confidence < p.ConfidenceThreshold {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// dedupe removes same-pattern candidates with identical spans,
// keeping the first seen.
func dedupe(candidates []Match) []Match {
	seen := make(map[string]struct{}, len(candidates))
	kept := candidates[:0]
	for _, c := range candidates {
		key := fmt.Sprintf("%s:%d:%d", c.PatternID, c.Start, c.End)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}
	return kept
}

// resolveOverlaps reduces candidates to a non-overlapping sequence.
// Sort order is start ascending, confidence descending; ties keep
// first-seen order. The sweep keeps a candidate when it starts at or
// after the last kept end, and replaces the last kept candidate only
// when the newcomer overlaps it with strictly greater confidence.
func resolveOverlaps(candidates []Match) []Match {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	resolved := make([]Match, 0, len(candidates))
	lastEnd := -1
	for _, c := range candidates {
		if c.Start >= lastEnd {
			resolved = append(resolved, c)
			lastEnd = c.End
			continue
		}
		if c.Confidence > resolved[len(resolved)-1].Confidence {
			resolved[len(resolved)-1] = c
			lastEnd = c.End
		}
	}
	return resolved
}

// compile returns a case-insensitive compiled regex for the source,
// caching both successes and failures.
func (m *Matcher) compile(source string) (*regexp.Regexp, error) {
	if len(source) > m.config.MaxRegexLength {
		return nil, fmt.Errorf("regex exceeds %d bytes", m.config.MaxRegexLength)
	}

	m.mu.RLock()
	re, ok := m.cache[source]
	m.mu.RUnlock()
	if ok {
		if re == nil {
			return nil, fmt.Errorf("regex %q previously failed to compile", source)
		}
		return re, nil
	}

	re, err := regexp.Compile("(?i)" + source)

	m.mu.Lock()
	if err != nil {
		m.cache[source] = nil
	} else {
		m.cache[source] = re
	}
	m.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	return re, nil
}
