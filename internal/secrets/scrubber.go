package secrets

import (
	"sort"
)

// Scrubber redacts secrets from text.
type Scrubber interface {
	Scrub(content string) Result
}

// Result is the outcome of a scrub. Matched values are never retained.
type Result struct {
	Scrubbed string
	ByRule   map[string]int
}

// HasFindings reports whether anything was redacted.
func (r Result) HasFindings() bool {
	return len(r.ByRule) > 0
}

// RegexScrubber is a Scrubber backed by ordered regular expressions.
type RegexScrubber struct {
	rules       []*compiledRule
	replacement string
}

var _ Scrubber = (*RegexScrubber)(nil)

// New compiles rules into a scrubber. Nil rules means DefaultRules.
func New(rules []Rule) (*RegexScrubber, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &RegexScrubber{rules: compiled, replacement: "[REDACTED]"}, nil
}

// MustNew is New that panics on invalid rules.
func MustNew(rules []Rule) *RegexScrubber {
	s, err := New(rules)
	if err != nil {
		panic(err)
	}
	return s
}

type span struct{ start, end int }

// Scrub replaces every rule match with [REDACTED]. Overlapping matches merge.
func (s *RegexScrubber) Scrub(content string) Result {
	res := Result{Scrubbed: content, ByRule: map[string]int{}}

	var spans []span
	for _, rule := range s.rules {
		for _, m := range rule.pattern.FindAllStringIndex(content, -1) {
			spans = append(spans, span{m[0], m[1]})
			res.ByRule[rule.ID]++
		}
	}
	if len(spans) == 0 {
		return res
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}

	out := make([]byte, 0, len(content))
	prev := 0
	for _, sp := range merged {
		out = append(out, content[prev:sp.start]...)
		out = append(out, s.replacement...)
		prev = sp.end
	}
	out = append(out, content[prev:]...)
	res.Scrubbed = string(out)
	return res
}

// Noop passes content through unchanged.
type Noop struct{}

var _ Scrubber = Noop{}

func (Noop) Scrub(content string) Result {
	return Result{Scrubbed: content, ByRule: map[string]int{}}
}
