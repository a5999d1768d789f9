package capture

import (
	"regexp"
	"strings"
)

var (
	taskKeywords      = []string{"todo", "to do", "task", "action item", "please", "need to", "should"}
	eventKeywords     = []string{"meeting", "appointment", "schedule", "calendar"}
	referenceKeywords = []string{"fyi", "reference", "note that"}
	projectKeywords   = []string{"idea", "project", "concept", "proposal"}

	// ClockPattern matches "2:30 PM", "2pm", "at 14:30".
	ClockPattern = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*[ap]\.?m\b|\bat\s+\d{1,2}:\d{2}\b`)
	// URLPattern matches http(s) links.
	URLPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
)

// Signals records which keyword families appear in a text.
type Signals struct {
	Task      bool
	Event     bool
	Reference bool
	Project   bool
}

// Detect scans text for keyword families. Matching is case-insensitive and
// whole-word so that "task" does not fire on "multitasking".
func Detect(text string) Signals {
	lower := strings.ToLower(text)
	return Signals{
		Task:      containsAny(lower, taskKeywords),
		Event:     containsAny(lower, eventKeywords) || ClockPattern.MatchString(text),
		Reference: containsAny(lower, referenceKeywords) || URLPattern.MatchString(text),
		Project:   containsAny(lower, projectKeywords),
	}
}

// Strongest applies the precedence task > event > reference > project idea.
func (s Signals) Strongest() Nature {
	switch {
	case s.Task:
		return NatureTask
	case s.Event:
		return NatureEvent
	case s.Reference:
		return NatureReference
	case s.Project:
		return NatureProjectIdea
	default:
		return NatureUnclear
	}
}

// ContainsAnyWord reports whether text holds any of words as whole words,
// ignoring case.
func ContainsAnyWord(text string, words ...string) bool {
	return containsAny(strings.ToLower(text), words)
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// containsWord reports whether phrase occurs in s bounded by non-letters.
// A plural "s" suffix is accepted.
func containsWord(s, phrase string) bool {
	for from := 0; ; {
		idx := strings.Index(s[from:], phrase)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(phrase)
		if end < len(s) && s[end] == 's' {
			end++
		}
		if (start == 0 || !isLetter(s[start-1])) && (end == len(s) || !isLetter(s[end])) {
			return true
		}
		from = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
