package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
)

const maxTitleLen = 100

var (
	sentenceEnd    = regexp.MustCompile(`[.!?](\s|$)`)
	priorityToken  = regexp.MustCompile(`(?i)\bp([1-4])\b`)
	tagPattern     = regexp.MustCompile(`(?:^|\s)#([A-Za-z][\w-]*)`)
	emailPattern   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]*[A-Za-z]`)
	handlePattern  = regexp.MustCompile(`(?:^|\s)@([A-Za-z][\w.-]*[\w])`)
	withPattern    = regexp.MustCompile(`\bwith\s+([A-Z][a-z]+(?:(?:\s*,\s*|\s+and\s+|\s*&\s*)[A-Z][a-z]+)*)`)
	locationLabel  = regexp.MustCompile(`(?i)\blocation:\s*([^\n,;]+)`)
	locationPhrase = regexp.MustCompile(`\b(?:in|at)\s+([A-Z][\w'&-]*(?:\s+[A-Z][\w'&-]*)*)`)
	nameSeparator  = regexp.MustCompile(`\s*,\s*|\s+and\s+|\s*&\s*`)
)

// notPlaces are capitalised words that follow "at"/"in" without naming a place.
var notPlaces = map[string]bool{
	"AM": true, "PM": true, "Noon": true, "Midnight": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
	"January": true, "February": true, "March": true, "April": true, "May": true, "June": true,
	"July": true, "August": true, "September": true, "October": true, "November": true, "December": true,
}

// ExtractTitle returns the first line if short enough, else the first
// sentence, else the first 100 characters followed by an ellipsis.
func ExtractTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if utf8.RuneCountInString(first) <= maxTitleLen {
		return first
	}
	if loc := sentenceEnd.FindStringIndex(first); loc != nil {
		sentence := strings.TrimSpace(first[:loc[0]+1])
		if utf8.RuneCountInString(sentence) <= maxTitleLen {
			return sentence
		}
	}
	runes := []rune(first)
	return string(runes[:maxTitleLen]) + "..."
}

// ExtractDescription returns what follows the title, without leading
// punctuation or whitespace.
func ExtractDescription(text, title string) string {
	text = strings.TrimSpace(text)
	rest := text
	switch {
	case strings.HasSuffix(title, "..."):
		rest = string([]rune(text)[utf8.RuneCountInString(strings.TrimSuffix(title, "...")):])
	case strings.HasPrefix(text, title):
		rest = text[len(title):]
	}
	return strings.TrimLeftFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// ExtractPriority reads a "pN" token or a keyword band. 1 is highest; the
// default is 4.
func ExtractPriority(text string) int {
	if m := priorityToken.FindStringSubmatch(text); m != nil {
		return int(m[1][0] - '0')
	}
	switch {
	case capture.ContainsAnyWord(text, "high", "urgent", "important", "asap"):
		return 1
	case capture.ContainsAnyWord(text, "medium", "normal"):
		return 2
	case capture.ContainsAnyWord(text, "low"):
		return 3
	}
	return 4
}

// ExtractTags returns #hashtags without the marker, deduplicated.
func ExtractTags(text string) []string {
	var tags []string
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tags = appendUnique(tags, strings.ToLower(m[1]))
	}
	return tags
}

// ExtractURLs returns http(s) links in order of appearance.
func ExtractURLs(text string) []string {
	var urls []string
	for _, u := range capture.URLPattern.FindAllString(text, -1) {
		urls = appendUnique(urls, strings.TrimRight(u, ".,;:!?"))
	}
	return urls
}

// ExtractLocation reads "location: X" or a capitalised place after "at"/"in".
func ExtractLocation(text string) string {
	if m := locationLabel.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, m := range locationPhrase.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[1])
		for len(words) > 0 && notPlaces[words[len(words)-1]] {
			words = words[:len(words)-1]
		}
		if len(words) > 0 && !notPlaces[words[0]] {
			return strings.Join(words, " ")
		}
	}
	return ""
}

// ExtractAttendees collects email addresses, @handles and "with A and B" names.
func ExtractAttendees(text string) []string {
	var out []string
	for _, e := range emailPattern.FindAllString(text, -1) {
		out = appendUnique(out, e)
	}
	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		out = appendUnique(out, m[1])
	}
	for _, m := range withPattern.FindAllStringSubmatch(text, -1) {
		for _, name := range nameSeparator.Split(m[1], -1) {
			if name != "" && !notPlaces[name] {
				out = appendUnique(out, name)
			}
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
