package capture

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source identifies where an item was captured.
type Source string

const (
	SourceManual  Source = "manual_entry"
	SourceEmail   Source = "email"
	SourceChat    Source = "chat_message"
	SourceMeeting Source = "meeting_notes"
	SourceImport  Source = "import"
	SourceOther   Source = "other"
)

// ParseSource maps a user-supplied name onto a Source, defaulting to SourceOther.
func ParseSource(s string) Source {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceManual, "manual":
		return SourceManual
	case SourceEmail:
		return SourceEmail
	case SourceChat, "chat":
		return SourceChat
	case SourceMeeting, "meeting":
		return SourceMeeting
	case SourceImport:
		return SourceImport
	default:
		return SourceOther
	}
}

// ManualEntry is a structured capture. Field presence outranks text heuristics.
type ManualEntry struct {
	Title       string     `json:"title" toml:"title"`
	Description string     `json:"description,omitempty" toml:"description"`
	Priority    int        `json:"priority,omitempty" toml:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" toml:"due_date"`
	Start       *time.Time `json:"start,omitempty" toml:"start"`
	End         *time.Time `json:"end,omitempty" toml:"end"`
	Location    string     `json:"location,omitempty" toml:"location"`
	Attendees   []string   `json:"attendees,omitempty" toml:"attendees"`
	URLs        []string   `json:"urls,omitempty" toml:"urls"`
	Tags        []string   `json:"tags,omitempty" toml:"tags"`
}

// IsEvent reports whether the entry describes a scheduled event.
func (e ManualEntry) IsEvent() bool {
	return e.Start != nil
}

// Text renders the entry as plain text for heuristics and prompts.
func (e ManualEntry) Text() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Title + "\n" + e.Description
}

// clone returns a copy that shares no slices or times with e.
func (e ManualEntry) clone() ManualEntry {
	cp := e
	cp.DueDate = cloneTime(e.DueDate)
	cp.Start = cloneTime(e.Start)
	cp.End = cloneTime(e.End)
	cp.Attendees = append([]string(nil), e.Attendees...)
	cp.URLs = append([]string(nil), e.URLs...)
	cp.Tags = append([]string(nil), e.Tags...)
	return cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Item is an immutable captured input. Construct with NewText or NewManual.
type Item struct {
	id        string
	source    Source
	text      string
	entry     *ManualEntry
	timestamp time.Time
}

// NewText captures free text.
func NewText(source Source, text string, at time.Time) Item {
	return Item{id: uuid.NewString(), source: source, text: text, timestamp: at}
}

// NewManual captures a structured manual entry.
func NewManual(entry ManualEntry, at time.Time) Item {
	cp := entry.clone()
	return Item{id: uuid.NewString(), source: SourceManual, text: cp.Text(), entry: &cp, timestamp: at}
}

func (i Item) ID() string           { return i.id }
func (i Item) Source() Source       { return i.source }
func (i Item) Timestamp() time.Time { return i.timestamp }

// Text returns the raw text, or the rendered text of a manual entry.
func (i Item) Text() string { return i.text }

// Entry returns a copy of the structured entry, if any.
func (i Item) Entry() (ManualEntry, bool) {
	if i.entry == nil {
		return ManualEntry{}, false
	}
	return i.entry.clone(), true
}

// PotentialNature is a quick best guess from the item's signals. It applies
// the same precedence as classification but performs no field extraction.
func (i Item) PotentialNature() Nature {
	if e, ok := i.Entry(); ok {
		if e.IsEvent() {
			return NatureEvent
		}
		if strings.TrimSpace(e.Title) != "" {
			return NatureTask
		}
	}
	if strings.TrimSpace(i.text) == "" {
		return NatureTrash
	}
	return Detect(i.text).Strongest()
}
