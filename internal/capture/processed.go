package capture

import "time"

// Nature is what classification decided an item is.
type Nature string

const (
	NatureTask        Nature = "actionable_task"
	NatureEvent       Nature = "potential_event"
	NatureReference   Nature = "reference_info"
	NatureProjectIdea Nature = "project_idea"
	NatureTrash       Nature = "trash"
	NatureUnclear     Nature = "unclear"
)

// Destination is where a processed item should be routed.
type Destination string

const (
	DestTaskTracker  Destination = "task_tracker"
	DestCalendar     Destination = "calendar"
	DestNotesArchive Destination = "notes_archive"
	DestReviewLater  Destination = "review_later"
	DestNone         Destination = "none"
)

// Extracted is the nature-specific payload of a Processed item. The concrete
// type is one of TaskFields, EventFields, ReferenceFields, IdeaFields or
// UnclearFields.
type Extracted interface {
	nature() Nature
}

// TaskFields are extracted from an actionable task.
type TaskFields struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    int        `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
}

// EventFields are extracted from a potential event. Start is always set.
type EventFields struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// ReferenceFields are extracted from reference material.
type ReferenceFields struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	URLs    []string `json:"urls,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// IdeaFields are extracted from a project idea.
type IdeaFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UnclearFields keeps the text of anything that could not be classified,
// including trash.
type UnclearFields struct {
	Text   string `json:"text"`
	Reason string `json:"reason,omitempty"`
}

func (TaskFields) nature() Nature      { return NatureTask }
func (EventFields) nature() Nature     { return NatureEvent }
func (ReferenceFields) nature() Nature { return NatureReference }
func (IdeaFields) nature() Nature      { return NatureProjectIdea }
func (UnclearFields) nature() Nature   { return NatureUnclear }

// Processed is the read-only result of classifying an Item.
type Processed struct {
	Original    Item
	Nature      Nature
	Data        Extracted
	Destination Destination
}

// Task returns the task payload when Nature is NatureTask.
func (p Processed) Task() (TaskFields, bool) {
	f, ok := p.Data.(TaskFields)
	return f, ok
}

// Event returns the event payload when Nature is NatureEvent.
func (p Processed) Event() (EventFields, bool) {
	f, ok := p.Data.(EventFields)
	return f, ok
}

// Reference returns the reference payload when Nature is NatureReference.
func (p Processed) Reference() (ReferenceFields, bool) {
	f, ok := p.Data.(ReferenceFields)
	return f, ok
}

// Idea returns the project idea payload when Nature is NatureProjectIdea.
func (p Processed) Idea() (IdeaFields, bool) {
	f, ok := p.Data.(IdeaFields)
	return f, ok
}

// Unclear returns the fallback payload for unclear and trash items.
func (p Processed) Unclear() (UnclearFields, bool) {
	f, ok := p.Data.(UnclearFields)
	return f, ok
}

// Title returns a display title regardless of variant.
func (p Processed) Title() string {
	switch d := p.Data.(type) {
	case TaskFields:
		return d.Title
	case EventFields:
		return d.Title
	case ReferenceFields:
		return d.Title
	case IdeaFields:
		return d.Title
	case UnclearFields:
		return d.Text
	}
	return ""
}
