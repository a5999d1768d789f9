package classify

import (
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
)

// Processor inspects a capture item and, if it accepts it, classifies it.
type Processor interface {
	Name() string
	CanProcess(item capture.Item) bool
	Process(item capture.Item) capture.Processed
}

// Extractor resolves relative dates against the item timestamp, falling
// back to Now for items without one.
type Extractor struct {
	Now func() time.Time
}

func (x Extractor) reference(item capture.Item) time.Time {
	if ts := item.Timestamp(); !ts.IsZero() {
		return ts
	}
	if x.Now != nil {
		return x.Now()
	}
	return time.Now()
}

// TaskProcessor accepts manual entries without a start time and text
// carrying task keywords.
type TaskProcessor struct{ X Extractor }

func (TaskProcessor) Name() string { return "task" }

func (TaskProcessor) CanProcess(item capture.Item) bool {
	if e, ok := item.Entry(); ok {
		return !e.IsEvent() && strings.TrimSpace(e.Title) != ""
	}
	return capture.Detect(item.Text()).Task
}

func (p TaskProcessor) Process(item capture.Item) capture.Processed {
	ref := p.X.reference(item)
	var f capture.TaskFields

	if e, ok := item.Entry(); ok {
		f = capture.TaskFields{
			Title:       strings.TrimSpace(e.Title),
			Description: e.Description,
			DueDate:     e.DueDate,
			Priority:    e.Priority,
			Tags:        e.Tags,
		}
		if f.DueDate == nil {
			f.DueDate = ExtractDueDate(e.Text(), ref)
		}
		if f.Priority < 1 || f.Priority > 4 {
			f.Priority = ExtractPriority(e.Text())
		}
		if len(f.Tags) == 0 {
			f.Tags = ExtractTags(e.Text())
		}
	} else {
		text := item.Text()
		f.Title = ExtractTitle(text)
		f.Description = ExtractDescription(text, f.Title)
		f.DueDate = ExtractDueDate(text, ref)
		f.Priority = ExtractPriority(text)
		f.Tags = ExtractTags(text)
	}

	return capture.Processed{
		Original:    item,
		Nature:      capture.NatureTask,
		Data:        f,
		Destination: capture.DestTaskTracker,
	}
}

// EventProcessor accepts manual entries with a start time and text with
// event keywords or clock times. Without an extractable start time the item
// is downgraded to unclear.
type EventProcessor struct{ X Extractor }

func (EventProcessor) Name() string { return "event" }

func (EventProcessor) CanProcess(item capture.Item) bool {
	if e, ok := item.Entry(); ok {
		return e.IsEvent()
	}
	return capture.Detect(item.Text()).Event
}

func (p EventProcessor) Process(item capture.Item) capture.Processed {
	if e, ok := item.Entry(); ok && e.IsEvent() {
		end := e.Start.Add(time.Hour)
		if e.End != nil && e.End.After(*e.Start) {
			end = *e.End
		}
		attendees := e.Attendees
		if len(attendees) == 0 {
			attendees = ExtractAttendees(e.Text())
		}
		location := e.Location
		if location == "" {
			location = ExtractLocation(e.Text())
		}
		return capture.Processed{
			Original: item,
			Nature:   capture.NatureEvent,
			Data: capture.EventFields{
				Title:       strings.TrimSpace(e.Title),
				Description: e.Description,
				Start:       *e.Start,
				End:         end,
				Location:    location,
				Attendees:   attendees,
			},
			Destination: capture.DestCalendar,
		}
	}

	text := item.Text()
	ref := p.X.reference(item)
	day := startOfDay(ref)
	if due := ExtractDueDate(text, ref); due != nil {
		day = *due
	}

	start, end, ok := ExtractTimes(text, day)
	if !ok {
		return unclear(item, "event without a start time")
	}

	title := ExtractTitle(text)
	return capture.Processed{
		Original: item,
		Nature:   capture.NatureEvent,
		Data: capture.EventFields{
			Title:       title,
			Description: ExtractDescription(text, title),
			Start:       start,
			End:         end,
			Location:    ExtractLocation(text),
			Attendees:   ExtractAttendees(text),
		},
		Destination: capture.DestCalendar,
	}
}

// ReferenceProcessor accepts text with reference keywords or links.
type ReferenceProcessor struct{}

func (ReferenceProcessor) Name() string { return "reference" }

func (ReferenceProcessor) CanProcess(item capture.Item) bool {
	if _, ok := item.Entry(); ok {
		return false
	}
	return capture.Detect(item.Text()).Reference
}

func (ReferenceProcessor) Process(item capture.Item) capture.Processed {
	text := strings.TrimSpace(item.Text())
	return capture.Processed{
		Original: item,
		Nature:   capture.NatureReference,
		Data: capture.ReferenceFields{
			Title:   ExtractTitle(text),
			Content: text,
			URLs:    ExtractURLs(text),
			Tags:    ExtractTags(text),
		},
		Destination: capture.DestNotesArchive,
	}
}

// DefaultProcessor accepts everything. Blank input is trash, project-idea
// keywords make an idea, and the rest is unclear.
type DefaultProcessor struct{}

func (DefaultProcessor) Name() string { return "default" }

func (DefaultProcessor) CanProcess(capture.Item) bool { return true }

func (DefaultProcessor) Process(item capture.Item) capture.Processed {
	text := strings.TrimSpace(item.Text())
	if text == "" {
		return capture.Processed{
			Original:    item,
			Nature:      capture.NatureTrash,
			Data:        capture.UnclearFields{Reason: "empty capture"},
			Destination: capture.DestNone,
		}
	}
	if capture.Detect(text).Project {
		title := ExtractTitle(text)
		return capture.Processed{
			Original: item,
			Nature:   capture.NatureProjectIdea,
			Data: capture.IdeaFields{
				Title:       title,
				Description: ExtractDescription(text, title),
				Tags:        ExtractTags(text),
			},
			Destination: capture.DestReviewLater,
		}
	}
	return unclear(item, "no task, event, reference or idea signal")
}

func unclear(item capture.Item, reason string) capture.Processed {
	return capture.Processed{
		Original:    item,
		Nature:      capture.NatureUnclear,
		Data:        capture.UnclearFields{Text: strings.TrimSpace(item.Text()), Reason: reason},
		Destination: capture.DestReviewLater,
	}
}

var (
	_ Processor = TaskProcessor{}
	_ Processor = EventProcessor{}
	_ Processor = ReferenceProcessor{}
	_ Processor = DefaultProcessor{}
)
