package dispatch

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/charmbracelet/lipgloss"
)

const timeLayout = "Mon Jan 2 2006 15:04"

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// Presenter renders dispatched items for a person to act on.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPresenter writes to w.
func NewPresenter(w io.Writer) *Presenter {
	return &Presenter{out: w}
}

func (p *Presenter) show(header, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	block := lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(header), body)
	_, err := fmt.Fprintln(p.out, containerStyle.Render(block))
	return err
}

func row(label, value string) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// FormatTask renders task fields as label/value lines.
func FormatTask(f capture.TaskFields) string {
	lines := []string{row("Title", f.Title)}
	if f.Description != "" {
		lines = append(lines, row("Notes", f.Description))
	}
	if f.DueDate != nil {
		lines = append(lines, row("Due", f.DueDate.Format("Mon Jan 2 2006")))
	}
	lines = append(lines, row("Priority", fmt.Sprintf("p%d", f.Priority)))
	if len(f.Tags) > 0 {
		lines = append(lines, row("Tags", hashTags(f.Tags)))
	}
	return strings.Join(lines, "\n")
}

// FormatEvent renders event fields as label/value lines.
func FormatEvent(f capture.EventFields) string {
	lines := []string{
		row("Title", f.Title),
		row("Start", f.Start.Format(timeLayout)),
		row("End", f.End.Format(timeLayout)),
	}
	if f.Location != "" {
		lines = append(lines, row("Location", f.Location))
	}
	if len(f.Attendees) > 0 {
		lines = append(lines, row("With", strings.Join(f.Attendees, ", ")))
	}
	if f.Description != "" {
		lines = append(lines, row("Notes", f.Description))
	}
	return strings.Join(lines, "\n")
}

// FormatMarkdown renders reference material as a Markdown note.
func FormatMarkdown(f capture.ReferenceFields, captured time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Title)
	if f.Content != "" {
		fmt.Fprintf(&b, "%s\n\n", f.Content)
	}
	if len(f.URLs) > 0 {
		b.WriteString("## Links\n\n")
		for _, u := range f.URLs {
			fmt.Fprintf(&b, "- <%s>\n", u)
		}
		b.WriteString("\n")
	}
	if len(f.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n\n", hashTags(f.Tags))
	}
	if !captured.IsZero() {
		fmt.Fprintf(&b, "_Captured %s_\n", captured.Format(time.RFC3339))
	}
	return b.String()
}

func hashTags(tags []string) string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "#" + t
	}
	return strings.Join(out, " ")
}

// Task shows a task ready to be entered into a tracker.
func (p *Presenter) Task(f capture.TaskFields) error {
	return p.show("TASK", FormatTask(f))
}

// Event shows an event awaiting confirmation.
func (p *Presenter) Event(f capture.EventFields) error {
	return p.show("EVENT", FormatEvent(f))
}

// EventResult reports what happened to a confirmed or declined event.
func (p *Presenter) EventResult(msg string) error {
	return p.show("CALENDAR", dimStyle.Render(msg))
}

// Note shows archived Markdown.
func (p *Presenter) Note(markdown, path string) error {
	body := strings.TrimRight(markdown, "\n")
	if path != "" {
		body += "\n" + dimStyle.Render("saved to "+path)
	}
	return p.show("NOTE", body)
}

// Review shows an item flagged for human triage.
func (p *Presenter) Review(title, reason string) error {
	body := warningStyle.Render("⚑ needs review") + "\n" + row("Item", title)
	if reason != "" {
		body += "\n" + row("Why", reason)
	}
	return p.show("REVIEW LATER", body)
}
