package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/spf13/cobra"
)

func newCaptureCmd(opts *globalOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "capture [text...]",
		Short: "Capture free text and route it",
		Long: `Capture free text, classify it and send it to its destination.

Tasks and project ideas are added to the inbox; events go to the calendar,
reference material to the notes archive, and anything unclear is flagged
for review.

Examples:
  # Capture a task
  taskpri capture "need to renew passport"

  # Capture an email body from stdin
  pbpaste | taskpri capture --source email -`,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			text, err := captureText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			item := capture.NewText(capture.ParseSource(source), text, time.Now())
			processed, err := a.handleCapture(cmd.Context(), item)
			if err != nil {
				return err
			}
			cmd.Printf("captured as %s → %s\n", processed.Nature, processed.Destination)
			return a.save(cmd.Context())
		}),
	}
	cmd.Flags().StringVarP(&source, "source", "s", string(capture.SourceOther), "capture source (email, chat, meeting, other)")
	return cmd
}

// captureText joins args, or reads stdin when args are empty or "-".
func captureText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		b, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	return strings.Join(args, " "), nil
}

type addOptions struct {
	title       string
	description string
	priority    int
	due         string
	start       string
	end         string
	location    string
	attendees   []string
	urls        []string
	tags        []string
}

func newAddCmd(opts *globalOptions) *cobra.Command {
	var o addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a structured manual entry",
		Long: `Add a manual entry. Explicit fields outrank text heuristics: an entry
with --start is an event, anything else with a title is a task.

Dates accept 2006-01-02, "2006-01-02 15:04" or RFC3339.

Examples:
  taskpri add --title "Ship release" --priority 1 --due 2026-10-20
  taskpri add --title "Design review" --start "2026-10-20 14:00" --location "Room 4"`,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			entry, err := o.entry(time.Local)
			if err != nil {
				return err
			}
			item := capture.NewManual(entry, time.Now())
			processed, err := a.handleCapture(cmd.Context(), item)
			if err != nil {
				return err
			}
			cmd.Printf("added as %s → %s\n", processed.Nature, processed.Destination)
			return a.save(cmd.Context())
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&o.title, "title", "t", "", "title (required)")
	f.StringVarP(&o.description, "description", "d", "", "description")
	f.IntVarP(&o.priority, "priority", "p", 0, "priority 1 (highest) to 4")
	f.StringVar(&o.due, "due", "", "due date")
	f.StringVar(&o.start, "start", "", "event start")
	f.StringVar(&o.end, "end", "", "event end (default start + 1h)")
	f.StringVar(&o.location, "location", "", "event location")
	f.StringSliceVar(&o.attendees, "attendee", nil, "event attendee (repeatable)")
	f.StringSliceVar(&o.urls, "url", nil, "related link (repeatable)")
	f.StringSliceVar(&o.tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (o addOptions) entry(loc *time.Location) (capture.ManualEntry, error) {
	if strings.TrimSpace(o.title) == "" {
		return capture.ManualEntry{}, fmt.Errorf("--title must not be empty")
	}
	if o.priority < 0 || o.priority > 4 {
		return capture.ManualEntry{}, fmt.Errorf("--priority must be between 1 and 4")
	}
	entry := capture.ManualEntry{
		Title:       o.title,
		Description: o.description,
		Priority:    o.priority,
		Location:    o.location,
		Attendees:   o.attendees,
		URLs:        o.urls,
		Tags:        o.tags,
	}
	var err error
	if entry.DueDate, err = parseFlagTime("--due", o.due, loc); err != nil {
		return entry, err
	}
	if entry.Start, err = parseFlagTime("--start", o.start, loc); err != nil {
		return entry, err
	}
	if entry.End, err = parseFlagTime("--end", o.end, loc); err != nil {
		return entry, err
	}
	if entry.End != nil && entry.Start == nil {
		return entry, fmt.Errorf("--end needs --start")
	}
	return entry, nil
}

var flagTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseFlagTime(flag, value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range flagTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: unrecognized time %q", flag, value)
}
