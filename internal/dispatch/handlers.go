package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"go.uber.org/zap"
)

// TaskTracker presents tasks for entry into an external tracker.
type TaskTracker struct {
	destinationMatcher
	presenter *Presenter
}

// NewTaskTracker creates the task-tracker handler.
func NewTaskTracker(p *Presenter) *TaskTracker {
	return &TaskTracker{destinationMatcher: destinationMatcher(capture.DestTaskTracker), presenter: p}
}

func (h *TaskTracker) Handle(_ context.Context, p capture.Processed) error {
	f, ok := p.Task()
	if !ok {
		return unexpectedPayload(p)
	}
	return h.presenter.Task(f)
}

// Calendar presents an event, asks for confirmation and then creates it.
type Calendar struct {
	destinationMatcher
	presenter *Presenter
	confirmer Confirmer
	creator   EventCreator
	logger    *logging.Logger
}

// NewCalendar creates the calendar handler.
func NewCalendar(p *Presenter, confirmer Confirmer, creator EventCreator, logger *logging.Logger) *Calendar {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Calendar{
		destinationMatcher: destinationMatcher(capture.DestCalendar),
		presenter:          p,
		confirmer:          confirmer,
		creator:            creator,
		logger:             logger,
	}
}

func (h *Calendar) Handle(ctx context.Context, p capture.Processed) error {
	f, ok := p.Event()
	if !ok {
		return unexpectedPayload(p)
	}
	if err := h.presenter.Event(f); err != nil {
		return err
	}

	ok, err := h.confirmer.Confirm(ctx, fmt.Sprintf("Add %q to the calendar?", f.Title))
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		h.logger.Info(ctx, "calendar event declined", zap.String("title", f.Title))
		return h.presenter.EventResult("not added")
	}

	ref, err := h.creator.CreateEvent(ctx, f)
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	h.logger.Info(ctx, "calendar event created", zap.String("title", f.Title), zap.String("ref", ref))
	return h.presenter.EventResult("added: " + ref)
}

// NotesArchive renders reference material as Markdown and, when dir is set,
// writes it to a file there.
type NotesArchive struct {
	destinationMatcher
	presenter *Presenter
	dir       string
}

// NewNotesArchive creates the notes-archive handler. dir may be empty.
func NewNotesArchive(p *Presenter, dir string) *NotesArchive {
	return &NotesArchive{destinationMatcher: destinationMatcher(capture.DestNotesArchive), presenter: p, dir: dir}
}

func (h *NotesArchive) Handle(_ context.Context, p capture.Processed) error {
	f, ok := p.Reference()
	if !ok {
		return unexpectedPayload(p)
	}
	md := FormatMarkdown(f, p.Original.Timestamp())

	path := ""
	if h.dir != "" {
		if err := os.MkdirAll(h.dir, 0o700); err != nil {
			return fmt.Errorf("creating notes dir: %w", err)
		}
		name := fmt.Sprintf("%s-%s.md", p.Original.Timestamp().Format("20060102-150405"), slug(f.Title))
		path = filepath.Join(h.dir, name)
		if err := os.WriteFile(path, []byte(md), 0o600); err != nil {
			return fmt.Errorf("writing note: %w", err)
		}
	}
	return h.presenter.Note(md, path)
}

// ReviewLater flags unclear items and project ideas for triage.
type ReviewLater struct {
	destinationMatcher
	presenter *Presenter
}

// NewReviewLater creates the review-later handler.
func NewReviewLater(p *Presenter) *ReviewLater {
	return &ReviewLater{destinationMatcher: destinationMatcher(capture.DestReviewLater), presenter: p}
}

func (h *ReviewLater) Handle(_ context.Context, p capture.Processed) error {
	reason := ""
	switch d := p.Data.(type) {
	case capture.UnclearFields:
		reason = d.Reason
	case capture.IdeaFields:
		reason = "project idea"
	}
	return h.presenter.Review(p.Title(), reason)
}

// Discard acknowledges items routed nowhere. It writes an audit line and
// nothing else.
type Discard struct {
	destinationMatcher
	logger *logging.Logger
}

// NewDiscard creates the handler for the "none" destination.
func NewDiscard(logger *logging.Logger) *Discard {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Discard{destinationMatcher: destinationMatcher(capture.DestNone), logger: logger}
}

func (h *Discard) Handle(ctx context.Context, p capture.Processed) error {
	h.logger.Info(ctx, "capture discarded",
		zap.String("nature", string(p.Nature)),
		zap.String("source", string(p.Original.Source())),
	)
	return nil
}

// Handlers bundles the collaborators of NewDefaultChain.
type Handlers struct {
	Presenter *Presenter
	Confirmer Confirmer
	Creator   EventCreator
	NotesDir  string
	Logger    *logging.Logger
}

// NewDefaultChain wires one handler per destination.
func NewDefaultChain(h Handlers) *Chain {
	if h.Logger == nil {
		h.Logger = logging.Nop()
	}
	return NewChain(h.Logger,
		NewTaskTracker(h.Presenter),
		NewCalendar(h.Presenter, h.Confirmer, h.Creator, h.Logger),
		NewNotesArchive(h.Presenter, h.NotesDir),
		NewReviewLater(h.Presenter),
		NewDiscard(h.Logger),
	)
}

func unexpectedPayload(p capture.Processed) error {
	return fmt.Errorf("unexpected payload %T for destination %s", p.Data, p.Destination)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if r := []rune(s); len(r) > 40 {
		s = strings.TrimRight(string(r[:40]), "-")
	}
	if s == "" {
		s = "note"
	}
	return s
}

var (
	_ Handler = (*TaskTracker)(nil)
	_ Handler = (*Calendar)(nil)
	_ Handler = (*NotesArchive)(nil)
	_ Handler = (*ReviewLater)(nil)
	_ Handler = (*Discard)(nil)
)
