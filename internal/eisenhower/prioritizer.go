// Package eisenhower assigns Eisenhower quadrants to tasks.
//
// Urgency and importance come from the assistant when one is available and
// from description keywords otherwise. A due date inside the urgency window
// always makes a task urgent, whatever the assistant said.
package eisenhower

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/assistant"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/albeorla/task-pri-lite-sub001/internal/eisenhower"

// DefaultUrgencyWindow is how far ahead a due date forces urgency.
const DefaultUrgencyWindow = 24 * time.Hour

// Source says where an assessment came from.
type Source string

const (
	SourceAssistant Source = "assistant"
	SourceKeywords  Source = "keywords"
)

// Result is the prioritization of one task.
type Result struct {
	TaskID    string
	Skipped   bool
	Quadrant  tasks.Quadrant
	Urgent    bool
	Important bool
	// DueOverride is true when the due date forced urgency.
	DueOverride bool
	Source      Source
	Rationale   string
}

// Failure records a task whose prioritization failed.
type Failure struct {
	TaskID string
	Err    error
}

// Batch is the outcome of PrioritizeAll.
type Batch struct {
	Results  []Result
	Failures []Failure
}

// Prioritized returns the results that assigned a quadrant.
func (b Batch) Prioritized() []Result {
	var out []Result
	for _, r := range b.Results {
		if !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}

// Prioritizer evaluates tasks against the Eisenhower matrix.
type Prioritizer struct {
	assistant assistant.Collaborator
	window    time.Duration
	logger    *logging.Logger
	now       func() time.Time
}

// NewPrioritizer creates a prioritizer. A nil collaborator means
// assistant.NoOp; a non-positive window means DefaultUrgencyWindow.
func NewPrioritizer(collab assistant.Collaborator, window time.Duration, logger *logging.Logger, now func() time.Time) *Prioritizer {
	if collab == nil {
		collab = assistant.NoOp{}
	}
	if window <= 0 {
		window = DefaultUrgencyWindow
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &Prioritizer{assistant: collab, window: window, logger: logger.Named("eisenhower"), now: now}
}

// PrioritizeAll prioritizes each task in order with per-task fault
// isolation. Only context cancellation stops the batch early.
func (p *Prioritizer) PrioritizeAll(ctx context.Context, batch []*tasks.Task) (Batch, error) {
	var out Batch
	for _, t := range batch {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := p.prioritizeSafely(ctx, t)
		if err != nil {
			id := ""
			if t != nil {
				id = t.ID
			}
			p.logger.Error(logging.WithTaskID(ctx, id), "prioritization failed", zap.Error(err))
			out.Failures = append(out.Failures, Failure{TaskID: id, Err: err})
			continue
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

func (p *Prioritizer) prioritizeSafely(ctx context.Context, t *tasks.Task) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Prioritize(ctx, t)
}

// Prioritize sets t.Quadrant. Tasks in Reference, SomedayMaybe or Done are
// skipped and keep their quadrant.
func (p *Prioritizer) Prioritize(ctx context.Context, t *tasks.Task) (Result, error) {
	if t == nil {
		return Result{}, errors.New("nil task")
	}
	ctx = logging.WithTaskID(ctx, t.ID)

	if !t.Status.Prioritizable() {
		p.logger.Debug(ctx, "skipping task excluded from prioritization", zap.String("status", string(t.Status)))
		return Result{TaskID: t.ID, Skipped: true}, nil
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "eisenhower.prioritize")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", t.ID))

	res := Result{TaskID: t.ID}
	if p.assistant.Available() {
		a := p.assistant.AssessPriority(ctx, t.Description)
		res.Urgent = a.Urgent != nil && *a.Urgent
		res.Important = a.Important != nil && *a.Important
		res.Source = SourceAssistant
		res.Rationale = a.Rationale
	} else {
		res.Urgent, res.Important = keywordAxes(t)
		res.Source = SourceKeywords
		res.Rationale = "keyword heuristics"
	}

	if !res.Urgent && t.DueWithin(p.now(), p.window) {
		res.Urgent = true
		res.DueOverride = true
	}

	res.Quadrant = tasks.QuadrantFor(res.Urgent, res.Important)
	t.SetQuadrant(res.Quadrant)

	span.SetAttributes(
		attribute.String("eisenhower.quadrant", string(res.Quadrant)),
		attribute.String("eisenhower.source", string(res.Source)),
		attribute.Bool("eisenhower.due_override", res.DueOverride),
	)
	p.logger.Debug(ctx, "task prioritized",
		zap.String("quadrant", string(res.Quadrant)),
		zap.Bool("urgent", res.Urgent),
		zap.Bool("important", res.Important),
		zap.Bool("due_override", res.DueOverride),
		zap.String("source", string(res.Source)),
	)
	return res, nil
}

// keywordAxes is the fallback when no assistant is available. Priority 1
// counts as important.
func keywordAxes(t *tasks.Task) (urgent, important bool) {
	d := strings.ToLower(t.Description)
	urgent = strings.Contains(d, "urgent")
	important = strings.Contains(d, "important") || t.Priority == 1
	return urgent, important
}
