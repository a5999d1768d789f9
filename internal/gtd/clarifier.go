// Package gtd implements GTD clarification: it moves Inbox tasks to
// Reference, SomedayMaybe, NextAction or into a Project with a defined next
// action.
package gtd

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
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/albeorla/task-pri-lite-sub001/internal/gtd"

// projectNameLen is the number of description characters used as a
// project's name.
const projectNameLen = 50

// Outcome is what clarification did with one task.
type Outcome string

const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeReference    Outcome = "reference"
	OutcomeSomedayMaybe Outcome = "someday_maybe"
	OutcomeNextAction   Outcome = "next_action"
	OutcomeProject      Outcome = "project"
)

// Result describes the clarification of one task.
type Result struct {
	TaskID  string
	Outcome Outcome
	// Set for OutcomeProject.
	ProjectID    string
	NextActionID string
	// NewProject is true when the project was created by this clarification.
	NewProject bool
	Rationale  string
}

// Failure records a task whose clarification failed.
type Failure struct {
	TaskID string
	Err    error
}

// Batch is the outcome of ClarifyAll.
type Batch struct {
	Results  []Result
	Failures []Failure
}

// Count returns how many results have outcome o.
func (b Batch) Count(o Outcome) int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Clarifier runs the GTD clarification state machine.
type Clarifier struct {
	assistant assistant.Collaborator
	logger    *logging.Logger
	now       func() time.Time
}

// NewClarifier creates a clarifier. A nil collaborator means assistant.NoOp.
func NewClarifier(collab assistant.Collaborator, logger *logging.Logger, now func() time.Time) *Clarifier {
	if collab == nil {
		collab = assistant.NoOp{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &Clarifier{assistant: collab, logger: logger.Named("gtd"), now: now}
}

// ClarifyAll clarifies each task in order. A failure on one task is logged
// and recorded; the rest still run. Only context cancellation stops the
// batch early, and its error is returned with the partial batch.
func (c *Clarifier) ClarifyAll(ctx context.Context, batch []*tasks.Task, projects *tasks.ProjectStore) (Batch, error) {
	var out Batch
	for _, t := range batch {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := c.clarifySafely(ctx, t, projects)
		if err != nil {
			id := ""
			if t != nil {
				id = t.ID
			}
			c.logger.Error(logging.WithTaskID(ctx, id), "clarification failed", zap.Error(err))
			out.Failures = append(out.Failures, Failure{TaskID: id, Err: err})
			continue
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

func (c *Clarifier) clarifySafely(ctx context.Context, t *tasks.Task, projects *tasks.ProjectStore) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Clarify(ctx, t, projects)
}

// Clarify runs one Inbox task through clarification. Tasks in any other
// status are left untouched and reported as skipped.
func (c *Clarifier) Clarify(ctx context.Context, t *tasks.Task, projects *tasks.ProjectStore) (res Result, err error) {
	if t == nil {
		return Result{}, errors.New("nil task")
	}
	if projects == nil {
		return Result{}, errors.New("nil project store")
	}
	ctx = logging.WithTaskID(ctx, t.ID)

	if t.Status != tasks.StatusInbox {
		c.logger.Info(ctx, "skipping task not in inbox", zap.String("status", string(t.Status)))
		return Result{TaskID: t.ID, Outcome: OutcomeSkipped}, nil
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "gtd.clarify")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", t.ID))
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	cl := c.assistant.Clarify(ctx, t.Description)
	res = Result{TaskID: t.ID, Rationale: cl.Rationale}

	// Inconclusive answers do not block the pipeline.
	if cl.Actionable == nil || !*cl.Actionable {
		t.SetActionable(false)
		if isSomedayMaybe(cl.Rationale) {
			t.Status = tasks.StatusSomedayMaybe
			res.Outcome = OutcomeSomedayMaybe
		} else {
			t.Status = tasks.StatusReference
			res.Outcome = OutcomeReference
		}
		span.SetAttributes(attribute.String("gtd.outcome", string(res.Outcome)))
		c.logger.Debug(ctx, "task not actionable",
			zap.String("status", string(t.Status)),
			zap.String("rationale", cl.Rationale),
		)
		return res, nil
	}

	t.SetActionable(true)
	if cl.IsProject == nil || !*cl.IsProject {
		t.Status = tasks.StatusNextAction
		t.Context = ContextFor(t.Description)
		res.Outcome = OutcomeNextAction
		span.SetAttributes(attribute.String("gtd.outcome", string(res.Outcome)))
		c.logger.Debug(ctx, "task is a next action", zap.String("context", t.Context))
		return res, nil
	}

	p, created := c.projectFor(t, cl.Outcome, projects)
	p.AddTask(t)
	t.Status = tasks.StatusProjectTask

	next := c.ensureNextAction(ctx, p, t)

	res.Outcome = OutcomeProject
	res.ProjectID = p.ID
	res.NextActionID = next.ID
	res.NewProject = created
	span.SetAttributes(
		attribute.String("gtd.outcome", string(res.Outcome)),
		attribute.String("project.id", p.ID),
		attribute.Bool("project.created", created),
	)
	c.logger.Info(ctx, "task assigned to project",
		zap.String("project", p.Name),
		zap.Bool("created", created),
		zap.String("next_action", next.Description),
	)
	return res, nil
}

// EnsureNextAction gives p a defined next action if it lacks one and returns
// it. Used for projects that arrive from importers without one.
func (c *Clarifier) EnsureNextAction(ctx context.Context, p *tasks.Project) *tasks.Task {
	if next := p.NextAction(); next != nil {
		return next
	}
	var trigger *tasks.Task
	for _, t := range p.Tasks {
		if t.Status != tasks.StatusDone {
			trigger = t
			break
		}
	}
	return c.ensureNextAction(ctx, p, trigger)
}

func (c *Clarifier) projectFor(t *tasks.Task, outcome string, projects *tasks.ProjectStore) (*tasks.Project, bool) {
	name := ProjectName(t.Description)
	if p, ok := projects.ByName(name); ok {
		if p.Outcome == "" {
			p.Outcome = outcome
		}
		return p, false
	}
	p := tasks.NewProject(name, c.now())
	p.Outcome = outcome
	projects.Add(p)
	return p, true
}

// ensureNextAction picks or creates p's next action. trigger is the task
// that caused the check and may be nil.
func (c *Clarifier) ensureNextAction(ctx context.Context, p *tasks.Project, trigger *tasks.Task) *tasks.Task {
	if next := p.NextAction(); next != nil {
		return next
	}

	suggestion := strings.TrimSpace(c.assistant.SuggestNextAction(ctx, p.Name, p.Outcome))

	var next *tasks.Task
	switch {
	case suggestion == "" && trigger != nil:
		next = trigger
	case trigger != nil && strings.EqualFold(suggestion, strings.TrimSpace(trigger.Description)):
		next = trigger
	case suggestion != "":
		next = p.FindTask(suggestion)
	}
	if next == nil {
		desc := suggestion
		if desc == "" {
			desc = "Define next step for " + p.Name
		}
		next = tasks.NewTask(desc, c.now())
		next.SetActionable(true)
		c.logger.Debug(ctx, "synthesized next action", zap.String("task", next.Description))
	}

	p.MarkNextAction(next)
	next.Context = ContextFor(next.Description)
	return next
}

// ProjectName derives a project name from a task description.
func ProjectName(description string) string {
	d := strings.TrimSpace(description)
	if r := []rune(d); len(r) > projectNameLen {
		d = strings.TrimSpace(string(r[:projectNameLen]))
	}
	return d
}

// ContextFor picks the context for a next action from its description.
func ContextFor(description string) string {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "email"), strings.Contains(d, "call"):
		return tasks.ContextCalls
	case strings.Contains(d, "buy"), strings.Contains(d, "shop"):
		return tasks.ContextErrands
	default:
		return tasks.ContextComputer
	}
}

func isSomedayMaybe(rationale string) bool {
	r := strings.ToLower(rationale)
	return strings.Contains(r, "someday") || strings.Contains(r, "maybe")
}
