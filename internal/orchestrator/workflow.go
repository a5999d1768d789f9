package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/assistant"
	"github.com/albeorla/task-pri-lite-sub001/internal/eisenhower"
	"github.com/albeorla/task-pri-lite-sub001/internal/gtd"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/albeorla/task-pri-lite-sub001/internal/orchestrator"

// Phase is a step of a workflow run.
type Phase string

const (
	PhaseClarify    Phase = "clarify"
	PhasePrioritize Phase = "prioritize"
)

// PhaseStatus is reported with progress updates.
type PhaseStatus string

const (
	StatusStarted   PhaseStatus = "started"
	StatusCompleted PhaseStatus = "completed"
)

// PhaseProgress reports progress during a run.
type PhaseProgress struct {
	Phase   Phase
	Status  PhaseStatus
	Message string
	// Tasks is the size of the batch the phase works on.
	Tasks int
}

// ProgressCallback receives progress updates during a run.
type ProgressCallback func(progress PhaseProgress)

// TaskFailure is a per-task error from either phase.
type TaskFailure struct {
	TaskID string
	Phase  Phase
	Err    error
}

// Report summarizes a run.
type Report struct {
	RunID string
	// Clarified counts Inbox tasks that left the Inbox.
	Clarified int
	// Prioritized counts tasks assigned a quadrant.
	Prioritized int
	// Skipped counts tasks the prioritizer left alone.
	Skipped  int
	Failures []TaskFailure
	Duration time.Duration

	Clarification  gtd.Batch
	Prioritization eisenhower.Batch
}

// Options configure a Workflow. Zero values pick defaults.
type Options struct {
	Assistant     assistant.Collaborator
	UrgencyWindow time.Duration
	Logger        *logging.Logger
	Now           func() time.Time
	Metrics       *Metrics
}

// Workflow owns the task and project stores for a session. Methods must not
// be called concurrently with each other; Run is serialized internally.
type Workflow struct {
	mu          sync.Mutex
	tasks       *tasks.TaskStore
	projects    *tasks.ProjectStore
	clarifier   *gtd.Clarifier
	prioritizer *eisenhower.Prioritizer
	logger      *logging.Logger
	metrics     *Metrics
	now         func() time.Time
	progress    ProgressCallback
}

// New creates a workflow over ts and ps. Nil stores are replaced by empty ones.
func New(ts *tasks.TaskStore, ps *tasks.ProjectStore, opts Options) *Workflow {
	if ts == nil {
		ts = tasks.NewTaskStore()
	}
	if ps == nil {
		ps = tasks.NewProjectStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	return &Workflow{
		tasks:       ts,
		projects:    ps,
		clarifier:   gtd.NewClarifier(opts.Assistant, opts.Logger, opts.Now),
		prioritizer: eisenhower.NewPrioritizer(opts.Assistant, opts.UrgencyWindow, opts.Logger, opts.Now),
		logger:      opts.Logger.Named("workflow"),
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
}

// Tasks returns the task store.
func (w *Workflow) Tasks() *tasks.TaskStore { return w.tasks }

// Projects returns the project store.
func (w *Workflow) Projects() *tasks.ProjectStore { return w.projects }

// Metrics returns the workflow metrics.
func (w *Workflow) Metrics() *Metrics { return w.metrics }

// OnProgress sets the progress callback.
func (w *Workflow) OnProgress(cb ProgressCallback) {
	w.progress = cb
}

// Run clarifies every Inbox task, then prioritizes every task in the store.
// Tasks created by clarification (synthesized next actions) join the task
// store before prioritization. Per-task failures are reported, not returned;
// the error is non-nil only when ctx ends the run early.
func (w *Workflow) Run(ctx context.Context) (*Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := w.now()
	report := &Report{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, report.RunID)

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "workflow.run")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", report.RunID))

	finish := func(err error) (*Report, error) {
		report.Duration = w.now().Sub(start)
		w.metrics.RunDuration.Observe(report.Duration.Seconds())
		w.recordTaskGauge()
		span.SetAttributes(
			attribute.Int("tasks.clarified", report.Clarified),
			attribute.Int("tasks.prioritized", report.Prioritized),
			attribute.Int("tasks.failed", len(report.Failures)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			w.logger.Warn(ctx, "workflow run interrupted", zap.Error(err))
			return report, fmt.Errorf("workflow run: %w", err)
		}
		w.logger.Info(ctx, "workflow run complete",
			zap.Int("clarified", report.Clarified),
			zap.Int("prioritized", report.Prioritized),
			zap.Int("skipped", report.Skipped),
			zap.Int("failures", len(report.Failures)),
			zap.Duration("duration", report.Duration),
		)
		return report, nil
	}

	inbox := w.tasks.ByStatus(tasks.StatusInbox)
	w.reportProgress(PhaseProgress{Phase: PhaseClarify, Status: StatusStarted, Tasks: len(inbox),
		Message: fmt.Sprintf("clarifying %d inbox tasks", len(inbox))})

	clarified, err := w.clarifier.ClarifyAll(ctx, inbox, w.projects)
	report.Clarification = clarified
	for _, r := range clarified.Results {
		w.metrics.ClarifiedTotal.WithLabelValues(string(r.Outcome)).Inc()
		if r.Outcome != gtd.OutcomeSkipped {
			report.Clarified++
		}
	}
	for _, f := range clarified.Failures {
		w.metrics.FailuresTotal.WithLabelValues(string(PhaseClarify)).Inc()
		report.Failures = append(report.Failures, TaskFailure{TaskID: f.TaskID, Phase: PhaseClarify, Err: f.Err})
	}
	if added := tasks.Absorb(w.tasks, w.projects); added > 0 {
		w.logger.Debug(ctx, "synthesized tasks added to store", zap.Int("count", added))
	}
	w.reportProgress(PhaseProgress{Phase: PhaseClarify, Status: StatusCompleted, Tasks: len(inbox),
		Message: fmt.Sprintf("clarified %d tasks, %d failed", report.Clarified, len(clarified.Failures))})
	if err != nil {
		return finish(err)
	}

	all := w.tasks.List()
	w.reportProgress(PhaseProgress{Phase: PhasePrioritize, Status: StatusStarted, Tasks: len(all),
		Message: fmt.Sprintf("prioritizing %d tasks", len(all))})

	prioritized, err := w.prioritizer.PrioritizeAll(ctx, all)
	report.Prioritization = prioritized
	for _, r := range prioritized.Results {
		if r.Skipped {
			report.Skipped++
			continue
		}
		report.Prioritized++
		w.metrics.PrioritizedTotal.WithLabelValues(string(r.Quadrant)).Inc()
	}
	for _, f := range prioritized.Failures {
		w.metrics.FailuresTotal.WithLabelValues(string(PhasePrioritize)).Inc()
		report.Failures = append(report.Failures, TaskFailure{TaskID: f.TaskID, Phase: PhasePrioritize, Err: f.Err})
	}
	w.reportProgress(PhaseProgress{Phase: PhasePrioritize, Status: StatusCompleted, Tasks: len(all),
		Message: fmt.Sprintf("prioritized %d tasks, skipped %d", report.Prioritized, report.Skipped)})

	return finish(err)
}

// WriteMetrics writes the workflow metrics to a textfile.
func (w *Workflow) WriteMetrics(path string) error {
	if err := w.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func (w *Workflow) recordTaskGauge() {
	counts := make(map[tasks.Status]int)
	for _, t := range w.tasks.List() {
		counts[t.Status]++
	}
	for _, s := range tasks.Statuses() {
		w.metrics.Tasks.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

func (w *Workflow) reportProgress(p PhaseProgress) {
	if w.progress != nil {
		w.progress(p)
	}
}
