package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/assistant"
	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/importer"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// MockCollaborator is a mock implementation of assistant.Collaborator.
// available controls whether the prioritizer trusts its assessments.
type MockCollaborator struct {
	mock.Mock
	available bool
}

func (m *MockCollaborator) Available() bool { return m.available }

func (m *MockCollaborator) Clarify(ctx context.Context, description string) assistant.Clarification {
	args := m.Called(ctx, description)
	return args.Get(0).(assistant.Clarification)
}

func (m *MockCollaborator) SuggestNextAction(ctx context.Context, project, outcome string) string {
	args := m.Called(ctx, project, outcome)
	return args.String(0)
}

func (m *MockCollaborator) AssessPriority(ctx context.Context, description string) assistant.Assessment {
	args := m.Called(ctx, description)
	return args.Get(0).(assistant.Assessment)
}

func yes() *bool { v := true; return &v }
func no() *bool  { v := false; return &v }

func newWorkflow(collab assistant.Collaborator, logger *logging.Logger) *Workflow {
	return New(nil, nil, Options{Assistant: collab, Logger: logger, Now: clock})
}

func taskCapture(title string, priority int, due *time.Time) capture.Processed {
	item := capture.NewManual(capture.ManualEntry{Title: title, Priority: priority, DueDate: due}, now)
	return capture.Processed{
		Original:    item,
		Nature:      capture.NatureTask,
		Data:        capture.TaskFields{Title: title, Priority: priority, DueDate: due},
		Destination: capture.DestTaskTracker,
	}
}

func TestRun_ShipReleaseBecomesDo(t *testing.T) {
	collab := &MockCollaborator{}
	collab.On("Clarify", mock.Anything, "Ship release").
		Return(assistant.Clarification{Actionable: yes(), IsProject: no(), Rationale: "single step"})

	wf := newWorkflow(collab, nil)
	tomorrow := now.Add(24 * time.Hour)
	task, err := wf.Materialize(context.Background(), taskCapture("Ship release", 1, &tomorrow))
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusInbox, task.Status)

	report, err := wf.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tasks.StatusNextAction, task.Status)
	assert.Equal(t, tasks.ContextComputer, task.Context)
	require.NotNil(t, task.Quadrant)
	assert.Equal(t, tasks.QuadrantDo, *task.Quadrant)
	assert.Equal(t, 1, report.Clarified)
	assert.Equal(t, 1, report.Prioritized)
	assert.Empty(t, report.Failures)
	assert.NotEmpty(t, report.RunID)
	collab.AssertExpectations(t)
}

func TestRun_ReferenceUntouched(t *testing.T) {
	collab := &MockCollaborator{available: true}
	wf := newWorkflow(collab, nil)

	ref := tasks.NewTask("Team handbook", now)
	ref.Status = tasks.StatusReference
	wf.Tasks().Add(ref)

	report, err := wf.Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, ref.Quadrant)
	assert.Equal(t, tasks.StatusReference, ref.Status)
	assert.Equal(t, 0, report.Clarified)
	assert.Equal(t, 1, report.Skipped)
	collab.AssertNotCalled(t, "Clarify", mock.Anything, mock.Anything)
	collab.AssertNotCalled(t, "AssessPriority", mock.Anything, mock.Anything)
}

func TestRun_ProjectGetsExactlyOneNextAction(t *testing.T) {
	collab := &MockCollaborator{}
	collab.On("Clarify", mock.Anything, "Plan offsite").
		Return(assistant.Clarification{Actionable: yes(), IsProject: yes(), Outcome: "offsite booked"})
	collab.On("SuggestNextAction", mock.Anything, "Plan offsite", "offsite booked").Return("Email venue")

	wf := newWorkflow(collab, nil)
	trigger := tasks.NewTask("Plan offsite", now)
	wf.Tasks().Add(trigger)

	report, err := wf.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, wf.Projects().Len())
	p := wf.Projects().List()[0]
	assert.Equal(t, "offsite booked", p.Outcome)
	assert.Same(t, p, trigger.Project)
	assert.Equal(t, tasks.StatusProjectTask, trigger.Status)

	var nextActions []*tasks.Task
	for _, task := range p.Tasks {
		if task.Status == tasks.StatusNextAction && task.IsNextActionFor(p) {
			nextActions = append(nextActions, task)
		}
	}
	require.Len(t, nextActions, 1)
	next := nextActions[0]
	assert.Equal(t, "Email venue", next.Description)
	assert.Equal(t, tasks.ContextCalls, next.Context)

	_, stored := wf.Tasks().Get(next.ID)
	assert.True(t, stored, "synthesized next action joins the task store")
	assert.NotNil(t, next.Quadrant, "and is prioritized in the same run")
	assert.Equal(t, 2, report.Prioritized)
}

func TestRun_IsolatesTaskFailures(t *testing.T) {
	collab := &MockCollaborator{}
	collab.On("Clarify", mock.Anything, "explodes").Run(func(mock.Arguments) { panic("boom") })
	collab.On("Clarify", mock.Anything, "Buy milk").
		Return(assistant.Clarification{Actionable: yes(), IsProject: no()})

	logger := logging.NewTestLogger()
	wf := newWorkflow(collab, logger.Logger)
	bad := tasks.NewTask("explodes", now)
	good := tasks.NewTask("Buy milk", now.Add(time.Second))
	wf.Tasks().Add(bad)
	wf.Tasks().Add(good)

	report, err := wf.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, bad.ID, report.Failures[0].TaskID)
	assert.Equal(t, PhaseClarify, report.Failures[0].Phase)
	assert.ErrorContains(t, report.Failures[0].Err, "boom")

	assert.Equal(t, tasks.StatusNextAction, good.Status)
	assert.Equal(t, tasks.ContextErrands, good.Context)
	assert.Equal(t, tasks.StatusInbox, bad.Status)

	m := wf.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues(string(PhaseClarify))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClarifiedTotal.WithLabelValues("next_action")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tasks.WithLabelValues(string(tasks.StatusInbox))))
	logger.AssertLogged(t, zapcore.ErrorLevel, "clarification failed")
	logger.AssertLogged(t, zapcore.InfoLevel, "workflow run complete")
}

func TestRun_CancelledContext(t *testing.T) {
	wf := newWorkflow(nil, nil)
	task := tasks.NewTask("anything", now)
	wf.Tasks().Add(task)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := wf.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, tasks.StatusInbox, task.Status)
	assert.Nil(t, task.Quadrant)
}

func TestRun_ReportsProgressAndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	wf := newWorkflow(nil, nil)
	wf.Tasks().Add(tasks.NewTask("Read article", now))

	var got []PhaseProgress
	wf.OnProgress(func(p PhaseProgress) { got = append(got, p) })

	_, err := wf.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, PhaseClarify, got[0].Phase)
	assert.Equal(t, StatusStarted, got[0].Status)
	assert.Equal(t, 1, got[0].Tasks)
	assert.Equal(t, StatusCompleted, got[1].Status)
	assert.Equal(t, PhasePrioritize, got[2].Phase)
	assert.Equal(t, PhasePrioritize, got[3].Phase)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "workflow.run")
}

func TestMaterialize(t *testing.T) {
	wf := newWorkflow(nil, nil)
	ctx := context.Background()

	p := taskCapture("Renew passport", 2, nil)
	first, err := wf.Materialize(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p.Original.ID(), first.ID)
	assert.Equal(t, 2, first.Priority)

	_, err = wf.Materialize(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, wf.Tasks().Len(), "same capture replaces its task")

	idea := capture.Processed{
		Original:    capture.NewText(capture.SourceOther, "idea: garden app", now),
		Nature:      capture.NatureProjectIdea,
		Data:        capture.IdeaFields{Title: "Garden app", Description: "track watering", Tags: []string{"side"}},
		Destination: capture.DestReviewLater,
	}
	task, err := wf.Materialize(ctx, idea)
	require.NoError(t, err)
	assert.Equal(t, "track watering\n#side", task.Notes)
	assert.Equal(t, tasks.DefaultPriority, task.Priority)

	event := capture.Processed{
		Original: capture.NewText(capture.SourceOther, "Meeting at 2pm", now),
		Nature:   capture.NatureEvent,
		Data:     capture.EventFields{Title: "Meeting", Start: now, End: now.Add(time.Hour)},
	}
	_, err = wf.Materialize(ctx, event)
	assert.ErrorIs(t, err, ErrNotMaterializable)
	assert.Equal(t, 2, wf.Tasks().Len())
}

func TestAbsorb(t *testing.T) {
	p := tasks.NewProject("Website", now)
	p.ID = "todoist-1"
	done := tasks.NewTask("Buy domain", now)
	done.ID = "todoist-10"
	done.Status = tasks.StatusDone
	open := tasks.NewTask("Write copy", now.Add(time.Second))
	open.ID = "todoist-11"
	p.AddTask(done)
	p.AddTask(open)

	finished := tasks.NewProject("Old", now)
	finished.ID = "todoist-2"
	old := tasks.NewTask("Archived", now)
	old.ID = "todoist-20"
	old.Status = tasks.StatusDone
	finished.AddTask(old)

	res := &importer.Result{
		Projects: []*tasks.Project{p, finished},
		Tasks:    []*tasks.Task{done, open, old},
	}
	wf := newWorkflow(nil, nil)

	rep, err := wf.Absorb(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, AbsorbReport{Tasks: 3, Projects: 2, NextActions: 1}, rep)

	assert.Same(t, open, p.NextAction())
	assert.Equal(t, tasks.ContextComputer, open.Context)
	assert.Nil(t, finished.NextAction())

	// Absorbing the same export again upserts.
	_, err = wf.Absorb(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, 3, wf.Tasks().Len())
	assert.Equal(t, 2, wf.Projects().Len())

	_, err = wf.Absorb(context.Background(), &importer.Result{Tasks: []*tasks.Task{{}}})
	assert.Error(t, err)
}

func TestAbsorb_ReimportKeepsOneNextAction(t *testing.T) {
	const export = `{"projects": [{"id": "p1", "name": "Renovation",
		"tasks": [{"id": "t1", "content": "Pick tiles", "priority": 1}]}]}`
	collab := &MockCollaborator{}
	collab.On("SuggestNextAction", mock.Anything, "Renovation", mock.Anything).Return("Email contractor")
	wf := newWorkflow(collab, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := importer.ParseTodoist(strings.NewReader(export), importer.TodoistOptions{Now: now, Location: time.UTC})
		require.NoError(t, err)
		_, err = wf.Absorb(ctx, res)
		require.NoError(t, err)
	}

	stored, ok := wf.Projects().Get("todoist-p1")
	require.True(t, ok)
	assert.Equal(t, 1, wf.Projects().Len())

	var claiming []*tasks.Task
	for _, task := range wf.Tasks().List() {
		if task.Status == tasks.StatusNextAction && task.ProjectID() == "todoist-p1" {
			claiming = append(claiming, task)
		}
	}
	require.Len(t, claiming, 1)
	next := claiming[0]
	assert.Equal(t, "Email contractor", next.Description)
	assert.Same(t, stored, next.Project)
	assert.Same(t, next, stored.NextAction())

	require.Len(t, stored.Tasks, 2)
	for _, member := range stored.Tasks {
		assert.Same(t, stored, member.Project)
		got, ok := wf.Tasks().Get(member.ID)
		require.True(t, ok)
		assert.Same(t, member, got)
	}
	assert.Equal(t, 2, wf.Tasks().Len())
	collab.AssertNumberOfCalls(t, "SuggestNextAction", 1)
}

func TestAbsorb_TaskMovedBetweenProjects(t *testing.T) {
	wf := newWorkflow(nil, nil)
	ctx := context.Background()

	first, err := importer.ParseTodoist(strings.NewReader(`{"projects": [
		{"id": "a", "name": "Garden", "tasks": [{"id": "t1", "content": "Buy seeds"}]}]}`),
		importer.TodoistOptions{Now: now, Location: time.UTC})
	require.NoError(t, err)
	_, err = wf.Absorb(ctx, first)
	require.NoError(t, err)

	second, err := importer.ParseTodoist(strings.NewReader(`{"projects": [
		{"id": "b", "name": "Kitchen", "tasks": [{"id": "t1", "content": "Buy seeds"}]}]}`),
		importer.TodoistOptions{Now: now, Location: time.UTC})
	require.NoError(t, err)
	_, err = wf.Absorb(ctx, second)
	require.NoError(t, err)

	garden, ok := wf.Projects().Get("todoist-a")
	require.True(t, ok)
	assert.Empty(t, garden.Tasks)
	assert.Nil(t, garden.NextAction())

	task, ok := wf.Tasks().Get("todoist-t1")
	require.True(t, ok)
	assert.Equal(t, "todoist-b", task.ProjectID())
}

func TestWriteMetrics(t *testing.T) {
	wf := newWorkflow(nil, nil)
	wf.Tasks().Add(tasks.NewTask("Read article", now))
	_, err := wf.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "taskpri.prom")
	require.NoError(t, wf.WriteMetrics(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `taskpri_clarified_total{outcome="reference"} 1`)
	assert.Contains(t, string(b), "taskpri_workflow_duration_seconds_count 1")
}
