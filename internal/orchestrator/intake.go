package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/importer"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"go.uber.org/zap"
)

// ErrNotMaterializable is returned by Materialize for captures that are
// dispatched rather than tracked as tasks.
var ErrNotMaterializable = errors.New("capture does not become a task")

// Materialize turns an actionable-task or project-idea capture into an Inbox
// task in the store. The task reuses the capture id, so materializing the
// same capture twice replaces the earlier task.
func (w *Workflow) Materialize(ctx context.Context, p capture.Processed) (*tasks.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx = logging.WithCaptureID(ctx, p.Original.ID())
	var t *tasks.Task
	switch p.Nature {
	case capture.NatureTask:
		f, ok := p.Task()
		if !ok {
			return nil, fmt.Errorf("task capture carries %T", p.Data)
		}
		t = tasks.NewTask(f.Title, p.Original.Timestamp())
		t.Notes = notesWithTags(f.Description, f.Tags)
		t.DueDate = f.DueDate
		if f.Priority >= 1 && f.Priority <= tasks.DefaultPriority {
			t.Priority = f.Priority
		}
	case capture.NatureProjectIdea:
		f, ok := p.Idea()
		if !ok {
			return nil, fmt.Errorf("project idea capture carries %T", p.Data)
		}
		t = tasks.NewTask(f.Title, p.Original.Timestamp())
		t.Notes = notesWithTags(f.Description, f.Tags)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotMaterializable, p.Nature)
	}
	if strings.TrimSpace(t.Description) == "" {
		return nil, fmt.Errorf("%w: empty title", ErrNotMaterializable)
	}
	t.ID = p.Original.ID()
	w.tasks.Add(t)

	w.logger.Info(logging.WithTaskID(ctx, t.ID), "capture added to inbox",
		zap.String("nature", string(p.Nature)),
		zap.String("task", t.Description),
	)
	return t, nil
}

// AbsorbReport counts what Absorb stored.
type AbsorbReport struct {
	Tasks    int
	Projects int
	// NextActions counts imported projects that were given a next action.
	NextActions int
}

// Absorb upserts an importer result into the stores. Imported projects with
// open tasks but no defined next action get one, the same way clarification
// would pick it.
func (w *Workflow) Absorb(ctx context.Context, res *importer.Result) (AbsorbReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var rep AbsorbReport
	if res == nil {
		return rep, nil
	}
	for _, p := range res.Projects {
		if p == nil || p.ID == "" {
			return rep, errors.New("import contains a project without id")
		}
	}
	for _, t := range res.Tasks {
		if t == nil || t.ID == "" {
			return rep, errors.New("import contains a task without id")
		}
	}

	// Re-imports bring fresh objects for ids already stored. Stale copies
	// leave their projects, and members the export does not list (such as a
	// synthesized next action) move to the incoming project.
	for _, t := range res.Tasks {
		if old, ok := w.tasks.Get(t.ID); ok && old != t && old.Project != nil {
			old.Project.RemoveTask(old)
		}
	}
	for _, p := range res.Projects {
		if old, ok := w.projects.Get(p.ID); ok && old != p {
			p.Adopt(old)
		}
		w.projects.Add(p)
		rep.Projects++
	}
	for _, t := range res.Tasks {
		w.tasks.Add(t)
		rep.Tasks++
	}
	for _, p := range res.Projects {
		if p.NextAction() != nil || !hasOpenTask(p) {
			continue
		}
		next := w.clarifier.EnsureNextAction(ctx, p)
		rep.NextActions++
		w.logger.Debug(logging.WithTaskID(ctx, next.ID), "next action set for imported project",
			zap.String("project", p.Name))
	}
	tasks.Absorb(w.tasks, w.projects)

	w.logger.Info(ctx, "import absorbed",
		zap.Int("tasks", rep.Tasks),
		zap.Int("projects", rep.Projects),
		zap.Int("next_actions", rep.NextActions),
	)
	return rep, nil
}

func hasOpenTask(p *tasks.Project) bool {
	for _, t := range p.Tasks {
		if t.Status != tasks.StatusDone {
			return true
		}
	}
	return false
}

func notesWithTags(desc string, tags []string) string {
	if len(tags) == 0 {
		return desc
	}
	hashed := make([]string, len(tags))
	for i, tag := range tags {
		hashed[i] = "#" + strings.TrimPrefix(tag, "#")
	}
	if desc == "" {
		return strings.Join(hashed, " ")
	}
	return desc + "\n" + strings.Join(hashed, " ")
}
