package tasks

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProjectStatus is assigned to new projects.
const DefaultProjectStatus = "Active"

// Project is a multi-step outcome owning an ordered list of tasks.
type Project struct {
	ID        string
	Name      string
	Outcome   string
	Tasks     []*Task
	Status    string
	CreatedAt time.Time
}

// NewProject creates an active project with a fresh id.
func NewProject(name string, now time.Time) *Project {
	return &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    DefaultProjectStatus,
		CreatedAt: now,
	}
}

// AddTask attaches t to p, detaching it from any previous project. Adding a
// task that is already a member is a no-op.
func (p *Project) AddTask(t *Task) {
	if t.Project == p && p.indexOf(t) >= 0 {
		return
	}
	if t.Project != nil && t.Project != p {
		t.Project.RemoveTask(t)
	}
	t.Project = p
	if p.indexOf(t) < 0 {
		p.Tasks = append(p.Tasks, t)
	}
}

// RemoveTask detaches t from p. The task stops being p's next action.
func (p *Project) RemoveTask(t *Task) {
	if i := p.indexOf(t); i >= 0 {
		p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
	}
	if t.Project == p {
		t.Project = nil
	}
	t.unmarkNextAction(p)
}

// MarkNextAction makes t, which must belong to p, the project's next action.
// It is added to p if needed.
func (p *Project) MarkNextAction(t *Task) {
	p.AddTask(t)
	t.Status = StatusNextAction
	if !t.IsNextActionFor(p) {
		t.NextActionFor = append(t.NextActionFor, p)
	}
}

// NextAction returns the task that is in NextAction status and lists p in
// NextActionFor, or nil when the project has no defined next action.
func (p *Project) NextAction() *Task {
	for _, t := range p.Tasks {
		if t.Status == StatusNextAction && t.IsNextActionFor(p) {
			return t
		}
	}
	return nil
}

// Adopt moves every member of old into p, keeping old's next action as p's
// when p has none. Used when a project is replaced by a newer copy with the
// same id.
func (p *Project) Adopt(old *Project) {
	if old == nil || old == p {
		return
	}
	members := append([]*Task(nil), old.Tasks...)
	for _, t := range members {
		wasNext := t.IsNextActionFor(old)
		p.AddTask(t)
		if wasNext && p.NextAction() == nil {
			p.MarkNextAction(t)
		}
	}
}

// FindTask returns the first member whose description equals desc under
// Unicode case folding.
func (p *Project) FindTask(desc string) *Task {
	for _, t := range p.Tasks {
		if equalFold(t.Description, desc) {
			return t
		}
	}
	return nil
}

func (p *Project) indexOf(t *Task) int {
	for i, member := range p.Tasks {
		if member == t {
			return i
		}
	}
	return -1
}

func (t *Task) unmarkNextAction(p *Project) {
	for i, q := range t.NextActionFor {
		if q == p {
			t.NextActionFor = append(t.NextActionFor[:i], t.NextActionFor[i+1:]...)
			return
		}
	}
}
