package tasks

import (
	"time"

	"github.com/google/uuid"
)

// Status is a task's position in the GTD lifecycle.
type Status string

const (
	StatusInbox        Status = "inbox"
	StatusNextAction   Status = "next_action"
	StatusProjectTask  Status = "project_task"
	StatusWaitingFor   Status = "waiting_for"
	StatusSomedayMaybe Status = "someday_maybe"
	StatusReference    Status = "reference"
	StatusDone         Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Statuses lists every task status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusInbox, StatusNextAction, StatusProjectTask, StatusWaitingFor,
		StatusSomedayMaybe, StatusReference, StatusDone,
	}
}

// Prioritizable reports whether tasks in this status take part in
// Eisenhower prioritization.
func (s Status) Prioritizable() bool {
	return s != StatusReference && s != StatusSomedayMaybe && s != StatusDone
}

// Quadrant is an Eisenhower matrix cell.
type Quadrant string

const (
	QuadrantDo       Quadrant = "do"       // urgent and important
	QuadrantDecide   Quadrant = "decide"   // important, not urgent
	QuadrantDelegate Quadrant = "delegate" // urgent, not important
	QuadrantDelete   Quadrant = "delete"   // neither
)

// QuadrantFor maps the two axes onto a quadrant.
func QuadrantFor(urgent, important bool) Quadrant {
	switch {
	case urgent && important:
		return QuadrantDo
	case important:
		return QuadrantDecide
	case urgent:
		return QuadrantDelegate
	default:
		return QuadrantDelete
	}
}

// Contexts assigned to next actions.
const (
	ContextCalls    = "@calls"
	ContextErrands  = "@errands"
	ContextComputer = "@computer"
)

// DefaultPriority is the lowest priority, used when none is known.
const DefaultPriority = 4

// Task is a unit of work. Project and NextActionFor are maintained through
// Project methods; do not assign them directly.
type Task struct {
	ID            string
	Description   string
	Notes         string
	Status        Status
	Project       *Project
	Context       string
	DueDate       *time.Time
	NextActionFor []*Project
	Quadrant      *Quadrant
	IsActionable  *bool
	Priority      int
	CreatedAt     time.Time
}

// NewTask creates an Inbox task with a fresh id.
func NewTask(description string, now time.Time) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Description: description,
		Status:      StatusInbox,
		Priority:    DefaultPriority,
		CreatedAt:   now,
	}
}

// ProjectID returns the owning project id or "".
func (t *Task) ProjectID() string {
	if t.Project == nil {
		return ""
	}
	return t.Project.ID
}

// SetQuadrant records the prioritization outcome.
func (t *Task) SetQuadrant(q Quadrant) {
	t.Quadrant = &q
}

// SetActionable records the clarification outcome.
func (t *Task) SetActionable(v bool) {
	t.IsActionable = &v
}

// IsNextActionFor reports whether p is listed in t.NextActionFor.
func (t *Task) IsNextActionFor(p *Project) bool {
	for _, q := range t.NextActionFor {
		if q == p {
			return true
		}
	}
	return false
}

// DueWithin reports whether the task is due at or before now+window.
// Overdue tasks count as due within any window.
func (t *Task) DueWithin(now time.Time, window time.Duration) bool {
	if t.DueDate == nil {
		return false
	}
	return !t.DueDate.After(now.Add(window))
}
