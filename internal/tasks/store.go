package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrTaskNotFound is returned when an update or delete names an unknown task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrProjectNotFound is returned when an update or delete names an unknown project.
	ErrProjectNotFound = errors.New("project not found")
)

// TaskStore owns all known tasks by id. It is not safe for concurrent use;
// the workflow mutates it from a single goroutine.
type TaskStore struct {
	byID map[string]*Task
}

// NewTaskStore returns an empty store.
func NewTaskStore() *TaskStore {
	return &TaskStore{byID: make(map[string]*Task)}
}

// Add inserts t, replacing any task with the same id in place.
func (s *TaskStore) Add(t *Task) {
	s.byID[t.ID] = t
}

// Get returns the task with id.
func (s *TaskStore) Get(id string) (*Task, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Update replaces an existing task.
func (s *TaskStore) Update(t *Task) error {
	if _, ok := s.byID[t.ID]; !ok {
		return fmt.Errorf("update task %s: %w", t.ID, ErrTaskNotFound)
	}
	s.byID[t.ID] = t
	return nil
}

// Delete removes a task and unlinks it from its project.
func (s *TaskStore) Delete(id string) error {
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("delete task %s: %w", id, ErrTaskNotFound)
	}
	if t.Project != nil {
		t.Project.RemoveTask(t)
	}
	t.NextActionFor = nil
	delete(s.byID, id)
	return nil
}

// List returns all tasks ordered by creation time, then id.
func (s *TaskStore) List() []*Task {
	out := make([]*Task, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// ByStatus returns tasks in status, in List order.
func (s *TaskStore) ByStatus(status Status) []*Task {
	var out []*Task
	for _, t := range s.List() {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int { return len(s.byID) }

// ProjectStore owns all known projects by id. Same concurrency rules as
// TaskStore.
type ProjectStore struct {
	byID map[string]*Project
}

// NewProjectStore returns an empty store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{byID: make(map[string]*Project)}
}

// Add inserts p, replacing any project with the same id in place.
func (s *ProjectStore) Add(p *Project) {
	s.byID[p.ID] = p
}

// Get returns the project with id.
func (s *ProjectStore) Get(id string) (*Project, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// ByName finds a project by case-insensitive name.
func (s *ProjectStore) ByName(name string) (*Project, bool) {
	for _, p := range s.List() {
		if equalFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// Update replaces an existing project.
func (s *ProjectStore) Update(p *Project) error {
	if _, ok := s.byID[p.ID]; !ok {
		return fmt.Errorf("update project %s: %w", p.ID, ErrProjectNotFound)
	}
	s.byID[p.ID] = p
	return nil
}

// Delete removes a project and detaches its tasks.
func (s *ProjectStore) Delete(id string) error {
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("delete project %s: %w", id, ErrProjectNotFound)
	}
	for _, t := range append([]*Task(nil), p.Tasks...) {
		p.RemoveTask(t)
	}
	delete(s.byID, id)
	return nil
}

// List returns all projects ordered by creation time, then id.
func (s *ProjectStore) List() []*Project {
	out := make([]*Project, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// Len returns the number of projects.
func (s *ProjectStore) Len() int { return len(s.byID) }

// Absorb adds every member of a project in ps that ts does not know yet and
// returns how many were added.
func Absorb(ts *TaskStore, ps *ProjectStore) int {
	added := 0
	for _, p := range ps.List() {
		for _, t := range p.Tasks {
			if _, ok := ts.byID[t.ID]; !ok {
				ts.byID[t.ID] = t
				added++
			}
		}
	}
	return added
}

func createdBefore(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return idA < idB
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
