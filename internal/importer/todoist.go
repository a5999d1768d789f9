package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
)

// TodoistIDPrefix prefixes ids of tasks and projects imported from Todoist.
const TodoistIDPrefix = "todoist-"

type todoistExport struct {
	Projects []todoistProject `json:"projects"`
	Tasks    []todoistTask    `json:"tasks"`
}

type todoistProject struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	IsInboxProject bool             `json:"is_inbox_project"`
	Sections       []todoistSection `json:"sections"`
	Tasks          []todoistTask    `json:"tasks"`
	ChildProjects  []todoistProject `json:"child_projects"`
}

type todoistSection struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Tasks []todoistTask `json:"tasks"`
}

type todoistTask struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	Description string        `json:"description"`
	ProjectID   string        `json:"project_id"`
	IsCompleted bool          `json:"is_completed"`
	Labels      []string      `json:"labels"`
	Priority    int           `json:"priority"`
	Due         *todoistDue   `json:"due"`
	CreatedAt   *time.Time    `json:"created_at"`
	SubTasks    []todoistTask `json:"sub_tasks"`
}

type todoistDue struct {
	Date     string `json:"date"`
	Datetime string `json:"datetime"`
}

// TodoistOptions tune the Todoist import.
type TodoistOptions struct {
	// Now stamps tasks that carry no created_at.
	Now time.Time
	// Location is used for due dates without a zone. Defaults to time.Local.
	Location *time.Location
}

// ParseTodoist reads a Todoist data export. Projects (including child
// projects, flattened as "Parent / Child") become projects; tasks nested in
// sections and sub-tasks are flattened into their project. Tasks of the
// Todoist inbox project stay unassigned.
func ParseTodoist(r io.Reader, opts TodoistOptions) (*Result, error) {
	var export todoistExport
	dec := json.NewDecoder(r)
	if err := dec.Decode(&export); err != nil {
		return nil, invalid("decoding todoist export: %v", err)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	b := &todoistBuilder{
		opts:     opts,
		res:      &Result{},
		projects: make(map[string]*tasks.Project),
		seen:     make(map[string]bool),
	}
	for _, p := range export.Projects {
		if err := b.addProject(p, ""); err != nil {
			return nil, err
		}
	}
	for i, t := range export.Tasks {
		if err := b.addTask(t, b.projects[t.ProjectID], ""); err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	return b.res, nil
}

type todoistBuilder struct {
	opts     TodoistOptions
	res      *Result
	projects map[string]*tasks.Project
	seen     map[string]bool
}

func (b *todoistBuilder) addProject(tp todoistProject, parent string) error {
	if tp.ID == "" || strings.TrimSpace(tp.Name) == "" {
		return invalid("project needs id and name (id %q)", tp.ID)
	}
	if _, dup := b.projects[tp.ID]; dup {
		return invalid("duplicate project id %q", tp.ID)
	}
	name := strings.TrimSpace(tp.Name)
	if parent != "" {
		name = parent + " / " + name
	}

	var p *tasks.Project
	if !tp.IsInboxProject {
		p = tasks.NewProject(name, b.opts.Now)
		p.ID = TodoistIDPrefix + tp.ID
		b.res.Projects = append(b.res.Projects, p)
	}
	b.projects[tp.ID] = p

	for _, t := range tp.Tasks {
		if err := b.addTask(t, p, ""); err != nil {
			return fmt.Errorf("project %q: %w", name, err)
		}
	}
	for _, s := range tp.Sections {
		for _, t := range s.Tasks {
			if err := b.addTask(t, p, s.Name); err != nil {
				return fmt.Errorf("project %q section %q: %w", name, s.Name, err)
			}
		}
	}
	for _, child := range tp.ChildProjects {
		if err := b.addProject(child, name); err != nil {
			return err
		}
	}
	return nil
}

// addTask adds tt and its sub-tasks. p may be nil.
func (b *todoistBuilder) addTask(tt todoistTask, p *tasks.Project, section string) error {
	if tt.ID == "" || strings.TrimSpace(tt.Content) == "" {
		return invalid("task needs id and content (id %q)", tt.ID)
	}
	// Exports list tasks both under their project and at the top level.
	if b.seen[tt.ID] {
		return nil
	}
	b.seen[tt.ID] = true

	created := b.opts.Now
	if tt.CreatedAt != nil {
		created = *tt.CreatedAt
	}
	t := tasks.NewTask(strings.TrimSpace(tt.Content), created)
	t.ID = TodoistIDPrefix + tt.ID
	t.Priority = todoistPriority(tt.Priority)
	t.Notes = todoistNotes(tt, section)
	if tt.IsCompleted {
		t.Status = tasks.StatusDone
	}
	for _, l := range tt.Labels {
		if strings.HasPrefix(l, "@") {
			t.Context = l
			break
		}
	}
	if tt.Due != nil {
		raw := tt.Due.Datetime
		if raw == "" {
			raw = tt.Due.Date
		}
		if raw != "" {
			due, err := parseDate(raw, b.opts.Location)
			if err != nil {
				return invalid("task %q: %v", tt.ID, err)
			}
			t.DueDate = &due
		}
	}
	if p != nil {
		p.AddTask(t)
	}
	b.res.Tasks = append(b.res.Tasks, t)

	for _, sub := range tt.SubTasks {
		if err := b.addTask(sub, p, section); err != nil {
			return err
		}
	}
	return nil
}

// todoistPriority maps Todoist's 4 (urgent) .. 1 (normal) to 1 .. 4.
func todoistPriority(p int) int {
	if p < 1 || p > 4 {
		return tasks.DefaultPriority
	}
	return 5 - p
}

func todoistNotes(tt todoistTask, section string) string {
	var parts []string
	if d := strings.TrimSpace(tt.Description); d != "" {
		parts = append(parts, d)
	}
	if section != "" {
		parts = append(parts, "section: "+section)
	}
	var tags []string
	for _, l := range tt.Labels {
		if !strings.HasPrefix(l, "@") {
			tags = append(tags, "#"+l)
		}
	}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	return strings.Join(parts, "\n")
}
