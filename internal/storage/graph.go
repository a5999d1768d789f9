package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"go.uber.org/zap"
)

// Keys used by GraphRepository.
const (
	TasksKey    = "tasks"
	ProjectsKey = "projects"
)

type taskRecord struct {
	ID            string     `json:"id"`
	Description   string     `json:"description"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	ProjectID     string     `json:"project_id,omitempty"`
	Context       string     `json:"context,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	NextActionFor []string   `json:"next_action_for,omitempty"`
	Quadrant      *string    `json:"quadrant,omitempty"`
	IsActionable  *bool      `json:"is_actionable,omitempty"`
	Priority      int        `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
}

type projectRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Outcome   string    `json:"outcome,omitempty"`
	TaskIDs   []string  `json:"task_ids,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Graph is a loaded task graph with links rebuilt.
type Graph struct {
	Tasks    []*tasks.Task
	Projects []*tasks.Project
	// Repairs counts references dropped or fixed while rebuilding links.
	Repairs int
}

// GraphRepository saves and loads the whole task graph.
type GraphRepository struct {
	store  BlobStore
	logger *logging.Logger
}

// NewGraphRepository stores the graph in store.
func NewGraphRepository(store BlobStore, logger *logging.Logger) *GraphRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &GraphRepository{store: store, logger: logger.Named("storage")}
}

// SaveAll writes tasks, then projects. The two writes are not atomic; a
// crash in between is repaired by LoadAll.
func (r *GraphRepository) SaveAll(ctx context.Context, ts []*tasks.Task, ps []*tasks.Project) error {
	trecs := make([]taskRecord, 0, len(ts))
	for _, t := range ts {
		trecs = append(trecs, toTaskRecord(t))
	}
	precs := make([]projectRecord, 0, len(ps))
	for _, p := range ps {
		precs = append(precs, toProjectRecord(p))
	}

	tb, err := json.MarshalIndent(trecs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	pb, err := json.MarshalIndent(precs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding projects: %w", err)
	}
	if err := r.store.Save(ctx, TasksKey, tb); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	if err := r.store.Save(ctx, ProjectsKey, pb); err != nil {
		return fmt.Errorf("saving projects: %w", err)
	}
	r.logger.Debug(ctx, "graph saved", zap.Int("tasks", len(ts)), zap.Int("projects", len(ps)))
	return nil
}

// LoadAll reads the graph and rebuilds Task.Project, Project.Tasks and
// Task.NextActionFor from ids. Missing keys load as an empty graph.
//
// A task's own project id wins over project membership lists, since tasks
// are written first. References to unknown ids are dropped, and a project
// listed as next-action target by several tasks keeps only the first.
func (r *GraphRepository) LoadAll(ctx context.Context) (*Graph, error) {
	var trecs []taskRecord
	if err := r.loadJSON(ctx, TasksKey, &trecs); err != nil {
		return nil, err
	}
	var precs []projectRecord
	if err := r.loadJSON(ctx, ProjectsKey, &precs); err != nil {
		return nil, err
	}

	g := &Graph{}
	taskByID := make(map[string]*tasks.Task, len(trecs))
	recByID := make(map[string]taskRecord, len(trecs))
	for _, rec := range trecs {
		if _, dup := taskByID[rec.ID]; dup {
			g.Repairs++
			continue
		}
		t := fromTaskRecord(rec)
		taskByID[rec.ID] = t
		recByID[rec.ID] = rec
		g.Tasks = append(g.Tasks, t)
	}
	projectByID := make(map[string]*tasks.Project, len(precs))
	for _, rec := range precs {
		if _, dup := projectByID[rec.ID]; dup {
			g.Repairs++
			continue
		}
		p := fromProjectRecord(rec)
		projectByID[rec.ID] = p
		g.Projects = append(g.Projects, p)
	}

	// Membership, in each project's stored order.
	for _, rec := range precs {
		p := projectByID[rec.ID]
		for _, id := range rec.TaskIDs {
			t, ok := taskByID[id]
			if !ok || recByID[id].ProjectID != p.ID || t.Project != nil {
				g.Repairs++
				continue
			}
			p.AddTask(t)
		}
	}
	// Tasks whose project did not list them.
	for _, t := range g.Tasks {
		pid := recByID[t.ID].ProjectID
		if pid == "" || t.Project != nil {
			continue
		}
		if p, ok := projectByID[pid]; ok {
			p.AddTask(t)
		}
		g.Repairs++
	}
	// Next-action designations.
	for _, t := range g.Tasks {
		for _, pid := range recByID[t.ID].NextActionFor {
			p, ok := projectByID[pid]
			if !ok || t.Project != p || t.IsNextActionFor(p) {
				g.Repairs++
				continue
			}
			t.NextActionFor = append(t.NextActionFor, p)
		}
	}
	for _, p := range g.Projects {
		g.Repairs += dedupeNextAction(p)
	}

	if g.Repairs > 0 {
		r.logger.Warn(ctx, "repaired task graph references", zap.Int("repairs", g.Repairs))
	}
	r.logger.Debug(ctx, "graph loaded", zap.Int("tasks", len(g.Tasks)), zap.Int("projects", len(g.Projects)))
	return g, nil
}

// LoadInto loads the graph and upserts it into the stores.
func (r *GraphRepository) LoadInto(ctx context.Context, ts *tasks.TaskStore, ps *tasks.ProjectStore) (*Graph, error) {
	g, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range g.Projects {
		ps.Add(p)
	}
	for _, t := range g.Tasks {
		ts.Add(t)
	}
	return g, nil
}

func (r *GraphRepository) loadJSON(ctx context.Context, key string, v any) error {
	b, err := r.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if b == nil {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// dedupeNextAction keeps the first defined next action of p and removes p
// from the NextActionFor of any later ones.
func dedupeNextAction(p *tasks.Project) int {
	seen := false
	removed := 0
	for _, t := range p.Tasks {
		if !t.IsNextActionFor(p) {
			continue
		}
		if t.Status == tasks.StatusNextAction && !seen {
			seen = true
			continue
		}
		if t.Status == tasks.StatusNextAction {
			t.Status = tasks.StatusProjectTask
		}
		kept := t.NextActionFor[:0]
		for _, q := range t.NextActionFor {
			if q != p {
				kept = append(kept, q)
			}
		}
		t.NextActionFor = kept
		removed++
	}
	return removed
}

func toTaskRecord(t *tasks.Task) taskRecord {
	rec := taskRecord{
		ID:           t.ID,
		Description:  t.Description,
		Notes:        t.Notes,
		Status:       string(t.Status),
		ProjectID:    t.ProjectID(),
		Context:      t.Context,
		DueDate:      t.DueDate,
		IsActionable: t.IsActionable,
		Priority:     t.Priority,
		CreatedAt:    t.CreatedAt,
	}
	if t.Quadrant != nil {
		q := string(*t.Quadrant)
		rec.Quadrant = &q
	}
	for _, p := range t.NextActionFor {
		rec.NextActionFor = append(rec.NextActionFor, p.ID)
	}
	return rec
}

func fromTaskRecord(rec taskRecord) *tasks.Task {
	t := &tasks.Task{
		ID:           rec.ID,
		Description:  rec.Description,
		Notes:        rec.Notes,
		Status:       tasks.Status(rec.Status),
		Context:      rec.Context,
		DueDate:      rec.DueDate,
		IsActionable: rec.IsActionable,
		Priority:     rec.Priority,
		CreatedAt:    rec.CreatedAt,
	}
	if !t.Status.Valid() {
		t.Status = tasks.StatusInbox
	}
	if t.Priority < 1 || t.Priority > tasks.DefaultPriority {
		t.Priority = tasks.DefaultPriority
	}
	if rec.Quadrant != nil {
		t.SetQuadrant(tasks.Quadrant(*rec.Quadrant))
	}
	return t
}

func toProjectRecord(p *tasks.Project) projectRecord {
	rec := projectRecord{
		ID:        p.ID,
		Name:      p.Name,
		Outcome:   p.Outcome,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
	for _, t := range p.Tasks {
		rec.TaskIDs = append(rec.TaskIDs, t.ID)
	}
	return rec
}

func fromProjectRecord(rec projectRecord) *tasks.Project {
	status := rec.Status
	if status == "" {
		status = tasks.DefaultProjectStatus
	}
	return &tasks.Project{
		ID:        rec.ID,
		Name:      rec.Name,
		Outcome:   rec.Outcome,
		Status:    status,
		CreatedAt: rec.CreatedAt,
	}
}
