package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/config"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// startTestNATSServer starts an embedded JetStream-enabled NATS server.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		NoLog:     true,
		NoSigs:    true,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}
	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func backends(t *testing.T) map[string]BlobStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	srv := startTestNATSServer(t)
	ns, err := DialNATS(context.Background(), srv.ClientURL(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })

	return map[string]BlobStore{
		"memory": NewMemoryStore(),
		"file":   fs,
		"nats":   ns,
	}
}

func TestBlobStore_Contract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.Load(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)

			keys, err := store.ListKeys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)

			require.NoError(t, store.Save(ctx, "b", []byte("two")))
			require.NoError(t, store.Save(ctx, "a", []byte("one")))
			require.NoError(t, store.Save(ctx, "a", []byte("uno")))

			got, err = store.Load(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), got)

			keys, err = store.ListKeys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, store.Delete(ctx, "a"))
			require.NoError(t, store.Delete(ctx, "a"), "deleting a missing key is not an error")

			got, err = store.Load(ctx, "a")
			require.NoError(t, err)
			assert.Nil(t, got)

			keys, err = store.ListKeys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, keys)

			for _, bad := range []string{"", "../etc/passwd", ".hidden", "a b", "x/y"} {
				assert.ErrorIs(t, store.Save(ctx, bad, nil), ErrInvalidKey, bad)
			}
		})
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, s.Save(ctx, "k", data))
	data[0] = 'X'

	got, _ := s.Load(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'Y'
	again, _ := s.Load(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tasks", []byte("[]")))
	info, err := os.Stat(filepath.Join(dir, "tasks"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-stray"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o700))
	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, keys)

	_, err = NewFileStore("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Backend: config.BackendFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	srv := startTestNATSServer(t)
	s, err = Open(ctx, config.StorageConfig{Backend: config.BackendNATS, NATSURL: srv.ClientURL(), Bucket: "open"})
	require.NoError(t, err)
	assert.IsType(t, &NATSStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}

func TestNATSStore_ExistingBucketAndConnection(t *testing.T) {
	srv := startTestNATSServer(t)
	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	ctx := context.Background()

	first, err := NewNATSStore(ctx, nc, "")
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "k", []byte("v")))
	require.NoError(t, first.Close())
	assert.False(t, nc.IsClosed(), "caller keeps its connection")

	second, err := NewNATSStore(ctx, nc, DefaultBucket)
	require.NoError(t, err)
	got, err := second.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

// sampleGraph builds a project with a next action, a plain member, a
// standalone prioritized task and a reference task.
func sampleGraph() ([]*tasks.Task, []*tasks.Project) {
	p := tasks.NewProject("Launch website", now)
	p.Outcome = "site is live"

	trigger := tasks.NewTask("Launch website", now)
	trigger.Status = tasks.StatusProjectTask
	trigger.SetActionable(true)
	p.AddTask(trigger)

	next := tasks.NewTask("Email designer", now.Add(time.Second))
	next.Context = tasks.ContextCalls
	p.MarkNextAction(next)
	next.SetQuadrant(tasks.QuadrantDo)

	due := now.Add(24 * time.Hour)
	solo := tasks.NewTask("Ship release", now.Add(2*time.Second))
	solo.Status = tasks.StatusNextAction
	solo.DueDate = &due
	solo.Priority = 1
	solo.SetQuadrant(tasks.QuadrantDecide)

	ref := tasks.NewTask("Handbook", now.Add(3*time.Second))
	ref.Status = tasks.StatusReference
	ref.Notes = "see wiki"

	return []*tasks.Task{trigger, next, solo, ref}, []*tasks.Project{p}
}

func TestGraphRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(NewMemoryStore(), nil)
	ts, ps := sampleGraph()

	require.NoError(t, repo.SaveAll(ctx, ts, ps))
	g, err := repo.LoadAll(ctx)
	require.NoError(t, err)

	assert.Zero(t, g.Repairs)
	require.Len(t, g.Tasks, 4)
	require.Len(t, g.Projects, 1)

	p := g.Projects[0]
	assert.Equal(t, ps[0].ID, p.ID)
	assert.Equal(t, "site is live", p.Outcome)
	assert.Equal(t, tasks.DefaultProjectStatus, p.Status)
	require.Len(t, p.Tasks, 2)
	assert.Equal(t, ts[0].ID, p.Tasks[0].ID, "member order kept")

	for _, task := range p.Tasks {
		assert.Same(t, p, task.Project)
	}
	next := p.NextAction()
	require.NotNil(t, next)
	assert.Equal(t, ts[1].ID, next.ID)
	assert.Equal(t, tasks.ContextCalls, next.Context)
	require.NotNil(t, next.Quadrant)
	assert.Equal(t, tasks.QuadrantDo, *next.Quadrant)

	solo := g.Tasks[2]
	assert.Nil(t, solo.Project)
	assert.Equal(t, 1, solo.Priority)
	require.NotNil(t, solo.DueDate)
	assert.True(t, solo.DueDate.Equal(now.Add(24*time.Hour)))

	ref := g.Tasks[3]
	assert.Equal(t, tasks.StatusReference, ref.Status)
	assert.Nil(t, ref.Quadrant)
	assert.Nil(t, ref.IsActionable)
	assert.Equal(t, "see wiki", ref.Notes)
}

func TestGraphRepository_EmptyStore(t *testing.T) {
	g, err := NewGraphRepository(NewMemoryStore(), nil).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, g.Tasks)
	assert.Empty(t, g.Projects)
}

func TestGraphRepository_RepairsStaleProjects(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	logger := logging.NewTestLogger()
	repo := NewGraphRepository(store, logger.Logger)

	ts, ps := sampleGraph()
	require.NoError(t, repo.SaveAll(ctx, ts, ps))
	staleProjects, err := store.Load(ctx, ProjectsKey)
	require.NoError(t, err)

	// A new task joins the project; the crash loses the projects write.
	extra := tasks.NewTask("Buy domain", now.Add(4*time.Second))
	ps[0].AddTask(extra)
	require.NoError(t, repo.SaveAll(ctx, append(ts, extra), ps))
	require.NoError(t, store.Save(ctx, ProjectsKey, staleProjects))

	g, err := repo.LoadAll(ctx)
	require.NoError(t, err)

	p := g.Projects[0]
	require.Len(t, p.Tasks, 3)
	assert.Equal(t, extra.ID, p.Tasks[2].ID)
	assert.Same(t, p, p.Tasks[2].Project)
	assert.Equal(t, 1, g.Repairs)
	logger.AssertLogged(t, zapcore.WarnLevel, "repaired task graph references")
}

func TestGraphRepository_DropsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, TasksKey, []byte(`[
		{"id": "t1", "description": "orphan", "status": "project_task", "project_id": "gone", "priority": 2},
		{"id": "t2", "description": "member", "status": "next_action", "project_id": "p1", "next_action_for": ["p1", "gone"], "priority": 9},
		{"id": "t3", "description": "rival", "status": "next_action", "project_id": "p1", "next_action_for": ["p1"], "priority": 4},
		{"id": "t4", "description": "odd", "status": "archived", "priority": 3}
	]`)))
	require.NoError(t, store.Save(ctx, ProjectsKey, []byte(`[
		{"id": "p1", "name": "P", "task_ids": ["t2", "t3", "missing"]}
	]`)))

	g, err := NewGraphRepository(store, nil).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, g.Tasks, 4)

	orphan, member, rival, odd := g.Tasks[0], g.Tasks[1], g.Tasks[2], g.Tasks[3]
	p := g.Projects[0]

	assert.Nil(t, orphan.Project)
	assert.Same(t, p, member.Project)
	assert.Same(t, member, p.NextAction())
	assert.Len(t, member.NextActionFor, 1)
	assert.Equal(t, tasks.DefaultPriority, member.Priority, "out of range priority reset")

	assert.Empty(t, rival.NextActionFor)
	assert.Equal(t, tasks.StatusProjectTask, rival.Status)
	assert.Equal(t, tasks.StatusInbox, odd.Status)
	assert.Equal(t, tasks.DefaultProjectStatus, p.Status)

	// orphan project id, "missing" member id, "gone" next-action id, rival.
	assert.Equal(t, 4, g.Repairs)
}

func TestGraphRepository_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, TasksKey, []byte("{not json")))

	_, err := NewGraphRepository(store, nil).LoadAll(ctx)
	assert.ErrorContains(t, err, "decoding tasks")
}

func TestGraphRepository_LoadInto(t *testing.T) {
	ctx := context.Background()
	repo := NewGraphRepository(NewMemoryStore(), nil)
	ts, ps := sampleGraph()
	require.NoError(t, repo.SaveAll(ctx, ts, ps))

	taskStore := tasks.NewTaskStore()
	projectStore := tasks.NewProjectStore()
	_, err := repo.LoadInto(ctx, taskStore, projectStore)
	require.NoError(t, err)

	assert.Equal(t, 4, taskStore.Len())
	assert.Equal(t, 1, projectStore.Len())
	_, ok := taskStore.Get(ts[2].ID)
	assert.True(t, ok)
}

func TestGraphRepository_FileBackend(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo := NewGraphRepository(fs, nil)
	ts, ps := sampleGraph()

	require.NoError(t, repo.SaveAll(ctx, ts, ps))
	keys, err := fs.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ProjectsKey, TasksKey}, keys)

	g, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, g.Tasks, 4)
	assert.NotNil(t, g.Projects[0].NextAction())
}
