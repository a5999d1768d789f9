package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

const todoistExportJSON = `{
  "metadata": {"export_date": "2026-10-19T08:00:00"},
  "projects": [
    {
      "id": "100", "name": "Inbox", "is_inbox_project": true,
      "tasks": [{"id": "1", "content": "Loose end", "project_id": "100", "priority": 1}]
    },
    {
      "id": "200", "name": "Website",
      "tasks": [
        {
          "id": "2", "content": "Write copy", "project_id": "200", "priority": 4,
          "labels": ["@computer", "writing"], "description": "landing page",
          "due": {"date": "2026-10-20"},
          "sub_tasks": [{"id": "3", "content": "Draft headline", "project_id": "200", "priority": 2}]
        }
      ],
      "sections": [
        {"id": "s1", "name": "Launch", "tasks": [
          {"id": "4", "content": "Announce", "project_id": "200", "is_completed": true,
           "due": {"date": "2026-10-21", "datetime": "2026-10-21T15:00:00Z"}}
        ]}
      ],
      "child_projects": [
        {"id": "300", "name": "Blog", "tasks": [{"id": "5", "content": "First post", "project_id": "300"}]}
      ]
    }
  ],
  "tasks": [
    {"id": "2", "content": "Write copy", "project_id": "200"},
    {"id": "6", "content": "Renew passport", "project_id": "999", "priority": 3}
  ]
}`

func byID(ts []*tasks.Task) map[string]*tasks.Task {
	m := make(map[string]*tasks.Task, len(ts))
	for _, t := range ts {
		m[t.ID] = t
	}
	return m
}

func TestParseTodoist(t *testing.T) {
	res, err := ParseTodoist(strings.NewReader(todoistExportJSON), TodoistOptions{Now: now, Location: time.UTC})
	require.NoError(t, err)

	require.Len(t, res.Projects, 2)
	website, blog := res.Projects[0], res.Projects[1]
	assert.Equal(t, "todoist-200", website.ID)
	assert.Equal(t, "Website", website.Name)
	assert.Equal(t, "Website / Blog", blog.Name)
	assert.Equal(t, tasks.DefaultProjectStatus, website.Status)

	require.Len(t, res.Tasks, 6, "duplicate top-level listing is ignored")
	got := byID(res.Tasks)

	loose := got["todoist-1"]
	require.NotNil(t, loose)
	assert.Nil(t, loose.Project, "inbox project tasks stay unassigned")
	assert.Equal(t, 4, loose.Priority)

	copyTask := got["todoist-2"]
	assert.Same(t, website, copyTask.Project)
	assert.Equal(t, 1, copyTask.Priority, "todoist p4 is highest")
	assert.Equal(t, tasks.StatusInbox, copyTask.Status)
	assert.Equal(t, "@computer", copyTask.Context)
	assert.Equal(t, "landing page\n#writing", copyTask.Notes)
	require.NotNil(t, copyTask.DueDate)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), *copyTask.DueDate)

	sub := got["todoist-3"]
	assert.Same(t, website, sub.Project)
	assert.Equal(t, 3, sub.Priority)

	done := got["todoist-4"]
	assert.Equal(t, tasks.StatusDone, done.Status)
	assert.Equal(t, "section: Launch", done.Notes)
	assert.Equal(t, time.Date(2026, 10, 21, 15, 0, 0, 0, time.UTC), done.DueDate.UTC())

	assert.Same(t, blog, got["todoist-5"].Project)

	orphan := got["todoist-6"]
	assert.Nil(t, orphan.Project)
	assert.Equal(t, 2, orphan.Priority)
	assert.Equal(t, now, orphan.CreatedAt)

	require.Len(t, website.Tasks, 3)
	for _, task := range website.Tasks {
		assert.Same(t, website, task.Project)
	}
}

func TestParseTodoist_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"projects": [`},
		{"project without name", `{"projects": [{"id": "1"}]}`},
		{"duplicate project", `{"projects": [{"id": "1", "name": "a"}, {"id": "1", "name": "b"}]}`},
		{"task without content", `{"tasks": [{"id": "1", "content": " "}]}`},
		{"bad due date", `{"tasks": [{"id": "1", "content": "x", "due": {"date": "someday"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTodoist(strings.NewReader(tt.in), TodoistOptions{Now: now})
			assert.ErrorIs(t, err, ErrInvalidExport)
		})
	}
}

func TestTodoistPriority(t *testing.T) {
	assert.Equal(t, 1, todoistPriority(4))
	assert.Equal(t, 4, todoistPriority(1))
	assert.Equal(t, tasks.DefaultPriority, todoistPriority(0))
	assert.Equal(t, tasks.DefaultPriority, todoistPriority(7))
}

const calendarEventsJSON = `{
  "kind": "calendar#events",
  "items": [
    {"id": "a1", "status": "confirmed", "summary": "Dentist",
     "location": "Main St", "htmlLink": "https://calendar.example/a1",
     "start": {"dateTime": "2026-10-20T10:00:00-04:00"},
     "end": {"dateTime": "2026-10-20T11:00:00-04:00"}},
    {"id": "a2", "status": "cancelled", "summary": "Gone",
     "start": {"dateTime": "2026-10-20T10:00:00Z"}, "end": {"dateTime": "2026-10-20T11:00:00Z"}},
    {"id": "a3", "summary": "Old standup",
     "start": {"dateTime": "2026-10-01T10:00:00Z"}, "end": {"dateTime": "2026-10-01T10:15:00Z"}},
    {"id": "a4", "summary": "Conference",
     "start": {"date": "2026-10-25"}, "end": {"date": "2026-10-26"}}
  ]
}`

func TestParseCalendar(t *testing.T) {
	res, err := ParseCalendar(strings.NewReader(calendarEventsJSON), CalendarOptions{Now: now, Location: time.UTC})
	require.NoError(t, err)
	assert.Empty(t, res.Projects)
	require.Len(t, res.Tasks, 2)

	dentist := res.Tasks[0]
	assert.Equal(t, "gcal-a1", dentist.ID)
	assert.Equal(t, "Dentist", dentist.Description)
	assert.Equal(t, tasks.StatusInbox, dentist.Status)
	require.NotNil(t, dentist.DueDate)
	assert.True(t, dentist.DueDate.Equal(time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "location: Main St\nhttps://calendar.example/a1", dentist.Notes)

	conf := res.Tasks[1]
	assert.Equal(t, time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC), *conf.DueDate)
}

func TestParseCalendar_IncludePastAndGrouped(t *testing.T) {
	in := `{"calendars": [{"summary": "Work", "events": [
	  {"id": "w1", "summary": "Retro", "start": {"dateTime": "2026-10-01T10:00:00Z"}, "end": {"dateTime": "2026-10-01T11:00:00Z"}}
	]}]}`
	res, err := ParseCalendar(strings.NewReader(in), CalendarOptions{Now: now, IncludePast: true})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "calendar: Work", res.Tasks[0].Notes)
}

func TestParseCalendar_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `[`},
		{"no summary", `{"items": [{"id": "x", "start": {"date": "2026-10-20"}}]}`},
		{"no start", `{"items": [{"id": "x", "summary": "s"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCalendar(strings.NewReader(tt.in), CalendarOptions{Now: now})
			assert.ErrorIs(t, err, ErrInvalidExport)
		})
	}
}
