package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_Precedence(t *testing.T) {
	tests := []struct {
		text string
		want Nature
	}{
		{"Need to prepare slides for the meeting", NatureTask},
		{"Meeting at 2:30 PM until 4:00 PM", NatureEvent},
		{"Dentist 3pm", NatureEvent},
		{"FYI the wiki moved https://wiki.example.com", NatureReference},
		{"Idea: a project to automate invoices", NatureProjectIdea},
		{"Call John about budget tomorrow", NatureUnclear},
		{"Multitasking is hard", NatureUnclear},
		{"Review open tasks", NatureTask},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text).Strongest())
		})
	}
}

func TestItem_PotentialNature(t *testing.T) {
	now := time.Now()
	start := now.Add(time.Hour)

	assert.Equal(t, NatureEvent, NewManual(ManualEntry{Title: "Sync", Start: &start}, now).PotentialNature())
	assert.Equal(t, NatureTask, NewManual(ManualEntry{Title: "Ship release"}, now).PotentialNature())
	assert.Equal(t, NatureTrash, NewText(SourceChat, "   ", now).PotentialNature())
	assert.Equal(t, NatureTask, NewText(SourceChat, "todo: renew passport", now).PotentialNature())
}

func TestItem_Immutable(t *testing.T) {
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	start := due.Add(9 * time.Hour)
	entry := ManualEntry{
		Title:     "Plan offsite",
		Tags:      []string{"team"},
		Attendees: []string{"dana@example.com"},
		URLs:      []string{"https://example.com/venue"},
		DueDate:   &due,
		Start:     &start,
	}
	item := NewManual(entry, time.Now())

	entry.Tags[0] = "changed"
	*entry.DueDate = due.AddDate(1, 0, 0)
	got, ok := item.Entry()
	require.True(t, ok)
	assert.Equal(t, []string{"team"}, got.Tags)
	assert.True(t, got.DueDate.Equal(due))

	got.Tags[0] = "mutated"
	got.Attendees[0] = "mutated"
	got.URLs[0] = "mutated"
	*got.DueDate = due.AddDate(1, 0, 0)
	*got.Start = start.Add(time.Hour)

	again, _ := item.Entry()
	assert.Equal(t, []string{"team"}, again.Tags)
	assert.Equal(t, []string{"dana@example.com"}, again.Attendees)
	assert.Equal(t, []string{"https://example.com/venue"}, again.URLs)
	assert.True(t, again.DueDate.Equal(due))
	assert.True(t, again.Start.Equal(start))
	assert.Nil(t, again.End)
	assert.NotEmpty(t, item.ID())
	assert.Equal(t, SourceManual, item.Source())
	assert.Equal(t, "Plan offsite", item.Text())
}

func TestParseSource(t *testing.T) {
	assert.Equal(t, SourceEmail, ParseSource("Email"))
	assert.Equal(t, SourceChat, ParseSource("chat"))
	assert.Equal(t, SourceOther, ParseSource("carrier pigeon"))
}

func TestProcessed_Accessors(t *testing.T) {
	p := Processed{Nature: NatureTask, Data: TaskFields{Title: "x", Priority: 4}}
	f, ok := p.Task()
	assert.True(t, ok)
	assert.Equal(t, "x", f.Title)
	_, ok = p.Event()
	assert.False(t, ok)
	assert.Equal(t, "x", p.Title())
}
