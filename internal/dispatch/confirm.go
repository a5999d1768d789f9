package dispatch

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Confirmer asks whether to go ahead with a side effect.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// AutoConfirm answers every question with its own value.
type AutoConfirm bool

func (a AutoConfirm) Confirm(context.Context, string) (bool, error) { return bool(a), nil }

// PromptConfirmer asks on a terminal with a small Bubble Tea program.
type PromptConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewPromptConfirmer reads keys from in and draws on out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out}
}

func (c *PromptConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	prog := tea.NewProgram(newConfirmModel(question),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
		tea.WithContext(ctx),
	)
	final, err := prog.Run()
	if err != nil {
		return false, fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected prompt model %T", final)
	}
	return m.yes, nil
}

var (
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// confirmModel is a y/N prompt. Anything but y declines.
type confirmModel struct {
	question string
	yes      bool
	done     bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.yes, m.done = true, true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.yes, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.yes {
			answer = "yes"
		}
		return questionStyle.Render(m.question) + " " + answer + "\n"
	}
	return questionStyle.Render(m.question) + " " + keyStyle.Render("[y/N]") + " "
}

var (
	_ Confirmer = AutoConfirm(true)
	_ Confirmer = (*PromptConfirmer)(nil)
)
