// Package tui is a terminal front end for the health risk form.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/view"
)

const barWidth = 30

type submittedMsg struct {
	snapshot form.Snapshot
}

// Model drives one form controller from the keyboard.
type Model struct {
	ctx      context.Context
	ctrl     *form.Controller
	fields   []model.Field
	cursor   int
	pending  bool
	quitting bool
	notice   string
}

// NewModel creates a model over ctrl. ctx bounds every submission.
func NewModel(ctx context.Context, ctrl *form.Controller) *Model {
	return &Model{ctx: ctx, ctrl: ctrl, fields: model.Fields()}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update handles key presses and completed submissions.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.cursor = (m.cursor - 1 + len(m.fields)) % len(m.fields)
		case "down", "j", "tab":
			m.cursor = (m.cursor + 1) % len(m.fields)
		case "left", "h":
			m.step(-1)
		case "right", "l":
			m.step(1)
		case "enter":
			if m.pending {
				return m, nil
			}
			m.pending = true
			m.notice = ""
			return m, m.submit()
		}
	case submittedMsg:
		m.pending = false
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return submittedMsg{snapshot: ctrl.Submit(ctx)}
	}
}

// step moves the selected field one notch; select fields cycle through their
// options.
func (m *Model) step(dir int) {
	f := m.fields[m.cursor]
	spec := f.Spec()
	cur := m.ctrl.Snapshot().Input.Get(f)

	var next float64
	if spec.Control == model.ControlSelect {
		idx := 0
		for i, o := range spec.Options {
			if o.Value == cur {
				idx = i
				break
			}
		}
		n := len(spec.Options)
		next = spec.Options[((idx+dir)%n+n)%n].Value
	} else {
		next = math.Round((cur+float64(dir)*spec.Step)*1e6) / 1e6
		next = math.Max(spec.Min, math.Min(spec.Max, next))
	}
	if err := m.ctrl.Set(f, next); err != nil {
		m.notice = err.Error()
	}
}

// View renders the form and the result area.
func (m *Model) View() string {
	if m.quitting {
		return "Bye.\n"
	}
	snap := m.ctrl.Snapshot()
	v := view.Build(snap)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Smart Health Predictor"))
	b.WriteString("\n\n")
	for i, fv := range v.Fields {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker + labelStyle.Render(fv.Label) + fv.Display + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(v.Fields[m.cursor].Help) + "\n\n")

	if m.pending || v.ButtonDisabled {
		b.WriteString(buttonBusyStyle.Render(view.ButtonSubmitting))
	} else {
		b.WriteString(buttonStyle.Render(v.ButtonLabel))
	}
	b.WriteString("\n\n")

	switch {
	case v.Result != nil:
		b.WriteString(renderResult(*v.Result))
	case v.Error != "":
		b.WriteString(errorPanelStyle.Render(v.Error))
	}
	if m.notice != "" {
		b.WriteString("\n" + hintStyle.Render(m.notice))
	}
	b.WriteString("\n" + hintStyle.Render("↑/↓ select  ←/→ adjust  enter predict  q quit") + "\n")
	return b.String()
}

func renderResult(r view.ResultView) string {
	filled := int(math.Round(r.Ring.Fraction * barWidth))
	bar := tierStyle(r.Ring.Color).Render(strings.Repeat("█", filled)) + hintStyle.Render(strings.Repeat("░", barWidth-filled))
	lines := []string{
		fmt.Sprintf("Health Score %s %s", tierStyle(r.Ring.Color).Render(r.ScoreText), bar),
		"Risk Category " + tierStyle(r.CategoryColor).Render(r.Category),
		"",
		r.Guidance,
	}
	return panelStyle.BorderForeground(lipgloss.Color(r.Ring.Color)).Render(strings.Join(lines, "\n"))
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, ctrl *form.Controller) error {
	p := tea.NewProgram(NewModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
