package noteform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/theme"
)

// SubmittedMsg is dispatched when the form completes.
type SubmittedMsg struct {
	Input engine.CustomInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title    string
	message  string
	priority string
}

// Model is the Bubble Tea model for the custom note form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new note form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: string(model.PriorityNormal)},
		width:  width,
		height: height,
	}
}

// Start resets the bindings and builds a fresh form.
func (m *Model) Start() tea.Cmd {
	m.fb.title = ""
	m.fb.message = ""
	m.fb.priority = string(model.PriorityNormal)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		in := engine.CustomInput{
			Title:    strings.TrimSpace(m.fb.title),
			Message:  strings.TrimSpace(m.fb.message),
			Priority: model.Priority(m.fb.priority),
		}
		m.form = nil
		return m, func() tea.Msg { return SubmittedMsg{Input: in} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Ghi chú mới")

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tiêu đề").
				Placeholder("Thay dầu, kiểm tra lốp...").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Nội dung").
				Value(&m.fb.message),
			huh.NewSelect[string]().
				Title("Mức ưu tiên").
				Options(
					huh.NewOption("Cao", string(model.PriorityHigh)),
					huh.NewOption("Trung bình", string(model.PriorityMedium)),
					huh.NewOption("Bình thường", string(model.PriorityNormal)),
				).
				Value(&m.fb.priority),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) formWidth() int {
	w := m.width - 4
	if w < 20 {
		return 20
	}
	return w
}
