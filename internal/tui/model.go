// Package tui renders the contact form in a terminal with bubbletea. It drives
// the same reducer as the HTML surface: every keystroke that changes a field
// becomes a change event, and enter on the submit control becomes a submit.
package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kjstillabower/contact-form-service/internal/form"
	"github.com/kjstillabower/contact-form-service/internal/models"
	"github.com/kjstillabower/contact-form-service/internal/render"
)

// submitFocus is the focus index of the submit control, after the four fields.
var submitFocus = len(models.Fields)

// Model is the bubbletea model for one form instance.
type Model struct {
	state   form.State
	inputs  []textinput.Model // indexed like models.Fields; the message slot is unused
	message textarea.Model
	focus   int
	width   int
	logger  *zap.Logger
}

// New returns a mounted, empty form with focus on the first field.
func New(logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := Model{
		state:  form.New(),
		inputs: make([]textinput.Model, len(models.Fields)),
		logger: logger,
	}
	for i, f := range models.Fields {
		if f == models.FieldMessage {
			continue
		}
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = render.Label(f)
		ti.CharLimit = 256
		ti.Width = 40
		m.inputs[i] = ti
	}
	m.message = textarea.New()
	m.message.Placeholder = "Optional"
	m.message.ShowLineNumbers = false
	m.message.SetWidth(42)
	m.message.SetHeight(4)

	m.setFocus(0)
	return m
}

// State returns the current form state.
func (m Model) State() form.State {
	return m.state
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		cmd := m.setFocus((m.focus + 1) % (submitFocus + 1))
		return m, cmd
	case "shift+tab":
		cmd := m.setFocus((m.focus + submitFocus) % (submitFocus + 1))
		return m, cmd
	case "enter":
		if m.focus == submitFocus {
			m.apply(form.Submit())
			return m, nil
		}
		if m.focusedField() != models.FieldMessage {
			cmd := m.setFocus(m.focus + 1)
			return m, cmd
		}
	}
	return m.forward(msg)
}

// forward passes msg to the focused component and emits a change event when its value moved.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus == submitFocus {
		return m, nil
	}
	f := m.focusedField()
	var (
		cmd   tea.Cmd
		value string
	)
	if f == models.FieldMessage {
		m.message, cmd = m.message.Update(msg)
		value = m.message.Value()
	} else {
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		value = m.inputs[m.focus].Value()
	}
	if value != m.state.Values.Get(f) {
		m.apply(form.Change(f, value))
	}
	return m, cmd
}

func (m *Model) apply(e form.Event) {
	m.state = form.Reduce(m.state, e)
	if e.Type != form.EventSubmit {
		return
	}
	if m.state.Phase() == form.PhaseSubmitted {
		m.logger.Info("contact form submitted", zap.Bool("has_message", m.state.Values.Message != ""))
		return
	}
	fields := m.state.Errors().Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, string(f))
	}
	m.logger.Info("contact form rejected", zap.Strings("invalid_fields", names))
}

func (m Model) focusedField() models.Field {
	if m.focus < 0 || m.focus >= submitFocus {
		return ""
	}
	return models.Fields[m.focus]
}

// setFocus moves focus to index i and returns the cursor blink command.
func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for idx, f := range models.Fields {
		if f == models.FieldMessage {
			if idx == i {
				cmd = m.message.Focus()
			} else {
				m.message.Blur()
			}
			continue
		}
		if idx == i {
			cmd = m.inputs[idx].Focus()
		} else {
			m.inputs[idx].Blur()
		}
	}
	return cmd
}
