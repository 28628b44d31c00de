package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kjstillabower/contact-form-service/internal/models"
	"github.com/kjstillabower/contact-form-service/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF6B6B"})

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder())

	focusedButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color("205")).
				Foreground(lipgloss.Color("205"))

	summaryStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, false, false, true)

	helpStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// View implements tea.Model.
func (m Model) View() string {
	page := render.NewPageView(m.state)

	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title))
	b.WriteString("\n")

	for i, fv := range page.Fields {
		label := fv.Label
		if fv.Required {
			label += "*"
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")
		if models.Fields[i] == models.FieldMessage {
			b.WriteString(m.message.View())
		} else {
			b.WriteString(m.inputs[i].View())
		}
		b.WriteString("\n")
		if fv.Error != "" {
			b.WriteString(errorStyle.Render(fv.Error))
			b.WriteString("\n")
		}
	}

	button := buttonStyle
	if m.focus == submitFocus {
		button = focusedButtonStyle
	}
	b.WriteString(button.Render("Submit"))
	b.WriteString("\n")

	if len(page.Displays) > 0 {
		lines := []string{labelStyle.Render("You Submitted:")}
		for _, d := range page.Displays {
			lines = append(lines, d.Label+": "+d.Value)
		}
		b.WriteString(summaryStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab/shift+tab: move  enter: next or submit  esc: quit"))
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}
