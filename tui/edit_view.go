// ABOUTME: Add-task view for the checklist board
// ABOUTME: Collects a task description with a text input
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("새 할 일 · " + m.date))
	s.WriteString("\n\n")
	s.WriteString("> ")
	s.WriteString(m.input.View())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("enter 추가 • esc 취소"))
	return s.String()
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.viewMode = ViewList
		m.err = nil
		return m, nil

	case "enter":
		if err := m.book.Add(m.date, m.input.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.input.Blur()
		m.viewMode = ViewList
		m.dirty = true
		m.err = nil
		m.status = ""
		m.cursor = len(m.book[m.date]) - 1
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
