// ABOUTME: Purge confirmation view for the checklist board
// ABOUTME: Removes completed tasks for the day and saves the checklist
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmPurgeView() string {
	done, _ := m.book.Progress(m.date)

	title := warningStyle.Render("완료 항목 삭제")
	message := fmt.Sprintf("%s의 완료된 할 일 %d개를 삭제할까요?", m.date, done)

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("삭제 (y)"),
		cancelButtonStyle.Render("취소 (n/esc)"),
	)

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", message, "", buttons)
	return confirmBoxStyle.Render(content)
}

func (m Model) handleConfirmPurgeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		removed := m.book.PurgeDone(m.date)
		m.viewMode = ViewList
		m.cursor = 0
		m.status = fmt.Sprintf("%d개 삭제됨", removed)
		m.dirty = true
		m.saving = true
		return m, m.saveCmd()

	case "n", "N", "esc":
		m.viewMode = ViewList
	}
	return m, nil
}
