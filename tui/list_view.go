// ABOUTME: Checklist board list view
// ABOUTME: Renders one day's tasks and handles navigation, toggling and saving
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("작심지킴 체크리스트"))
	s.WriteString("\n\n")

	s.WriteString(m.renderDateBar())
	s.WriteString("\n\n")

	entries := m.book.Entries(m.date)
	if len(entries) == 0 {
		s.WriteString("  할 일이 없습니다. a 키로 추가하세요.\n")
	}
	for i, e := range entries {
		s.WriteString(m.renderEntry(i, e))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderDateBar() string {
	label := m.date
	if d, err := checklist.ParseDate(m.date); err == nil {
		label = d.Format("2006-01-02 (Mon)")
	}
	done, total := m.book.Progress(m.date)
	return fmt.Sprintf("◀ %s ▶  %d/%d 완료", dateStyle.Render(label), done, total)
}

func (m Model) renderEntry(i int, e models.ChecklistEntry) string {
	prefix := "  "
	if i == m.cursor {
		prefix = cursorStyle.Render("> ")
	}
	box := "[ ]"
	task := e.Task
	if e.Done {
		box = "[x]"
		task = doneStyle.Render(task)
	}
	return fmt.Sprintf("%s%s %s", prefix, box, task)
}

func (m Model) renderStatus() string {
	var parts []string
	if m.dirty {
		parts = append(parts, dirtyStyle.Render("● 저장되지 않은 변경사항"))
	}
	if m.saving {
		parts = append(parts, "저장 중...")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("오류: "+m.err.Error()))
	}
	if m.confirmQuit {
		parts = append(parts, dirtyStyle.Render("저장하지 않고 종료하려면 q를 한 번 더 누르세요"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderListHelp() string {
	return helpStyle.Render("←/→ 날짜 • ↑/↓ 이동 • space 완료 • a 추가 • d 완료 항목 삭제 • s 저장 • t 오늘 • q 종료")
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.confirmQuit = false
	}

	switch key {
	case "q", "esc":
		if m.dirty && !m.confirmQuit {
			m.confirmQuit = true
			return m, nil
		}
		return m, tea.Quit

	case "left", "h":
		m.shiftDay(-1)
	case "right", "l":
		m.shiftDay(1)
	case "t":
		m.date = checklist.DateKey(m.now().In(m.loc))
		m.cursor = 0

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.book[m.date])-1 {
			m.cursor++
		}

	case " ", "space", "x", "enter":
		if _, err := m.book.Toggle(m.date, m.cursor); err == nil {
			m.dirty = true
			m.status = ""
		}

	case "a":
		m.viewMode = ViewEdit
		m.input.Reset()
		m.err = nil
		return m, m.input.Focus()

	case "d":
		done, _ := m.book.Progress(m.date)
		if done == 0 {
			m.status = "삭제할 완료 항목이 없습니다"
			return m, nil
		}
		m.viewMode = ViewConfirmPurge

	case "s":
		if m.saving {
			return m, nil
		}
		m.saving = true
		m.status = ""
		return m, m.saveCmd()
	}

	return m, nil
}

func (m *Model) shiftDay(days int) {
	d, err := checklist.ParseDate(m.date)
	if err != nil {
		return
	}
	m.date = checklist.DateKey(d.AddDate(0, 0, days))
	m.cursor = 0
	m.status = ""
}
