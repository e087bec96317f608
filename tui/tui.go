// ABOUTME: Terminal checklist board using bubbletea framework
// ABOUTME: Day-by-day view of the study checklist with add, toggle, save and purge
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jaksim/jaksim/checklist"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewEdit
	ViewConfirmPurge
)

// Model is the main bubbletea model. Edits stay in memory until saved;
// purging saves immediately.
type Model struct {
	ctx   context.Context
	store checklist.Store
	loc   *time.Location
	now   func() time.Time

	book     checklist.Book
	date     string
	cursor   int
	viewMode ViewMode

	input textinput.Model

	dirty       bool
	saving      bool
	confirmQuit bool
	status      string
	err         error

	width  int
	height int
}

// savedMsg reports the outcome of a background save.
type savedMsg struct {
	err error
}

// NewModel loads the checklist and opens the board on date.
func NewModel(ctx context.Context, store checklist.Store, date string, loc *time.Location) (Model, error) {
	if loc == nil {
		loc = time.Local
	}
	if _, err := checklist.ParseDate(date); err != nil {
		return Model{}, err
	}
	book, err := store.Load(ctx)
	if err != nil {
		return Model{}, err
	}
	if book == nil {
		book = checklist.Book{}
	}

	input := textinput.New()
	input.Placeholder = "할 일을 입력하세요"
	input.CharLimit = 200
	input.Width = 50

	return Model{
		ctx:      ctx,
		store:    store,
		loc:      loc,
		now:      time.Now,
		book:     book,
		date:     date,
		viewMode: ViewList,
		input:    input,
		width:    80,
		height:   24,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.dirty = false
		m.status = "저장되었습니다"
		return m, nil
	}

	if m.viewMode == ViewEdit {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewEdit:
		return m.renderEditView()
	case ViewConfirmPurge:
		return m.renderConfirmPurgeView()
	}
	return ""
}

// Book returns the board's working copy.
func (m Model) Book() checklist.Book {
	return m.book
}

// Dirty reports unsaved edits.
func (m Model) Dirty() bool {
	return m.dirty
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewConfirmPurge:
		return m.handleConfirmPurgeKeys(msg)
	}

	return m, nil
}

func (m Model) saveCmd() tea.Cmd {
	ctx, store, book := m.ctx, m.store, m.book.Clone()
	return func() tea.Msg {
		return savedMsg{err: store.Save(ctx, book)}
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	dateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
