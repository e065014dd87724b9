// Package menu provides Bubble Tea selection prompts.
package menu

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Item is one selectable entry.
type Item struct {
	Title string
	Desc  string
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

var defaultKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B37FEB"))
	descGutter    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements a minimal selection list.
type Model struct {
	title  string
	items  []Item
	keys   keyMap
	cursor int
	choice int
	done   bool
}

// New returns a selection model over the given items.
func New(title string, items []Item) *Model {
	return &Model{title: title, items: items, keys: defaultKeys, choice: -1}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Select):
		m.choice = m.cursor
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	s := titleStyle.Render(m.title) + "\n\n"
	for i, item := range m.items {
		line := fmt.Sprintf("  %d) %s", i+1, item.Title)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line[2:])
		}
		s += line + "\n"
		if item.Desc != "" {
			s += descGutter.Render("       "+item.Desc) + "\n"
		}
	}
	s += "\n" + footerStyle.Render("↑/↓ move · enter select · q cancel") + "\n"
	return s
}

// Choice returns the selected index, or -1 when the prompt was cancelled.
func (m *Model) Choice() int {
	return m.choice
}

// Choose runs an interactive selection and returns the chosen index.
func Choose(title string, items []Item) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("nothing to choose from")
	}
	program := tea.NewProgram(New(title, items))
	final, err := program.Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run selection: %w", err)
	}
	m, ok := final.(*Model)
	if !ok || m.Choice() < 0 {
		return -1, fmt.Errorf("selection cancelled")
	}
	return m.Choice(), nil
}
