package menu

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModelSelection(t *testing.T) {
	m := New("Pick a tool", []Item{
		{Title: "VSCode", Desc: "12 shortcuts"},
		{Title: "Slack"},
	})

	updated, _ := m.Update(keyMsg("j"))
	m = updated.(*Model)
	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(*Model)

	if m.Choice() != 1 {
		t.Fatalf("expected choice 1, got %d", m.Choice())
	}
}

func TestModelCancel(t *testing.T) {
	m := New("Pick a tool", []Item{{Title: "VSCode"}})
	updated, _ := m.Update(keyMsg("esc"))
	m = updated.(*Model)
	if m.Choice() != -1 {
		t.Fatalf("cancel must leave no choice, got %d", m.Choice())
	}
}

func TestModelCursorBounds(t *testing.T) {
	m := New("Pick", []Item{{Title: "a"}, {Title: "b"}})
	updated, _ := m.Update(keyMsg("k"))
	m = updated.(*Model)
	if m.cursor != 0 {
		t.Fatalf("cursor must not move above the first item")
	}
	for i := 0; i < 5; i++ {
		updated, _ = m.Update(keyMsg("j"))
		m = updated.(*Model)
	}
	if m.cursor != 1 {
		t.Fatalf("cursor must not move past the last item, got %d", m.cursor)
	}
}

func TestViewListsItems(t *testing.T) {
	m := New("Pick a tool", []Item{{Title: "VSCode", Desc: "12 shortcuts"}})
	view := m.View()
	for _, want := range []string{"Pick a tool", "VSCode", "12 shortcuts"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
