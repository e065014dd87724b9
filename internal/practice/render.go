package practice

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keydrill/internal/keys"
	"github.com/verte-zerg/keydrill/internal/model"
)

var (
	targetStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B37FEB"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#36CFC9"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	categoryStyle = lipgloss.NewStyle().Bold(true)
)

const promptRule = "=================================================="

// renderPrompt writes the full prompt for one shortcut: position, category
// and difficulty decoration, the glyph target, description, and up to two
// tips.
func renderPrompt(w io.Writer, t model.Tool, sc model.Shortcut, number, total int) {
	fmt.Fprintln(w, promptRule)
	fmt.Fprintf(w, "%s PRACTICE %d/%d\n", strings.ToUpper(t.Name), number, total)

	if cat, ok := t.Categories[sc.Category]; ok {
		fmt.Fprintln(w, categoryStyle.Render(fmt.Sprintf("%s %s", cat.Icon, cat.Name)))
	}
	stars := strings.Repeat("⭐", sc.Difficulty) + strings.Repeat("☆", 3-sc.Difficulty)
	fmt.Fprintf(w, "Difficulty: %s\n", stars)
	fmt.Fprintln(w, promptRule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, promptStyle.Render(fmt.Sprintf("Type this %s shortcut:", t.Name)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, targetStyle.Render("    🎯  "+keys.Display(sc.Keys)))
	fmt.Fprintf(w, "    📝 %s\n", sc.Description)
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", len(promptRule)))

	if len(sc.Tips) > 0 {
		fmt.Fprintln(w, "💡 Tips:")
		tips := sc.Tips
		if len(tips) > 2 {
			tips = tips[:2]
		}
		for _, tip := range tips {
			fmt.Fprintf(w, "  • %s\n", tip)
		}
	}
	if sc.Chord() {
		fmt.Fprintln(w, noticeStyle.Render("  ⚠️  This is a chord: press the first combo, release, then the second"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, noticeStyle.Render("Press ` (backtick) to skip, `` (twice) to exit"))
	fmt.Fprintln(w)
}

func renderSuccess(w io.Writer, attempts int) {
	fmt.Fprintln(w, successStyle.Render(" ✅ Correct!"))
	switch attempts {
	case 1:
		fmt.Fprintln(w, successStyle.Render("🎯 Perfect! First try!"))
	case 2:
		fmt.Fprintln(w, noticeStyle.Render("👍 Great! Got it on the second try!"))
	default:
		fmt.Fprintf(w, "Got it in %d attempts!\n", attempts)
	}
}

func renderMistake(w io.Writer, hints []string) {
	fmt.Fprintln(w, failStyle.Render(" ❌ Try again"))
	for _, hint := range hints {
		fmt.Fprintln(w, hintStyle.Render("    💡 Hint: "+hint))
	}
}
