package stats

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/keydrill/internal/keys"
	"github.com/verte-zerg/keydrill/internal/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	perfectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#52C41A"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	mehStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

const defaultReportWidth = 50

// RenderResults formats the end-of-session report: score, attempt
// performance, category and difficulty breakdowns, and the practiced list.
func RenderResults(t model.Tool, practiced []model.Shortcut, s *model.SessionStats) string {
	var b strings.Builder
	width := reportWidth()
	rule := strings.Repeat("=", width)

	b.WriteString(headerStyle.Render(fmt.Sprintf("📊 %s RESULTS", strings.ToUpper(t.Name))))
	b.WriteString("\n" + rule + "\n")

	writeScore(&b, practiced, s)
	writePerformance(&b, s)
	writeBreakdown(&b, t, s)
	writePracticed(&b, practiced, s)

	b.WriteString("\nThe trainer has been turned OFF automatically.\n")
	b.WriteString(goodStyle.Render(fmt.Sprintf("Your keyboard is back to normal! %s", t.Icon)))
	b.WriteString("\n")
	return b.String()
}

func writeScore(b *strings.Builder, practiced []model.Shortcut, s *model.SessionStats) {
	if s.Completed == len(practiced) && s.Completed > 0 {
		b.WriteString(perfectStyle.Render("🎉 PERFECT SCORE! 🎉") + "\n")
		fmt.Fprintf(b, "You mastered all %d shortcuts!\n", len(practiced))
		return
	}
	fmt.Fprintf(b, "Completed: %d/%d\n", s.Completed, len(practiced))
	if s.Skipped > 0 {
		fmt.Fprintf(b, "Skipped: %d\n", s.Skipped)
	}
}

func writePerformance(b *strings.Builder, s *model.SessionStats) {
	if len(s.Attempts) == 0 {
		return
	}
	avg := s.AverageAttempts()
	fmt.Fprintf(b, "\nAverage attempts per shortcut: %.1f\n", avg)
	switch {
	case avg < 1.5:
		b.WriteString(goodStyle.Render("🏆 Excellent muscle memory!") + "\n")
	case avg < 2.5:
		b.WriteString(mehStyle.Render("👍 Good job! Keep practicing!") + "\n")
	default:
		b.WriteString(dimStyle.Render("💪 You're learning! Practice makes perfect!") + "\n")
	}
}

func writeBreakdown(b *strings.Builder, t model.Tool, s *model.SessionStats) {
	catIDs := make([]string, 0, len(s.ByCategory))
	for id, count := range s.ByCategory {
		if count > 0 {
			catIDs = append(catIDs, id)
		}
	}
	sort.Strings(catIDs)
	if len(catIDs) > 0 {
		b.WriteString("\nBy category:\n")
		for _, id := range catIDs {
			cat, ok := t.Categories[id]
			if !ok {
				fmt.Fprintf(b, "  %s: %d completed\n", id, s.ByCategory[id])
				continue
			}
			fmt.Fprintf(b, "  %s %s: %d completed\n", cat.Icon, cat.Name, s.ByCategory[id])
		}
	}

	diffNames := map[int]string{1: "⭐ Easy", 2: "⭐⭐ Medium", 3: "⭐⭐⭐ Hard"}
	wroteHeader := false
	for diff := 1; diff <= 3; diff++ {
		count := s.ByDifficulty[diff]
		if count == 0 {
			continue
		}
		if !wroteHeader {
			b.WriteString("\nBy difficulty:\n")
			wroteHeader = true
		}
		fmt.Fprintf(b, "  %s: %d completed\n", diffNames[diff], count)
	}
}

func writePracticed(b *strings.Builder, practiced []model.Shortcut, s *model.SessionStats) {
	attempted := s.Completed + s.Skipped
	if attempted == 0 {
		return
	}
	if attempted > len(practiced) {
		attempted = len(practiced)
	}
	b.WriteString("\nShortcuts practiced:\n")
	b.WriteString(strings.Repeat("-", defaultReportWidth) + "\n")
	for i := 0; i < attempted; i++ {
		status := "⭕"
		style := mehStyle
		if i < s.Completed {
			status = "✅"
			style = goodStyle
		}
		display := keys.Display(practiced[i].Keys)
		// Glyphs like ⌘ are double-width; pad by display width, not length.
		padded := runewidth.FillRight(display, 25)
		line := fmt.Sprintf("  %s %s - %s", status, padded, practiced[i].Description)
		b.WriteString(style.Render(line) + "\n")
	}
}

func reportWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || width > defaultReportWidth {
		return defaultReportWidth
	}
	return width
}
