package keys

import (
	"strings"
)

// displayMap maps token names to the glyphs shown to the user.
var displayMap = map[string]string{
	"cmd":           "⌘",
	"alt":           "⌥",
	"shift":         "⇧",
	"ctrl":          "⌃",
	"fn":            "fn",
	"tab":           "Tab",
	"space":         "Space",
	"return":        "Return",
	"delete":        "Delete",
	"forwarddelete": "Forward Delete",
	"escape":        "Esc",
	"left":          "←",
	"right":         "→",
	"up":            "↑",
	"down":          "↓",
	"home":          "Home",
	"end":           "End",
	"pageup":        "Page Up",
	"pagedown":      "Page Down",
}

// Display renders a shortcut as a human-readable glyph sequence. Chord steps
// are joined with "then" so the user reads them as consecutive presses.
func Display(shortcut string) string {
	steps := strings.Fields(strings.ToLower(shortcut))
	if len(steps) > 1 {
		formatted := make([]string, len(steps))
		for i, step := range steps {
			formatted[i] = displayStep(step)
		}
		return strings.Join(formatted, "  then  ")
	}
	if len(steps) == 0 {
		return ""
	}
	return displayStep(steps[0])
}

func displayStep(step string) string {
	parts := strings.Split(step, Separator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, displayPart(part))
	}
	return strings.Join(out, " ")
}

func displayPart(part string) string {
	if glyph, ok := displayMap[part]; ok {
		return glyph
	}
	if isFunctionKey(part) {
		return strings.ToUpper(part)
	}
	if len([]rune(part)) == 1 {
		return strings.ToUpper(part)
	}
	return capitalize(part)
}

func isFunctionKey(part string) bool {
	if len(part) < 2 || part[0] != 'f' {
		return false
	}
	for i := 1; i < len(part); i++ {
		if part[i] < '0' || part[i] > '9' {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
