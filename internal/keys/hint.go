package keys

import "strings"

// hintOrder fixes which missing modifier gets hinted first.
var hintOrder = []string{"cmd", "alt", "shift", "ctrl", "fn"}

var modifierHints = map[string]string{
	"cmd":   "Don't forget the Command key (⌘)",
	"alt":   "Include the Option/Alt key (⌥)",
	"shift": "Add the Shift key (⇧)",
	"ctrl":  "Use the Control key (⌃)",
	"fn":    "Hold the fn key",
}

// Hints derives contextual feedback from the difference between the expected
// and the actually typed combo. Both arguments must already be normalized.
// At most one missing-modifier hint is produced, plus a platform hint when
// ctrl was typed where cmd was expected.
func Hints(expected, actual string) []string {
	expectedParts := partSet(expected)
	actualParts := partSet(actual)

	var hints []string
	for _, mod := range hintOrder {
		if _, want := expectedParts[mod]; !want {
			continue
		}
		if _, got := actualParts[mod]; !got {
			hints = append(hints, modifierHints[mod])
			break
		}
	}

	_, extraCtrl := actualParts["ctrl"]
	_, wantCtrl := expectedParts["ctrl"]
	_, wantCmd := expectedParts["cmd"]
	if extraCtrl && !wantCtrl && wantCmd {
		hints = append(hints, "Use Cmd (⌘) not Ctrl on Mac")
	}
	return hints
}

func partSet(combo string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, part := range strings.Split(combo, Separator) {
		if part != "" {
			set[part] = struct{}{}
		}
	}
	return set
}
