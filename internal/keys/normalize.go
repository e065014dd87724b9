// Package keys canonicalizes, compares and formats key tokens.
package keys

import (
	"sort"
	"strings"
)

// Separator joins modifiers and the main key inside one chord step.
const Separator = "+"

// chordSeparator splits a multi-step shortcut into its steps.
const chordSeparator = " "

// modifiers is the vocabulary of recognized modifier names.
var modifiers = map[string]struct{}{
	"cmd":   {},
	"shift": {},
	"alt":   {},
	"ctrl":  {},
	"fn":    {},
}

// Normalize returns the canonical form of a single key token: lower-cased,
// with recognized modifiers sorted lexicographically ahead of the main key.
// Segments that are not recognized modifiers are dropped without complaint,
// so "meta+x" canonicalizes to "x".
func Normalize(token string) string {
	token = strings.TrimSpace(strings.ToLower(token))
	if !strings.Contains(token, Separator) {
		return token
	}
	parts := strings.Split(token, Separator)
	main := parts[len(parts)-1]
	kept := make([]string, 0, len(parts)-1)
	for _, part := range parts[:len(parts)-1] {
		if _, ok := modifiers[part]; ok {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return main
	}
	sort.Strings(kept)
	return strings.Join(kept, Separator) + Separator + main
}

// NormalizeSequence canonicalizes a shortcut that may contain several chord
// steps separated by spaces. Each step is normalized independently; step
// order is preserved.
func NormalizeSequence(shortcut string) string {
	steps := strings.Fields(shortcut)
	for i, step := range steps {
		steps[i] = Normalize(step)
	}
	return strings.Join(steps, chordSeparator)
}

// Steps splits a shortcut into its normalized chord steps.
func Steps(shortcut string) []string {
	steps := strings.Fields(shortcut)
	for i, step := range steps {
		steps[i] = Normalize(step)
	}
	return steps
}

// Match reports whether typed equals expected after normalization. Chords
// match only with the same number of steps in the same order.
func Match(typed, expected string) bool {
	a := Steps(typed)
	b := Steps(expected)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsModifier reports whether the token names a recognized modifier.
func IsModifier(token string) bool {
	_, ok := modifiers[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// standalone keys that count as deliberate attempts even without modifiers.
var standaloneKeys = map[string]struct{}{
	"space":  {},
	"return": {},
	"delete": {},
	"tab":    {},
}

// Meaningful reports whether a mismatched token was a real attempt rather
// than an accidental press. Bare modifier taps and loose letters are noise;
// combos, a few standalone keys, and function keys are judged.
func Meaningful(token string) bool {
	lower := strings.ToLower(token)
	if strings.Contains(token, Separator) {
		return true
	}
	if _, ok := standaloneKeys[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, "f")
}
