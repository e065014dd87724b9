package practice

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/verte-zerg/keydrill/internal/keys"
	"github.com/verte-zerg/keydrill/internal/model"
)

// OptionKind distinguishes how a practice option resolves its shortcuts.
type OptionKind int

const (
	// OptionSet is a configured practice set.
	OptionSet OptionKind = iota
	// OptionCategory is the subset of shortcuts sharing one category.
	OptionCategory
	// OptionRandom is a uniform sample drawn at selection time.
	OptionRandom
)

// Option is one selectable practice scope.
type Option struct {
	Kind        OptionKind
	ID          string
	Mode        string
	Label       string
	Description string
	Shortcuts   []model.Shortcut
	Count       int
}

// DefaultRandomCount is how many shortcuts the random option draws.
const DefaultRandomCount = 10

// BuildOptions enumerates the selectable practice scopes for a tool:
// configured practice sets, then every category with at least one member,
// then the random sample. Set and category order is alphabetical by id so
// menus are stable across runs.
func BuildOptions(t model.Tool, randomCount int) []Option {
	if randomCount <= 0 {
		randomCount = DefaultRandomCount
	}
	var options []Option

	setIDs := make([]string, 0, len(t.PracticeSets))
	for id := range t.PracticeSets {
		setIDs = append(setIDs, id)
	}
	sort.Strings(setIDs)
	for _, id := range setIDs {
		set := t.PracticeSets[id]
		shortcuts := resolveSet(t, set)
		options = append(options, Option{
			Kind:        OptionSet,
			ID:          id,
			Mode:        id,
			Label:       set.Name,
			Description: set.Description,
			Shortcuts:   shortcuts,
			Count:       len(shortcuts),
		})
	}

	catIDs := make([]string, 0, len(t.Categories))
	for id := range t.Categories {
		catIDs = append(catIDs, id)
	}
	sort.Strings(catIDs)
	for _, id := range catIDs {
		shortcuts := categoryShortcuts(t, id)
		if len(shortcuts) == 0 {
			continue
		}
		cat := t.Categories[id]
		options = append(options, Option{
			Kind:      OptionCategory,
			ID:        id,
			Mode:      "category_" + id,
			Label:     fmt.Sprintf("%s %s", cat.Icon, cat.Name),
			Shortcuts: shortcuts,
			Count:     len(shortcuts),
		})
	}

	count := randomCount
	if count > len(t.Shortcuts) {
		count = len(t.Shortcuts)
	}
	options = append(options, Option{
		Kind:        OptionRandom,
		ID:          "random",
		Mode:        "random",
		Label:       "🎲 Random Selection",
		Description: fmt.Sprintf("%d random shortcuts", count),
		Count:       count,
	})
	return options
}

func resolveSet(t model.Tool, set model.PracticeSet) []model.Shortcut {
	if len(set.ShortcutIndices) == 0 {
		return append([]model.Shortcut(nil), t.Shortcuts...)
	}
	shortcuts := make([]model.Shortcut, 0, len(set.ShortcutIndices))
	for _, idx := range set.ShortcutIndices {
		if idx < 0 || idx >= len(t.Shortcuts) {
			continue
		}
		shortcuts = append(shortcuts, t.Shortcuts[idx])
	}
	return shortcuts
}

func categoryShortcuts(t model.Tool, catID string) []model.Shortcut {
	var shortcuts []model.Shortcut
	for _, sc := range t.Shortcuts {
		if sc.Category == catID {
			shortcuts = append(shortcuts, sc)
		}
	}
	return shortcuts
}

// RandomSample draws exactly min(n, len(shortcuts)) distinct shortcuts. A
// non-empty weakSet (normalized key sequences) biases the draw: weak
// shortcuts fill the sample first, the remainder is uniform.
func RandomSample(shortcuts []model.Shortcut, n int, weakSet map[string]struct{}, rng *rand.Rand) []model.Shortcut {
	if n > len(shortcuts) {
		n = len(shortcuts)
	}
	if n <= 0 {
		return nil
	}

	indices := rng.Perm(len(shortcuts))
	if len(weakSet) > 0 {
		weak := make([]int, 0, len(indices))
		rest := make([]int, 0, len(indices))
		for _, idx := range indices {
			if _, ok := weakSet[keys.NormalizeSequence(shortcuts[idx].Keys)]; ok {
				weak = append(weak, idx)
			} else {
				rest = append(rest, idx)
			}
		}
		indices = append(weak, rest...)
	}

	sample := make([]model.Shortcut, 0, n)
	for _, idx := range indices[:n] {
		sample = append(sample, shortcuts[idx])
	}
	rng.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	return sample
}
