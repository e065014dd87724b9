// Package tool loads trainable-tool documents from TOML files.
package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keydrill/internal/model"
)

const defaultIcon = "🎮"

// Entry is a discovered tool document.
type Entry struct {
	Path string
	Tool model.Tool
}

// Load reads a single tool document. Unlike Discover, a broken file is a
// loud error here: the user asked for this document specifically.
func Load(path string) (model.Tool, error) {
	var t model.Tool
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return model.Tool{}, fmt.Errorf("failed to decode tool file %s: %w", path, err)
	}
	applyDefaults(&t, path)
	if len(t.Shortcuts) == 0 {
		return model.Tool{}, fmt.Errorf("tool file %s defines no shortcuts", path)
	}
	for i, sc := range t.Shortcuts {
		if strings.TrimSpace(sc.Keys) == "" {
			return model.Tool{}, fmt.Errorf("tool file %s: shortcut %d has empty keys", path, i+1)
		}
		if sc.Difficulty < 1 || sc.Difficulty > 3 {
			t.Shortcuts[i].Difficulty = 1
		}
	}
	return t, nil
}

// Discover lists every readable tool document in dir, sorted by filename.
// Malformed or unreadable files are skipped; bulk discovery is non-fatal.
func Discover(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools directory: %w", err)
	}

	var tools []Entry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		t, err := Load(path)
		if err != nil {
			continue
		}
		tools = append(tools, Entry{Path: path, Tool: t})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Path < tools[j].Path })
	return tools, nil
}

// Resolve turns a tool name or path into a loadable document path. A value
// that is an existing file wins; otherwise the name is looked up in dir.
func Resolve(nameOrPath, dir string) (string, error) {
	if _, err := os.Stat(nameOrPath); err == nil {
		return nameOrPath, nil
	}
	name := strings.ToLower(strings.TrimSuffix(nameOrPath, ".toml"))
	candidate := filepath.Join(dir, name+".toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("tool %q not found (looked in %s)", nameOrPath, dir)
}

func applyDefaults(t *model.Tool, path string) {
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), ".toml")
	}
	if t.Icon == "" {
		t.Icon = defaultIcon
	}
}

// Template returns a starter tool document for `keydrill new`.
func Template(name, icon, description string) string {
	if icon == "" {
		icon = defaultIcon
	}
	return fmt.Sprintf(`name = %q
icon = %q
description = %q

[categories.basic]
name = "Basic"
color = "green"
icon = "🟢"

[[shortcuts]]
keys = "cmd+n"
description = "Example shortcut - replace this"
category = "basic"
difficulty = 1
tips = ["Replace this with actual shortcuts"]

[practice_sets.all]
name = "All Shortcuts"
description = "Practice all shortcuts"
`, name, icon, description)
}
