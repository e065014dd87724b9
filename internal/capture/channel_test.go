package capture

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadNewKeysMissingFile(t *testing.T) {
	ch := NewChannel(filepath.Join(t.TempDir(), "captured_keys.txt"))
	if ch.IsActive() {
		t.Fatalf("missing file must read as inactive")
	}
	tokens, err := ch.ReadNewKeys()
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens, got %v", tokens)
	}
}

func TestReadNewKeysIncremental(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captured_keys.txt")
	if err := os.WriteFile(path, []byte("cmd+n\nescape\n"), 0o644); err != nil {
		t.Fatalf("write capture file: %v", err)
	}

	ch := NewChannel(path)
	tokens, err := ch.ReadNewKeys()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "cmd+n" || tokens[1] != "escape" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}

	// No new bytes appended: second read is empty.
	tokens, err = ch.ReadNewKeys()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected empty read, got %v", tokens)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := file.WriteString("  cmd+shift+p  \n\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	tokens, err = ch.ReadNewKeys()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "cmd+shift+p" {
		t.Fatalf("expected trimmed appended token, got %v", tokens)
	}
}

func TestResetCursorSkipsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captured_keys.txt")
	if err := os.WriteFile(path, []byte("stale+token\n"), 0o644); err != nil {
		t.Fatalf("write capture file: %v", err)
	}

	ch := NewChannel(path)
	ch.ResetCursor()

	tokens, err := ch.ReadNewKeys()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected stale content skipped, got %v", tokens)
	}

	// The file itself must be untouched.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "stale+token\n" {
		t.Fatalf("reset must not rewrite the file, got %q", string(data))
	}
}
