package interceptor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBuilt(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "key-interceptor")

	p := NewProcess(binary, filepath.Join(dir, "captured_keys.txt"), nil)
	if p.CheckBuilt() {
		t.Fatalf("missing binary must report not built")
	}

	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	if !p.CheckBuilt() {
		t.Fatalf("existing binary must report built")
	}

	p.BinaryPath = dir
	if p.CheckBuilt() {
		t.Fatalf("a directory is not a built binary")
	}
}
