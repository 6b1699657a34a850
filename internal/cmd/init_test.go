package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCmd_WritesConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := newInitCmd()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	path := filepath.Join(os.Getenv("HOME"), ".hydra", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config.yaml written: %v", err)
	}
}

func TestInitCmd_RefusesToOverwriteWithoutForce(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := newInitCmd()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("expected second init without --force to fail")
	}
}
