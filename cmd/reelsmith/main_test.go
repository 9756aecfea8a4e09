package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/spec"
)

func writeProjectConfig(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	cfgPath := filepath.Join(base, "reelsmith.toml")
	content := fmt.Sprintf("[paths]\nproject_dir = %q\n", base)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return base, cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output = %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	base, cfgPath := writeProjectConfig(t)

	doc := spec.Document{
		Version: 1,
		Global:  spec.Global{AspectRatio: "9:16", Title: "Test"},
		Scenes: []spec.Scene{
			{ID: "s1", Duration: 4, Text: "Hello there.", Visual: spec.Visual{Type: "image", Prompt: "a thing"}},
		},
	}
	if err := spec.Save(doc, filepath.Join(base, "video.yaml")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "1 scenes") || !strings.Contains(out, "version 1") {
		t.Fatalf("output = %q", out)
	}
}

func TestValidateCommandRejectsBrokenDocument(t *testing.T) {
	base, cfgPath := writeProjectConfig(t)
	if err := os.WriteFile(filepath.Join(base, "video.yaml"), []byte("scenes: [\n"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	if _, err := runCommand(t, "--config", cfgPath, "validate"); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestVersionsCommandEmptyStore(t *testing.T) {
	_, cfgPath := writeProjectConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "versions")
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if !strings.Contains(out, "No versions recorded yet") {
		t.Fatalf("output = %q", out)
	}
}

func TestConfigShowPrintsResolvedPaths(t *testing.T) {
	base, cfgPath := writeProjectConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, base) {
		t.Fatalf("expected resolved project dir in output: %q", out)
	}
}
