package stagedef

import (
	"os"
	"path/filepath"
	"testing"
)

const goStageSource = `package main

func StageDefinitions() ([]map[string]any, error) {
	return []map[string]any{
		{
			"id":          "readme",
			"description": "readme",
			"prompt":      "Write a README for the generated app.",
			"inputs":      []string{"project-plan"},
			"outputs": []map[string]any{
				{"path": "README.md", "language": "markdown"},
			},
			"edges": []map[string]any{
				{"to": "project-plan", "relation": "explains"},
			},
		},
	}, nil
}`

func TestLoadGoDefinitionDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.go"), []byte(goStageSource), 0o644); err != nil {
		t.Fatalf("write stage script: %v", err)
	}
	defs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		t.Fatalf("load go defs: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	def := defs[0].Definition
	if def.ID != "readme" || len(def.Inputs) != 1 || def.Inputs[0] != "project-plan" {
		t.Fatalf("unexpected definition: %+v", def)
	}
}

func TestLoadGoDefinitionDirMissingFunc(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("write broken script: %v", err)
	}
	if _, err := LoadGoDefinitionDir(dir); err == nil {
		t.Fatal("expected error for missing StageDefinitions function")
	}
}

func TestLoadGoDefinitionDirMissing(t *testing.T) {
	defs, err := LoadGoDefinitionDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", defs)
	}
}
