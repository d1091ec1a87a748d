package stagedef

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDefinition = `id: api-docs
name: API Documentation
description: api-docs
prompt: |
  Create API documentation for the weather endpoints.
inputs:
  - backend
outputs:
  - path: docs/API.md
    language: markdown
edges:
  - to: backend
    relation: explains
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.ID != "api-docs" || def.Description != "api-docs" {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if len(def.Outputs) != 1 || def.Outputs[0].Path != "docs/API.md" {
		t.Fatalf("unexpected outputs: %+v", def.Outputs)
	}
	if len(def.Edges) != 1 || def.Edges[0].Relation != "explains" {
		t.Fatalf("unexpected edges: %+v", def.Edges)
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	if _, err := ParseDefinitionYAML([]byte("")); err == nil {
		t.Fatal("expected empty payload to fail")
	}
	missingOutput := "id: x\ndescription: x\nprompt: p\n"
	if _, err := ParseDefinitionYAML([]byte(missingOutput)); err == nil {
		t.Fatal("expected definition without outputs to fail")
	}
	escaping := "id: x\ndescription: x\nprompt: p\noutputs:\n  - path: ../outside.md\n"
	if _, err := ParseDefinitionYAML([]byte(escaping)); err == nil {
		t.Fatal("expected path escaping the output root to fail")
	}
	duplicateInput := "id: x\ndescription: x\nprompt: p\ninputs: [a, a]\noutputs:\n  - path: out.md\n"
	if _, err := ParseDefinitionYAML([]byte(duplicateInput)); err == nil {
		t.Fatal("expected duplicate inputs to fail")
	}
}

func TestLoadDefinitionDir(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "api-docs.yaml")
	if err := os.WriteFile(path, []byte(sampleDefinition), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	defs, err := LoadDefinitionDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Path != path {
		t.Fatalf("expected path %s, got %s", path, defs[0].Path)
	}
	if defs[0].Definition.ID != "api-docs" {
		t.Fatalf("unexpected id: %+v", defs[0].Definition)
	}
}

func TestLoadDefinitionDirMissing(t *testing.T) {
	defs, err := LoadDefinitionDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", defs)
	}
}
