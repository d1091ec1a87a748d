// Package stagedef loads user-provided pipeline stage definitions. A
// definition declares one extra generation stage: its prompt, the prior
// artifacts injected as context, the files extracted from the response, and
// the provenance edges to record. Definitions come from YAML files or from
// Go scripts evaluated with yaegi; both are validated against the same
// schema before the orchestrator will run them.
package stagedef

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StageDefinition describes one custom generation stage.
type StageDefinition struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	Description string           `json:"description" yaml:"description"`
	Prompt      string           `json:"prompt" yaml:"prompt"`
	Inputs      []string         `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs     []OutputBinding  `json:"outputs" yaml:"outputs"`
	Edges       []EdgeDefinition `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// OutputBinding maps one extraction from the stage's raw response to a
// destination file. An empty language writes the whole response.
type OutputBinding struct {
	Path     string `json:"path" yaml:"path"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// EdgeDefinition records a typed provenance edge from this stage's node to a
// previously stored description.
type EdgeDefinition struct {
	To       string `json:"to" yaml:"to"`
	Relation string `json:"relation" yaml:"relation"`
}

// Normalized returns a trimmed copy of the definition.
func (def StageDefinition) Normalized() StageDefinition {
	clone := StageDefinition{
		ID:          strings.TrimSpace(def.ID),
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Prompt:      strings.TrimSpace(def.Prompt),
	}
	if len(def.Inputs) > 0 {
		clone.Inputs = make([]string, 0, len(def.Inputs))
		for _, input := range def.Inputs {
			if trimmed := strings.TrimSpace(input); trimmed != "" {
				clone.Inputs = append(clone.Inputs, trimmed)
			}
		}
	}
	if len(def.Outputs) > 0 {
		clone.Outputs = make([]OutputBinding, len(def.Outputs))
		for i, out := range def.Outputs {
			clone.Outputs[i] = OutputBinding{
				Path:     strings.TrimSpace(out.Path),
				Language: strings.TrimSpace(out.Language),
			}
		}
	}
	if len(def.Edges) > 0 {
		clone.Edges = make([]EdgeDefinition, len(def.Edges))
		for i, edge := range def.Edges {
			clone.Edges[i] = EdgeDefinition{
				To:       strings.TrimSpace(edge.To),
				Relation: strings.TrimSpace(edge.Relation),
			}
		}
	}
	return clone
}

// Validate ensures the definition is well-formed.
func (def StageDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("stagedef: id is required")
	}
	if normalized.Description == "" {
		return fmt.Errorf("stagedef %s: description is required", normalized.ID)
	}
	if normalized.Prompt == "" {
		return fmt.Errorf("stagedef %s: prompt is required", normalized.ID)
	}
	seen := make(map[string]struct{}, len(normalized.Inputs))
	for idx, input := range normalized.Inputs {
		if _, exists := seen[input]; exists {
			return fmt.Errorf("stagedef %s: inputs[%d]: duplicate input %s", normalized.ID, idx, input)
		}
		seen[input] = struct{}{}
	}
	if len(normalized.Outputs) == 0 {
		return fmt.Errorf("stagedef %s: at least one output is required", normalized.ID)
	}
	for idx, out := range normalized.Outputs {
		if err := out.validate(); err != nil {
			return fmt.Errorf("stagedef %s: outputs[%d]: %w", normalized.ID, idx, err)
		}
	}
	for idx, edge := range normalized.Edges {
		if edge.To == "" {
			return fmt.Errorf("stagedef %s: edges[%d]: to is required", normalized.ID, idx)
		}
		if edge.Relation == "" {
			return fmt.Errorf("stagedef %s: edges[%d]: relation is required", normalized.ID, idx)
		}
	}
	return nil
}

func (out OutputBinding) validate() error {
	if out.Path == "" {
		return fmt.Errorf("path is required")
	}
	if filepath.IsAbs(out.Path) {
		return fmt.Errorf("path %s must be relative to the output root", out.Path)
	}
	if !filepath.IsLocal(out.Path) {
		return fmt.Errorf("path %s escapes the output root", out.Path)
	}
	return nil
}
