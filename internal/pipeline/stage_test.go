package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loomkit/loom/internal/generate"
	"github.com/loomkit/loom/internal/project"
	"github.com/loomkit/loom/internal/registry"
	"github.com/loomkit/loom/internal/stagedef"
)

func TestStageOrdering(t *testing.T) {
	seq := Sequence()
	if len(seq) != 6 {
		t.Fatalf("expected 6 runnable stages, got %d", len(seq))
	}
	for i, stage := range seq[:len(seq)-1] {
		if stage.Next() != seq[i+1] {
			t.Fatalf("stage %s should advance to %s, got %s", stage, seq[i+1], stage.Next())
		}
	}
	if StageDeployment.Next() != StageDone {
		t.Fatalf("deployment should advance to done, got %s", StageDeployment.Next())
	}
	if StageDone.Next() != StageDone {
		t.Fatal("done must be terminal")
	}
	if Stage(99).String() != "unknown" {
		t.Fatalf("out of range stage name: %s", Stage(99))
	}
}

func TestRunCustomStage(t *testing.T) {
	store := newMemStore()
	reg := registry.New(store)
	layout := project.NewLayout(t.TempDir())
	calls := 0
	gen := generate.Func(func(ctx context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Write a README") {
			if !strings.Contains(prompt, "Weather Web App Development Plan") {
				t.Fatalf("custom prompt missing resolved input:\n%s", prompt)
			}
			return "Intro.\n```markdown\n# Weather App\n```\n", nil
		}
		out, err := scriptedGenerator(&calls).Generate(ctx, prompt)
		return out, err
	})

	custom := []stagedef.StageDefinition{{
		ID:          "readme",
		Description: "readme",
		Prompt:      "Write a README for the generated app.",
		Inputs:      []string{DescProjectPlan},
		Outputs:     []stagedef.OutputBinding{{Path: "README.md", Language: "markdown"}},
		Edges:       []stagedef.EdgeDefinition{{To: DescProjectPlan, Relation: RelationExplains}},
	}}

	records, err := New(reg, gen, layout, WithCustomStages(custom)).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("expected 7 stage records, got %d", len(records))
	}
	last := records[len(records)-1]
	if last.Stage != "readme" {
		t.Fatalf("custom stage should run last, got %s", last.Stage)
	}

	readme, err := os.ReadFile(filepath.Join(layout.Root(), "README.md"))
	if err != nil {
		t.Fatalf("read README: %v", err)
	}
	if string(readme) != "# Weather App" {
		t.Fatalf("README body not extracted: %q", readme)
	}

	readmeID, err := reg.NodeID("readme")
	if err != nil {
		t.Fatalf("readme id: %v", err)
	}
	planID, err := reg.NodeID(DescProjectPlan)
	if err != nil {
		t.Fatalf("plan id: %v", err)
	}
	found := false
	for _, edge := range store.edges {
		if edge.Src == readmeID && edge.Dst == planID && edge.Relation == RelationExplains {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing readme -> plan explains edge in %v", store.edges)
	}
}
