package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/loomkit/loom/internal/generate"
	"github.com/loomkit/loom/internal/project"
	"github.com/loomkit/loom/internal/registry"
)

type storedEdge struct {
	Src, Dst, Relation string
}

type memStore struct {
	mu    sync.Mutex
	next  int
	nodes map[string]string
	edges []storedEdge
}

func newMemStore() *memStore {
	return &memStore{nodes: map[string]string{}}
}

func (s *memStore) Add(_ context.Context, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("%06x", s.next)
	s.nodes[id] = content
	return id, nil
}

func (s *memStore) Fetch(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.nodes[id]
	if !ok {
		return "", fmt.Errorf("no node %s", id)
	}
	return content, nil
}

func (s *memStore) Link(_ context.Context, src, dst, relation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, storedEdge{Src: src, Dst: dst, Relation: relation})
	return nil
}

// scriptedGenerator answers each prompt by its leading line.
func scriptedGenerator(calls *int) generate.Generator {
	return generate.Func(func(_ context.Context, prompt string) (string, error) {
		*calls++
		switch {
		case strings.HasPrefix(prompt, "Create a React component"):
			return "Component notes.\n```tsx\nexport const WeatherDisplay = () => null;\n```\n```css\n.card { padding: 1rem; }\n```\n", nil
		case strings.HasPrefix(prompt, "Create a React hook"):
			return "```typescript\nexport function useWeather() {}\n```\n", nil
		case strings.HasPrefix(prompt, "Create an Express.js backend"):
			return "```typescript\nimport express from 'express';\n```\n", nil
		case strings.HasPrefix(prompt, "Create deployment configuration"):
			return "```dockerfile\nFROM node:20-alpine\n```\n```yaml\nservices:\n  api: {}\n```\n", nil
		default:
			return "", fmt.Errorf("unexpected prompt: %q", prompt)
		}
	})
}

type eventLog struct {
	started   []string
	completed []string
	failed    []string
}

func (e *eventLog) StageStarted(stage string) { e.started = append(e.started, stage) }

func (e *eventLog) StageCompleted(stage string, _ StageRecord) {
	e.completed = append(e.completed, stage)
}

func (e *eventLog) StageFailed(stage string, _ error) { e.failed = append(e.failed, stage) }

func TestRunFullPipeline(t *testing.T) {
	store := newMemStore()
	reg := registry.New(store)
	layout := project.NewLayout(t.TempDir())
	calls := 0
	events := &eventLog{}
	orch := New(reg, scriptedGenerator(&calls), layout, WithObserver(events))

	records, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected 6 stage records, got %d", len(records))
	}
	if calls != 4 {
		t.Fatalf("expected 4 generator calls, got %d", calls)
	}

	wantOrder := []string{"config", "structure", "frontend-component", "frontend-hook", "backend", "deployment"}
	if diff := cmp.Diff(wantOrder, events.started); diff != "" {
		t.Fatalf("stage order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantOrder, events.completed); diff != "" {
		t.Fatalf("completed order mismatch (-want +got):\n%s", diff)
	}
	if len(events.failed) != 0 {
		t.Fatalf("unexpected failures: %v", events.failed)
	}

	// Every registered description resolves back to the stored content.
	wantDescriptions := []string{
		DescBackend, DescBackendNotes, DescHook,
		DescDeployment, DescDeploymentNotes,
		DescComponent, DescFrontendNotes,
		DescProjectConfig, DescProjectPlan,
	}
	if got := reg.Descriptions(); len(got) != len(wantDescriptions) {
		t.Fatalf("expected %d descriptions, got %v", len(wantDescriptions), got)
	}

	wantFiles := []string{
		layout.FrontendPackagePath(),
		layout.BackendPackagePath(),
		layout.FrontendTSConfigPath(),
		layout.CSSTypesPath(),
		layout.ViteConfigPath(),
		layout.IndexHTMLPath(),
		layout.BackendTSConfigPath(),
		layout.ComponentPath(),
		layout.ComponentStylesPath(),
		layout.HookPath(),
		layout.ServerPath(),
		layout.DockerfilePath(),
		layout.ComposePath(),
	}
	for _, path := range wantFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			t.Fatalf("file %s is empty", path)
		}
	}

	component, err := os.ReadFile(layout.ComponentPath())
	if err != nil {
		t.Fatalf("read component: %v", err)
	}
	if string(component) != "export const WeatherDisplay = () => null;" {
		t.Fatalf("component body not extracted: %q", component)
	}

	hookID, err := reg.NodeID(DescHook)
	if err != nil {
		t.Fatalf("hook id: %v", err)
	}
	componentID, err := reg.NodeID(DescComponent)
	if err != nil {
		t.Fatalf("component id: %v", err)
	}
	found := false
	for _, edge := range store.edges {
		if edge.Src == hookID && edge.Dst == componentID && edge.Relation == RelationProvidesData {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing hook -> component provides-data edge in %v", store.edges)
	}
	if len(store.edges) != 7 {
		t.Fatalf("expected 7 edges, got %d: %v", len(store.edges), store.edges)
	}
}

func TestRunSkipsStylesWithoutCSSBlock(t *testing.T) {
	store := newMemStore()
	reg := registry.New(store)
	layout := project.NewLayout(t.TempDir())
	gen := generate.Func(func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Create a React component") {
			return "```tsx\nexport const WeatherDisplay = () => null;\n```\n", nil
		}
		return "```typescript\nok\n```\n```dockerfile\nFROM scratch\n```\n```yaml\nx: 1\n```\n", nil
	})

	if _, err := New(reg, gen, layout).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(layout.ComponentStylesPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("styles file should not exist, stat err: %v", err)
	}
}

func TestRunStopsOnGeneratorFailure(t *testing.T) {
	store := newMemStore()
	reg := registry.New(store)
	layout := project.NewLayout(t.TempDir())
	boom := errors.New("model unavailable")
	gen := generate.Func(func(_ context.Context, _ string) (string, error) {
		return "", boom
	})
	events := &eventLog{}

	records, err := New(reg, gen, layout, WithObserver(events)).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
	if !strings.Contains(err.Error(), "frontend-component stage") {
		t.Fatalf("error should name the failed stage: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected config and structure records only, got %d", len(records))
	}
	if _, idErr := reg.NodeID(DescComponent); idErr == nil {
		t.Fatal("failed stage must not register its artifact")
	}
	if diff := cmp.Diff([]string{"frontend-component"}, events.failed); diff != "" {
		t.Fatalf("failed events mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratorTimeoutAbortsStage(t *testing.T) {
	store := newMemStore()
	reg := registry.New(store)
	layout := project.NewLayout(t.TempDir())
	gen := generate.Func(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	_, err := New(reg, gen, layout, WithGeneratorTimeout(10*time.Millisecond)).Run(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, run took %v", elapsed)
	}
	if _, idErr := reg.NodeID(DescComponent); idErr == nil {
		t.Fatal("timed out stage must not register its artifact")
	}
}
